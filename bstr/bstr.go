// Package bstr implements fixed-capacity strings, used to build diagnostic
// text without growing memory.
package bstr

import (
	"bytes"
	"errors"
	"fmt"
)

// MaxLength is the capacity of a String in bytes. Test names and failure
// messages are expected to fit comfortably.
const MaxLength = 1024

// ErrOverflow is returned when content does not fit into a String.
var ErrOverflow = errors.New("bstr: capacity exceeded")

// String is a string of at most MaxLength bytes stored inline. The zero value
// is an empty string.
type String struct {
	n int
	b [MaxLength]byte
}

// New returns a String holding s.
func New(s string) (String, error) {
	var out String
	if err := out.Push(s); err != nil {
		return String{}, err
	}
	return out, nil
}

// Format returns a String holding the formatted text.
func Format(format string, args ...any) (String, error) {
	var out String
	if _, err := fmt.Fprintf(&out, format, args...); err != nil {
		return String{}, err
	}
	return out, nil
}

// Push appends p. On overflow s is left unchanged.
func (s *String) Push(p string) error {
	if s.n+len(p) > MaxLength {
		return ErrOverflow
	}
	s.n += copy(s.b[s.n:], p)
	return nil
}

// Write appends p, so a String can be the target of fmt.Fprintf. It either
// writes all of p or nothing.
func (s *String) Write(p []byte) (int, error) {
	if s.n+len(p) > MaxLength {
		return 0, ErrOverflow
	}
	s.n += copy(s.b[s.n:], p)
	return len(p), nil
}

// ReplaceAll returns a copy of s with every non-overlapping occurrence of
// from replaced by to. An empty from leaves the content unchanged.
func (s *String) ReplaceAll(from, to string) (String, error) {
	if from == "" {
		return *s, nil
	}
	var out String
	src := s.b[:s.n]
	pattern := []byte(from)
	for {
		i := bytes.Index(src, pattern)
		if i < 0 {
			break
		}
		if _, err := out.Write(src[:i]); err != nil {
			return String{}, err
		}
		if err := out.Push(to); err != nil {
			return String{}, err
		}
		src = src[i+len(from):]
	}
	if _, err := out.Write(src); err != nil {
		return String{}, err
	}
	return out, nil
}

// Strip returns a copy of s without the bytes for which drop reports true.
func (s *String) Strip(drop func(c byte) bool) String {
	var out String
	for _, c := range s.b[:s.n] {
		if !drop(c) {
			out.b[out.n] = c
			out.n++
		}
	}
	return out
}

// Len returns the length in bytes.
func (s *String) Len() int {
	return s.n
}

// Bytes returns the content. The slice aliases s.
func (s *String) Bytes() []byte {
	return s.b[:s.n]
}

func (s *String) String() string {
	return string(s.b[:s.n])
}
