// Package output renders harness events as structured records, one per line,
// on the architecture's debug channel.
//
// The records look like JSON objects and are kept parseable as such, but the
// package is not a general serializer: every embedded string is sanitised so
// that the record stays on one line and needs no escaping.
package output

import (
	"ktest/arch"
	"ktest/bstr"
)

// Placeholders used when a failure carries no location or message.
const (
	UnknownLocation = "unknown location"
	NoMessage       = "no message"
)

// replacements applied to every embedded string, in order.
var replacements = [...]struct{ from, to string }{
	{"\r\n", ""},
	{"\n", ""},
	{"\r", ""},
	{"\t", ""},
	{`\`, "/"},
	{`"`, "'"},
}

// Writer writes records through a Backend.
type Writer struct {
	backend arch.Backend
}

// NewWriter returns a Writer on b.
func NewWriter(b arch.Backend) *Writer {
	return &Writer{backend: b}
}

// WriteTestGroup writes the record announcing the group and its test count.
func (w *Writer) WriteTestGroup(group string, count int) error {
	g, err := sanitize(group)
	if err != nil {
		return err
	}
	rec, err := bstr.Format(`{ "test_group": "%s", "test_count": %d }`, g.Bytes(), count)
	if err != nil {
		return err
	}
	return w.emit(&rec)
}

// WriteTestSuccess writes a pass record.
func (w *Writer) WriteTestSuccess(name string, cycles uint64) error {
	n, err := sanitize(name)
	if err != nil {
		return err
	}
	rec, err := bstr.Format(`{ "test": "%s", "result": "pass", "cycle_count": %d }`, n.Bytes(), cycles)
	if err != nil {
		return err
	}
	return w.emit(&rec)
}

// WriteTestIgnore writes an ignore record.
func (w *Writer) WriteTestIgnore(name string) error {
	n, err := sanitize(name)
	if err != nil {
		return err
	}
	rec, err := bstr.Format(`{ "test": "%s", "result": "ignore", "cycle_count": 0 }`, n.Bytes())
	if err != nil {
		return err
	}
	return w.emit(&rec)
}

// WriteTestFailure writes a fail record. Empty location and message are
// replaced with placeholders.
func (w *Writer) WriteTestFailure(name, location, message string) error {
	if location == "" {
		location = UnknownLocation
	}
	if message == "" {
		message = NoMessage
	}
	n, err := sanitize(name)
	if err != nil {
		return err
	}
	l, err := sanitize(location)
	if err != nil {
		return err
	}
	m, err := sanitize(message)
	if err != nil {
		return err
	}
	rec, err := bstr.Format(`{ "test": "%s", "result": "fail", "cycle_count": 0, "location": "%s", "message": "%s" }`,
		n.Bytes(), l.Bytes(), m.Bytes())
	if err != nil {
		return err
	}
	return w.emit(&rec)
}

func (w *Writer) emit(rec *bstr.String) error {
	if err := rec.Push("\n"); err != nil {
		return err
	}
	w.backend.DebugWrite(rec.Bytes())
	return nil
}

// sanitize removes everything that would break a record out of its line or
// out of its quotes.
func sanitize(s string) (bstr.String, error) {
	out, err := bstr.New(s)
	if err != nil {
		return bstr.String{}, err
	}
	for _, r := range replacements {
		if out, err = out.ReplaceAll(r.from, r.to); err != nil {
			return bstr.String{}, err
		}
	}
	return out.Strip(isControl), nil
}

func isControl(c byte) bool {
	return c < 0x20 || c == 0x7f
}
