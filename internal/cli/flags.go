package cli

import (
	"time"

	"ktest/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	Processors int
	Timeout    time.Duration
	Emulator   string
	Kernel     string
	ImagePath  string
	NameFilter string
	TestCases  bool
	FailFast   bool
	OnlyFailed bool
	OpenFaills bool
	MySQL      bool
	Host       bool
	StrictExit bool
	Fresh      bool
	Verbose    bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Processors: f.Processors,
		Timeout:    f.Timeout,
		Emulator:   f.Emulator,
		Kernel:     f.Kernel,
		ImagePath:  f.ImagePath,
		NameFilter: f.NameFilter,
		TestCases:  f.TestCases,
		FailFast:   f.FailFast,
		OnlyFailed: f.OnlyFailed,
		OpenFaills: f.OpenFaills,
		MySQL:      f.MySQL,
		Host:       f.Host,
		StrictExit: f.StrictExit,
		Fresh:      f.Fresh,
		Verbose:    f.Verbose,
	}
}
