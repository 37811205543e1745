package harness

import (
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ktest/arch"
)

// Environment variables read by LoadConfig.
const (
	EnvGroup        = "KTEST_GROUP"
	EnvStrictExit   = "KTEST_STRICT_EXIT"
	EnvBackend      = "KTEST_BACKEND"
	EnvPortDevice   = "KTEST_PORT_DEVICE"
	EnvSerialDevice = "KTEST_SERIAL_DEVICE"
	EnvDebug        = "KTEST_DEBUG"
)

// Config holds the harness settings.
type Config struct {
	// Group names the test group. Empty means "default".
	Group string
	// StrictExit makes the run exit with arch.ExitFailed when any test
	// failed. By default a completed run always exits with
	// arch.ExitSuccess and failures are only visible in the stream.
	StrictExit bool
	// Arch locates the backend devices.
	Arch arch.Options
	// Logger receives diagnostics, never the structured stream. Nil
	// discards them.
	Logger *zap.Logger
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() Config {
	cfg := Config{
		Group: os.Getenv(EnvGroup),
		Arch: arch.Options{
			Backend:      os.Getenv(EnvBackend),
			PortDevice:   os.Getenv(EnvPortDevice),
			SerialDevice: os.Getenv(EnvSerialDevice),
		},
	}
	if v, err := strconv.ParseBool(os.Getenv(EnvStrictExit)); err == nil {
		cfg.StrictExit = v
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if v, err := strconv.ParseBool(os.Getenv(EnvDebug)); err == nil && v {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	if l, err := zcfg.Build(); err == nil {
		cfg.Logger = l
	}
	return cfg
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
