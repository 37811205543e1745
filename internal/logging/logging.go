// Package logging builds the driver's diagnostic logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvDebug forces debug logging when set to "1"
const EnvDebug = "KTEST_DEBUG"

// New returns a production zap logger writing to stderr. verbose, or
// KTEST_DEBUG=1, lowers the level to debug.
func New(verbose bool) (*zap.Logger, error) {
	if os.Getenv(EnvDebug) == "1" {
		verbose = true
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
