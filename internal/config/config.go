package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Environment variables read by LoadEnv
const (
	EnvEmulator     = "KTEST_EMULATOR"
	EnvEmulatorArgs = "KTEST_EMULATOR_ARGS"
	EnvKernel       = "KTEST_KERNEL"
	EnvTimeout      = "KTEST_TIMEOUT"
	EnvDBHost       = "DB_HOST"
	EnvDBPort       = "DB_PORT"
	EnvDBUsername   = "DB_USERNAME"
	EnvDBPassword   = "DB_PASSWORD"
	EnvDBDatabase   = "DB_DATABASE"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string
	ImagePath   string
	ImageSuffix string

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string
	LogDir         string
	InitrdDir      string

	// Execution settings
	Processors   int
	Timeout      time.Duration
	Emulator     string
	EmulatorArgs []string
	Kernel       string // Kernel booted by the emulator, relative to the project

	// Paths to ignore when scanning
	PathsToIgnore []string

	// Results database
	Database Database

	// Command flags
	Flags Flags
}

// Database holds the MySQL connection settings
type Database struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
}

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

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		ImagePath:      DefaultImagePath,
		ImageSuffix:    DefaultImageSuffix,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		LogDir:         DefaultLogDir,
		InitrdDir:      DefaultInitrdDir,
		Processors:     DefaultProcessors,
		Timeout:        DefaultTimeout,
		Emulator:       DefaultEmulator,
		Database: Database{
			Host:     "127.0.0.1",
			Port:     "3306",
			Username: "root",
			Name:     DefaultDatabaseName,
		},
		Flags: Flags{Processors: DefaultProcessors},
	}
	cfg.EmulatorArgs = append([]string(nil), DefaultEmulatorArgs...)
	// Copy default paths to ignore
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load creates a config, reads the environment and applies flags
func Load(flags Flags) (*Config, error) {
	cfg := New()
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyFlags(flags)
	return cfg, nil
}

// LoadEnv reads the project's .env file, if any, and then the process
// environment. Variables already set in the environment win over .env.
func (c *Config) LoadEnv() error {
	envPath := filepath.Join(c.ProjectPath, ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", envPath, err)
	}

	if v := os.Getenv(EnvEmulator); v != "" {
		c.Emulator = v
	}
	if v := os.Getenv(EnvEmulatorArgs); v != "" {
		args, err := shlex.Split(v, true)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvEmulatorArgs, err)
		}
		c.EmulatorArgs = args
	}
	setFromEnv(&c.Kernel, EnvKernel)
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}

	setFromEnv(&c.Database.Host, EnvDBHost)
	setFromEnv(&c.Database.Port, EnvDBPort)
	setFromEnv(&c.Database.Username, EnvDBUsername)
	setFromEnv(&c.Database.Password, EnvDBPassword)
	setFromEnv(&c.Database.Name, EnvDBDatabase)
	return nil
}

// ApplyFlags overrides settings with the flags that were given
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
	if flags.Timeout > 0 {
		c.Timeout = flags.Timeout
	}
	if flags.Emulator != "" {
		c.Emulator = flags.Emulator
	}
	if flags.Kernel != "" {
		c.Kernel = flags.Kernel
	}
	if flags.Host {
		c.Emulator = ""
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// parseTimeout accepts a Go duration or a number of seconds
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// GetImagePath returns the image directory, using the flag if provided
func (c *Config) GetImagePath() string {
	if c.Flags.ImagePath != "" {
		// If ImagePath is provided, make it relative to the project if it's not absolute
		if filepath.IsAbs(c.Flags.ImagePath) {
			return c.Flags.ImagePath
		}
		return filepath.Join(c.ProjectPath, c.Flags.ImagePath)
	}

	return filepath.Join(c.ProjectPath, c.ImagePath)
}

// GetOutputPath returns the full path to the output JSON file.
// Resolves to an absolute path so run and faills always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetLogPath returns the file the stream of image is captured to
func (c *Config) GetLogPath(image string) string {
	name := strings.TrimSuffix(filepath.Base(image), c.ImageSuffix) + ".log"
	return filepath.Join(c.ProjectPath, c.OutputJSONDir, c.LogDir, name)
}

// GetInitrdPath returns the initramfs built for image
func (c *Config) GetInitrdPath(image string) string {
	name := strings.TrimSuffix(filepath.Base(image), c.ImageSuffix) + ".cpio"
	return filepath.Join(c.ProjectPath, c.OutputJSONDir, c.InitrdDir, name)
}

// GetKernelPath returns the kernel path, or "" when none is configured
func (c *Config) GetKernelPath() string {
	if c.Kernel == "" || filepath.IsAbs(c.Kernel) {
		return c.Kernel
	}
	return filepath.Join(c.ProjectPath, c.Kernel)
}

// HostMode reports whether images run directly on the host instead of under an emulator
func (c *Config) HostMode() bool {
	return c.Emulator == ""
}

// GroupName returns the test group reported for image
func (c *Config) GroupName(image string) string {
	return strings.TrimSuffix(filepath.Base(image), c.ImageSuffix)
}

// DSN returns the MySQL data source name. Without withDatabase it connects
// to the server only, which is how the database itself is created.
func (d Database) DSN(withDatabase bool) string {
	mc := mysql.NewConfig()
	mc.User = d.Username
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, d.Port)
	mc.ParseTime = true
	if withDatabase {
		mc.DBName = d.Name
	}
	return mc.FormatDSN()
}
