package logger

import (
	"io"
	"os"
)

// FileConfig configures rotated file output.
type FileConfig struct {
	Filename   string
	MaxSize    int // megabytes
	MaxAge     int // days
	MaxBackups int
	Compress   bool
}

// Config holds the configuration for the logger
type Config struct {
	Level       LogLevel
	Output      io.Writer
	Environment string // "development" or "production"
	Subsystem   string
	FileConfig  *FileConfig
}

// DefaultConfig returns a default configuration suitable for development:
// human-readable console output on stderr, everything enabled.
func DefaultConfig() *Config {
	return &Config{
		Level:       TraceLevel,
		Output:      os.Stderr,
		Environment: "development",
	}
}

// ProductionConfig returns a JSON configuration with rotated file logging.
func ProductionConfig(appName string) *Config {
	return &Config{
		Level:       InfoLevel,
		Environment: "production",
		FileConfig: &FileConfig{
			Filename:   "logs/" + appName + ".log",
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 10,
			Compress:   true,
		},
	}
}
