// Package config parses the optional gardien CLI configuration file.
// Everything here can also be supplied through GARDIEN_* environment
// variables, which take precedence; the file exists for operators who
// prefer not to export state into their shell.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the configuration for the gardien CLI.
type Config struct {
	// Address is the backend base URL.
	Address string `hcl:"address,optional"`

	// SessionFile is where the durable session record lives. Defaults to
	// ~/.gardien/session.json.
	SessionFile string `hcl:"session_file,optional"`

	// ClientTimeout is the per-request timeout, in seconds.
	ClientTimeout int `hcl:"client_timeout,optional"`

	// MaxRetries is the retry count for 5xx responses.
	MaxRetries int `hcl:"max_retries,optional"`

	LogLevel           string `hcl:"log_level,optional"`
	LogFile            string `hcl:"log_file,optional"`
	LogRotateMegabytes int    `hcl:"log_rotate_megabytes,optional"`
	LogRotateMaxFiles  int    `hcl:"log_rotate_max_files,optional"`
}

// Load reads and parses the configuration file at path. A missing file is
// not an error: defaults apply.
func Load(path string) (*Config, error) {
	var config Config

	if path == "" {
		return &config, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &config, nil
	}

	if err := hclsimple.DecodeFile(path, nil, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	return &config, nil
}

// DefaultSessionFile returns the default location of the session record.
func DefaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gardien", "session.json")
	}
	return filepath.Join(home, ".gardien", "session.json")
}
