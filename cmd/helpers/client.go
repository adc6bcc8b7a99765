package helpers

import (
	"fmt"
	"time"

	"github.com/carthage-creances/gardien/api"
	"github.com/carthage-creances/gardien/config"
	"github.com/carthage-creances/gardien/credstore"
	"github.com/carthage-creances/gardien/logger"
	"github.com/carthage-creances/gardien/session"
)

var (
	configPath string
	manager    *session.Manager
)

// SetConfigPath points the helpers at a configuration file. Must be called
// before Manager.
func SetConfigPath(path string) {
	configPath = path
}

// Manager constructs (once) the session manager the CLI commands share:
// config file + environment -> API client + file-backed credential store.
func Manager() (*session.Manager, error) {
	if manager != nil {
		return manager, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	apiConfig := api.DefaultConfig()
	if apiConfig.Error != nil {
		return nil, fmt.Errorf("failed to build client configuration: %w", apiConfig.Error)
	}
	if cfg.Address != "" && api.ReadGardienVariable(api.EnvGardienAddress) == "" {
		apiConfig.Address = cfg.Address
	}
	if cfg.ClientTimeout > 0 {
		apiConfig.Timeout = time.Duration(cfg.ClientTimeout) * time.Second
	}
	if cfg.MaxRetries > 0 {
		apiConfig.MaxRetries = cfg.MaxRetries
	}

	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	// Turn off retries on the CLI unless asked for
	if api.ReadGardienVariable(api.EnvGardienMaxRetries) == "" && cfg.MaxRetries == 0 {
		client.SetMaxRetries(0)
	}

	sessionFile := cfg.SessionFile
	if v := api.ReadGardienVariable(api.EnvGardienSessionFile); v != "" {
		sessionFile = v
	}
	if sessionFile == "" {
		sessionFile = config.DefaultSessionFile()
	}

	store, err := credstore.NewFileStore(sessionFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	log := logger.New(buildLogConfig(cfg))

	m, err := session.NewManager(client, store, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	manager = m
	return manager, nil
}

func buildLogConfig(cfg *config.Config) *logger.Config {
	logConfig := logger.DefaultConfig()
	if cfg.LogLevel != "" {
		logConfig.Level = logger.ParseLogLevel(cfg.LogLevel)
	} else {
		logConfig.Level = logger.WarnLevel
	}
	if cfg.LogFile != "" {
		logConfig.FileConfig = &logger.FileConfig{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogRotateMegabytes,
			MaxBackups: cfg.LogRotateMaxFiles,
		}
	}
	return logConfig
}
