package core

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v6"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/jo-hoe/lesionscan/internal/backend/classifier"
	"github.com/jo-hoe/lesionscan/internal/backend/database"
)

const (
	defaultPort             = 8080
	defaultModelTimeout     = 10 * time.Second
	defaultModelLoadTimeout = 2 * time.Minute
	defaultDatabaseTimeout  = 5 * time.Second
)

type Model struct {
	// URL of the ONNX artifact: gs://bucket/object, https://..., or a local path.
	URL             string        `yaml:"url" env:"MODEL_URL"`
	Generation      int64         `yaml:"generation" env:"MODEL_GENERATION"`
	CredentialsFile string        `yaml:"credentialsFile" env:"MODEL_CREDENTIALS_FILE"`
	InputName       string        `yaml:"inputName" env:"MODEL_INPUT_NAME"`
	OutputName      string        `yaml:"outputName" env:"MODEL_OUTPUT_NAME"`
	LibraryPath     string        `yaml:"libraryPath" env:"ONNXRUNTIME_LIB"`
	Timeout         time.Duration `yaml:"timeout" env:"MODEL_TIMEOUT"`
	LoadTimeout     time.Duration `yaml:"loadTimeout" env:"MODEL_LOAD_TIMEOUT"`
}

type Database struct {
	Type             string        `yaml:"type" env:"DATABASE_TYPE"`
	ConnectionString string        `yaml:"connectionString" env:"DATABASE_CONNECTION_STRING"`
	Collection       string        `yaml:"collection" env:"DATABASE_COLLECTION"`
	CredentialsFile  string        `yaml:"credentialsFile" env:"DATABASE_CREDENTIALS_FILE"`
	Timeout          time.Duration `yaml:"timeout" env:"DATABASE_TIMEOUT"`
}

type Logging struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type ServiceConfig struct {
	Port     int      `yaml:"port" env:"PORT"`
	Model    Model    `yaml:"model"`
	Database Database `yaml:"database"`
	Logging  Logging  `yaml:"logging"`
}

// LoadConfig loads configuration from the specified YAML file. Environment
// variables override values from the file.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return finalizeConfig(&config)
}

// LoadConfigFromEnv builds the configuration from environment variables and defaults only.
func LoadConfigFromEnv() (*ServiceConfig, error) {
	return finalizeConfig(&ServiceConfig{})
}

func finalizeConfig(config *ServiceConfig) (*ServiceConfig, error) {
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Model.InputName == "" {
		c.Model.InputName = "input"
	}
	if c.Model.OutputName == "" {
		c.Model.OutputName = "output"
	}
	if c.Model.Timeout == 0 {
		c.Model.Timeout = defaultModelTimeout
	}
	if c.Model.LoadTimeout == 0 {
		c.Model.LoadTimeout = defaultModelLoadTimeout
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
		if c.Database.ConnectionString == "" {
			c.Database.ConnectionString = "file:lesionscan.db"
		}
	}
	if c.Database.Collection == "" {
		c.Database.Collection = database.DefaultCollection
	}
	if c.Database.Timeout == 0 {
		c.Database.Timeout = defaultDatabaseTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *ServiceConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.Model.URL == "" {
		return fmt.Errorf("model url is required")
	}
	if c.Model.Timeout < 0 || c.Model.LoadTimeout < 0 || c.Database.Timeout < 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if !slices.Contains(database.SupportedTypes(), c.Database.Type) {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("log format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (m Model) classifierConfig() classifier.Config {
	return classifier.Config{
		URL:             m.URL,
		Generation:      m.Generation,
		CredentialsFile: m.CredentialsFile,
		InputName:       m.InputName,
		OutputName:      m.OutputName,
		LibraryPath:     m.LibraryPath,
		Timeout:         m.Timeout,
	}
}

func (d Database) databaseConfig() database.Config {
	return database.Config{
		Type:             d.Type,
		ConnectionString: d.ConnectionString,
		Collection:       d.Collection,
		CredentialsFile:  d.CredentialsFile,
	}
}
