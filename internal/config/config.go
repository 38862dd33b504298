package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all modelbench configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Monitoring platform connection
	Platform PlatformConfig `yaml:"platform"`

	// S3 destination for generated datasets
	Storage StorageConfig `yaml:"storage"`

	// Dataset generation
	Generate GenerateConfig `yaml:"generate"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// PlatformConfig configures the monitoring platform API.
type PlatformConfig struct {
	Host         string `yaml:"host"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	ProjectID    string `yaml:"project_id"`
	WorkspaceID  string `yaml:"workspace_id"`
	DataPlaneID  string `yaml:"data_plane_id"`
}

// StorageConfig configures the S3 bucket the generators publish to and
// the platform's connectors read from.
type StorageConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
	RoleARN         string `yaml:"role_arn"`
	ExternalID      string `yaml:"external_id"`
}

// GenerateConfig configures the synthetic dataset generators.
type GenerateConfig struct {
	BaseDir       string `yaml:"base_dir"`
	HousingCSV    string `yaml:"housing_csv"`
	Seed          uint64 `yaml:"seed"`
	PastDays      int    `yaml:"past_days"`
	FutureDays    int    `yaml:"future_days"`
	ReferenceDays int    `yaml:"reference_days"`
	Concurrency   int    `yaml:"concurrency"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "modelbench",
		Version: "1.0.0",

		Platform: PlatformConfig{
			Host: "https://platform.example.com",
		},

		Storage: StorageConfig{
			Endpoint: "s3.amazonaws.com",
			Region:   "us-east-1",
			UseSSL:   true,
		},

		Generate: GenerateConfig{
			BaseDir:       "data",
			Seed:          42,
			PastDays:      90,
			FutureDays:    90,
			ReferenceDays: 14,
			Concurrency:   4,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "modelbench.log",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. Credentials
// in the environment always win over the file.
func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("MODELBENCH_HOST"); host != "" {
		c.Platform.Host = host
	}
	if id := os.Getenv("MODELBENCH_CLIENT_ID"); id != "" {
		c.Platform.ClientID = id
	}
	if secret := os.Getenv("MODELBENCH_CLIENT_SECRET"); secret != "" {
		c.Platform.ClientSecret = secret
	}
	if project := os.Getenv("MODELBENCH_PROJECT_ID"); project != "" {
		c.Platform.ProjectID = project
	}

	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		c.Storage.AccessKeyID = key
	}
	if secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); secret != "" {
		c.Storage.SecretAccessKey = secret
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.Storage.Region = region
	}
	if bucket := os.Getenv("MODELBENCH_BUCKET"); bucket != "" {
		c.Storage.Bucket = bucket
	}
}

// HasServiceAccount reports whether client-credential auth is configured.
func (c *Config) HasServiceAccount() bool {
	return c.Platform.ClientID != "" && c.Platform.ClientSecret != ""
}

// ValidateStorage checks the fields the publisher needs.
func (c *Config) ValidateStorage() error {
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket not configured (set storage.bucket or MODELBENCH_BUCKET)")
	}
	if c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "" {
		return fmt.Errorf("storage credentials not configured (set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY)")
	}
	return nil
}

// ValidatePlatform checks the fields the platform client needs.
func (c *Config) ValidatePlatform() error {
	if c.Platform.Host == "" {
		return fmt.Errorf("platform host not configured (set platform.host or MODELBENCH_HOST)")
	}
	return nil
}
