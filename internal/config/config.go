// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type StorageConfig struct {
	// Driver is "fs" or "s3".
	Driver    string `yaml:"driver"`
	Directory string `yaml:"directory"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
}

type EmailConfig struct {
	Region          string   `yaml:"region"`
	Sender          string   `yaml:"sender"`
	Recipients      []string `yaml:"recipients"`
	AccessKeyID     string   `yaml:"-"` // Loaded from environment
	SecretAccessKey string   `yaml:"-"` // Loaded from environment
}

// Enabled reports whether completion notices can be sent.
func (c EmailConfig) Enabled() bool {
	return c.Sender != "" && c.Region != "" && len(c.Recipients) > 0 &&
		c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Range           string `yaml:"range"`
	CredentialsFile string `yaml:"credentials_file"`
}

type SyncTown struct {
	Name     string `yaml:"name"`
	TownFile string `yaml:"town_file"`
}

type SyncConfig struct {
	Cron  string     `yaml:"cron"`
	Towns []SyncTown `yaml:"towns"`
}

type UploadConfig struct {
	MaxBytes       int64         `yaml:"max_bytes"`
	Cooldown       time.Duration `yaml:"cooldown"`
	MaxPerHour     int           `yaml:"max_per_hour"`
	MaxTownPerHour int           `yaml:"max_town_per_hour"`
}

type Config struct {
	App struct {
		Name         string `yaml:"name"`
		Environment  string `yaml:"environment"`
		Port         int    `yaml:"port"`
		BaseURL      string `yaml:"base_url"`
		LogLevel     string `yaml:"log_level"`
		TrustProxy   bool   `yaml:"trust_proxy"`
		APITokenHash string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database     DatabaseConfig `yaml:"database"`
	Translations struct {
		Path string `yaml:"path"`
	} `yaml:"translations"`
	Storage StorageConfig `yaml:"storage"`
	Email   EmailConfig   `yaml:"email"`
	Sheets  SheetsConfig  `yaml:"sheets"`
	Sync    SyncConfig    `yaml:"sync"`
	Uploads UploadConfig  `yaml:"uploads"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.applyEnvironment()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse decodes yaml configuration without touching the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return &cfg, nil
}

// Sensitive values and the shared sheet settings come from the environment
// so the server and the schedule command read the same variables.
func (c *Config) applyEnvironment() {
	c.App.APITokenHash = os.Getenv("APP_API_TOKEN_HASH")
	c.Email.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	c.Email.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	if c.Sheets.SpreadsheetID == "" {
		c.Sheets.SpreadsheetID = os.Getenv(EnvMasterScheduleID)
	}
	if c.Sheets.Range == "" {
		c.Sheets.Range = os.Getenv(EnvRangeName)
	}
	if c.Sheets.CredentialsFile == "" {
		c.Sheets.CredentialsFile = os.Getenv(EnvGoogleCredentials)
	}
	if c.Translations.Path == "" {
		c.Translations.Path = os.Getenv(EnvTranslationFile)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.App.LogLevel = level
	}
}

func (c *Config) applyDefaults() {
	if c.Translations.Path == "" {
		c.Translations.Path = DefaultTranslationFile
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "fs"
	}
	if c.Storage.Driver == "fs" && c.Storage.Directory == "" {
		c.Storage.Directory = "data/outputs"
	}
	if c.Uploads.MaxBytes == 0 {
		c.Uploads.MaxBytes = 10 << 20
	}
	if c.Uploads.Cooldown == 0 {
		c.Uploads.Cooldown = 5 * time.Second
	}
	if c.Uploads.MaxPerHour == 0 {
		c.Uploads.MaxPerHour = 60
	}
	if c.Uploads.MaxTownPerHour == 0 {
		c.Uploads.MaxTownPerHour = 30
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	case "":
		return fmt.Errorf("database driver is required")
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "fs":
		if c.Storage.Directory == "" {
			return fmt.Errorf("storage directory is required for fs")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for s3")
		}
		if c.Storage.Region == "" {
			return fmt.Errorf("storage region is required for s3")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}

	if len(c.Sync.Towns) > 0 {
		if strings.TrimSpace(c.Sync.Cron) == "" {
			return fmt.Errorf("sync cron is required when sync towns are configured")
		}
		if _, err := cron.ParseStandard(c.Sync.Cron); err != nil {
			return fmt.Errorf("invalid sync cron %q: %w", c.Sync.Cron, err)
		}
		if c.Sheets.SpreadsheetID == "" || c.Sheets.Range == "" {
			return fmt.Errorf("sheets spreadsheet_id and range are required for sync")
		}
		for _, town := range c.Sync.Towns {
			if strings.TrimSpace(town.Name) == "" || strings.TrimSpace(town.TownFile) == "" {
				return fmt.Errorf("sync towns need a name and town_file")
			}
		}
	}

	if c.Uploads.MaxBytes < 0 || c.Uploads.MaxPerHour < 0 || c.Uploads.MaxTownPerHour < 0 || c.Uploads.Cooldown < 0 {
		return fmt.Errorf("upload limits must not be negative")
	}
	return nil
}
