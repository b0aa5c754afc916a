package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const defaultSessionSecret = "default-secret-key-change-me"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Admin    AdminConfig    `mapstructure:"admin"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // sqlite, mysql, postgres
	Filename string `mapstructure:"filename"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSL      bool   `mapstructure:"ssl"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type SessionConfig struct {
	Secret string `mapstructure:"secret"`
	MaxAge int    `mapstructure:"max_age"`
}

type UploadConfig struct {
	Backend             string `mapstructure:"backend"` // local, cloudinary
	Path                string `mapstructure:"path"`
	CloudinaryCloudName string `mapstructure:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string `mapstructure:"cloudinary_api_key"`
	CloudinaryAPISecret string `mapstructure:"cloudinary_api_secret"`
}

type SheetsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	SheetName       string `mapstructure:"sheet_name"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Email    string `mapstructure:"email"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}

// Load reads config.yaml from dir (or the working directory) and applies
// QA_TRACKER_* environment overrides, e.g. QA_TRACKER_DATABASE_TYPE.
func Load(dir string) (*Config, error) {
	v := viper.New()

	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "config"
	}
	v.AddConfigPath(dir)
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("QA_TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.filename", "data/qa_tracker.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "qauser")
	v.SetDefault("database.password", "qapassword")
	v.SetDefault("database.name", "qa_tracker")
	v.SetDefault("database.ssl", false)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "qa_tracker")
	v.SetDefault("session.secret", defaultSessionSecret)
	v.SetDefault("session.max_age", 86400*7)
	v.SetDefault("upload.backend", "local")
	v.SetDefault("upload.path", "uploads/screenshots")
	v.SetDefault("upload.cloudinary_cloud_name", "")
	v.SetDefault("upload.cloudinary_api_key", "")
	v.SetDefault("upload.cloudinary_api_secret", "")
	v.SetDefault("sheets.enabled", false)
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.sheet_name", "Testers")
	v.SetDefault("sheets.credentials_file", "credentials.json")
	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.email", "")
	v.SetDefault("openai.api_key", "")
}

func (c *Config) validate() error {
	switch c.Database.Type {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	switch c.Upload.Backend {
	case "local", "cloudinary":
	default:
		return fmt.Errorf("unsupported upload backend %q", c.Upload.Backend)
	}
	if c.IsRelease() && (c.Session.Secret == "" || c.Session.Secret == defaultSessionSecret) {
		return errors.New("session secret must be set in release mode")
	}
	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return errors.New("sheets.spreadsheet_id is required when sheets sync is enabled")
	}
	return nil
}
