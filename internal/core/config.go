package core

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jo-hoe/cartoonize/internal/backend/database"
	"github.com/jo-hoe/cartoonize/internal/backend/session"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = 5000
	defaultLogFormat      = "text"
	defaultLogLevel       = "info"
	defaultUploadDir      = "static/uploads"
	defaultMaxUploadBytes = 20 << 20
	defaultSQLiteFile     = "users.db"
	defaultSessionTTL     = 24 * time.Hour
	defaultSVGSize        = 512
)

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Session struct {
	Store         string        `yaml:"store"`
	Secret        string        `yaml:"secret"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddress  string        `yaml:"redisAddress"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
	CookieSecure  bool          `yaml:"cookieSecure"`
}

type SVG struct {
	FallbackWidth  int `yaml:"fallbackWidth"`
	FallbackHeight int `yaml:"fallbackHeight"`
}

type ServiceConfig struct {
	Port           int      `yaml:"port"`
	LogFormat      string   `yaml:"logFormat"`
	LogLevel       string   `yaml:"logLevel"`
	UploadDir      string   `yaml:"uploadDir"`
	MaxUploadBytes int64    `yaml:"maxUploadBytes"`
	Database       Database `yaml:"database"`
	Session        Session  `yaml:"session"`
	SVG            SVG      `yaml:"svg"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{}
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration from the specified YAML file. A missing
// file yields the defaults; fields left out of the file keep their defaults.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("config file not found, using defaults", "path", configPath)
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config ServiceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	return &config, nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.UploadDir == "" {
		c.UploadDir = defaultUploadDir
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Database.Type == "" {
		c.Database.Type = database.TypeSQLite
	}
	if c.Database.ConnectionString == "" && c.Database.Type == database.TypeSQLite {
		c.Database.ConnectionString = defaultSQLiteFile
	}
	if c.Session.Store == "" {
		c.Session.Store = session.StoreMemory
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = defaultSessionTTL
	}
	if c.SVG.FallbackWidth == 0 {
		c.SVG.FallbackWidth = defaultSVGSize
	}
	if c.SVG.FallbackHeight == 0 {
		c.SVG.FallbackHeight = defaultSVGSize
	}
}

// Validate checks values that cannot be corrected by defaults.
func (c *ServiceConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("maxUploadBytes must not be negative: %d", c.MaxUploadBytes)
	}
	switch c.Database.Type {
	case database.TypeSQLite, database.TypePostgres:
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.ConnectionString == "" {
		return fmt.Errorf("database connectionString is required for %s", c.Database.Type)
	}
	switch c.Session.Store {
	case session.StoreMemory:
	case session.StoreRedis:
		if c.Session.RedisAddress == "" {
			return fmt.Errorf("session.redisAddress is required for the redis store")
		}
	default:
		return fmt.Errorf("unsupported session store: %s", c.Session.Store)
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session ttl must be positive: %s", c.Session.TTL)
	}
	if c.SVG.FallbackWidth < 0 || c.SVG.FallbackHeight < 0 {
		return fmt.Errorf("svg fallback size must be positive")
	}
	return nil
}

// ParseLogLevel maps a config log level onto slog.
func ParseLogLevel(level string) (slog.Level, error) {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", level)
	}
	return parsed, nil
}
