package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mantonx/seasontracker/internal/logger"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "SEASONTRACKER_CONFIG_PATH"

// Config holds the complete application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server" json:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Security configuration
	Security SecurityConfig `yaml:"security" json:"security"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Module configuration
	Modules ModulesConfig `yaml:"modules" json:"modules"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host" env:"SEASONTRACKER_HOST" default:"0.0.0.0"`
	Port            int           `yaml:"port" json:"port" env:"SEASONTRACKER_PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" env:"SEASONTRACKER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" env:"SEASONTRACKER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"SEASONTRACKER_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" json:"max_header_bytes" env:"SEASONTRACKER_MAX_HEADER_BYTES" default:"1048576"`
	EnableCORS      bool          `yaml:"enable_cors" json:"enable_cors" env:"SEASONTRACKER_ENABLE_CORS" default:"true"`
	TrustedProxies  []string      `yaml:"trusted_proxies" json:"trusted_proxies" env:"SEASONTRACKER_TRUSTED_PROXIES"`
	RequireHTTPS    bool          `yaml:"require_https" json:"require_https" env:"SEASONTRACKER_REQUIRE_HTTPS" default:"false"`
}

// DatabaseConfig holds connection and pool settings
type DatabaseConfig struct {
	Type            string        `yaml:"type" json:"type" env:"SEASONTRACKER_DATABASE_TYPE" default:"sqlite"`
	URL             string        `yaml:"url" json:"url" env:"SEASONTRACKER_DATABASE_URL"`
	Host            string        `yaml:"host" json:"host" env:"SEASONTRACKER_POSTGRES_HOST" default:"localhost"`
	Port            int           `yaml:"port" json:"port" env:"SEASONTRACKER_POSTGRES_PORT" default:"5432"`
	Username        string        `yaml:"username" json:"username" env:"SEASONTRACKER_POSTGRES_USER" default:"seasontracker"`
	Password        string        `yaml:"password" json:"-" env:"SEASONTRACKER_POSTGRES_PASSWORD"`
	Database        string        `yaml:"database" json:"database" env:"SEASONTRACKER_POSTGRES_DB" default:"seasontracker"`
	SSLMode         string        `yaml:"ssl_mode" json:"ssl_mode" env:"SEASONTRACKER_POSTGRES_SSLMODE" default:"disable"`
	DataDir         string        `yaml:"data_dir" json:"data_dir" env:"SEASONTRACKER_DATA_DIR" default:"./data"`
	DatabasePath    string        `yaml:"database_path" json:"database_path" env:"SEASONTRACKER_DATABASE_PATH"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" env:"SEASONTRACKER_DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" env:"SEASONTRACKER_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" env:"SEASONTRACKER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time" env:"SEASONTRACKER_DB_CONN_MAX_IDLE_TIME" default:"15m"`
	LogQueries      bool          `yaml:"log_queries" json:"log_queries" env:"SEASONTRACKER_DB_LOG_QUERIES" default:"false"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"SEASONTRACKER_LOG_LEVEL" default:"info"`
	Format string `yaml:"format" json:"format" env:"SEASONTRACKER_LOG_FORMAT" default:"text"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	RateLimitEnabled bool     `yaml:"rate_limit_enabled" json:"rate_limit_enabled" env:"SEASONTRACKER_RATE_LIMIT" default:"true"`
	RateLimitRPM     int      `yaml:"rate_limit_rpm" json:"rate_limit_rpm" env:"SEASONTRACKER_RATE_LIMIT_RPM" default:"600"`
	RateLimitBurst   int      `yaml:"rate_limit_burst" json:"rate_limit_burst" env:"SEASONTRACKER_RATE_LIMIT_BURST" default:"20"`
	AllowedOrigins   []string `yaml:"allowed_origins" json:"allowed_origins" env:"SEASONTRACKER_ALLOWED_ORIGINS"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" env:"SEASONTRACKER_METRICS_ENABLED" default:"true"`
	Path    string `yaml:"path" json:"path" env:"SEASONTRACKER_METRICS_PATH" default:"/metrics"`
}

// ModulesConfig lists modules that should not be loaded
type ModulesConfig struct {
	Disabled []string `yaml:"disabled" json:"disabled" env:"SEASONTRACKER_DISABLED_MODULES"`
}

// ConfigManager manages application configuration with hot-reload support
type ConfigManager struct {
	config     *Config
	configPath string
	watchers   []ConfigWatcher
	mu         sync.RWMutex
}

// ConfigWatcher is called when configuration changes
type ConfigWatcher func(oldConfig, newConfig *Config)

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config:   DefaultConfig(),
		watchers: make([]ConfigWatcher, 0),
	}
}

// DefaultConfig returns the configuration described by the `default` tags.
func DefaultConfig() *Config {
	cfg := &Config{}
	// Defaults are compile-time literals, a failure here is a programming error.
	if err := applyDefaults(reflect.ValueOf(cfg).Elem()); err != nil {
		panic(fmt.Sprintf("config: invalid default tag: %v", err))
	}
	applyDerivedConfig(cfg)
	return cfg
}

// LoadConfig loads configuration from file and environment variables.
// Precedence is defaults, then the file, then the environment.
func (cm *ConfigManager) LoadConfig(configPath string) error {
	cm.mu.Lock()

	oldConfig := cm.config.clone()
	cm.configPath = configPath

	newConfig := &Config{}
	if err := applyDefaults(reflect.ValueOf(newConfig).Elem()); err != nil {
		cm.mu.Unlock()
		return err
	}

	if configPath != "" && fileExists(configPath) {
		if err := loadFromFile(configPath, newConfig); err != nil {
			cm.mu.Unlock()
			return fmt.Errorf("failed to load config from file: %w", err)
		}
		logger.Info("configuration loaded from file", "path", configPath)
	}

	if err := loadStructFromEnv(reflect.ValueOf(newConfig).Elem()); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := Validate(newConfig); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDerivedConfig(newConfig)
	cm.config = newConfig
	watchers := append([]ConfigWatcher(nil), cm.watchers...)
	cm.mu.Unlock()

	for _, watcher := range watchers {
		watcher(oldConfig, newConfig.clone())
	}
	return nil
}

// Reload re-reads the file last passed to LoadConfig.
func (cm *ConfigManager) Reload() error {
	return cm.LoadConfig(cm.Path())
}

// Path returns the config file path in use, possibly empty.
func (cm *ConfigManager) Path() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// GetConfig returns a copy of the current configuration. Slices are copied
// too, so callers may modify the result freely.
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.clone()
}

func (c *Config) clone() *Config {
	out := *c
	out.Server.TrustedProxies = cloneStrings(c.Server.TrustedProxies)
	out.Security.AllowedOrigins = cloneStrings(c.Security.AllowedOrigins)
	out.Modules.Disabled = cloneStrings(c.Modules.Disabled)
	return &out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// AddWatcher adds a configuration change watcher
func (cm *ConfigManager) AddWatcher(watcher ConfigWatcher) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.watchers = append(cm.watchers, watcher)
}

// SaveConfig saves the current configuration to the file it was loaded from
func (cm *ConfigManager) SaveConfig() error {
	return cm.SaveConfigAs(cm.Path())
}

// SaveConfigAs writes the current configuration to path. The format follows
// the extension (.yaml, .yml or .json).
func (cm *ConfigManager) SaveConfigAs(path string) error {
	if path == "" {
		return fmt.Errorf("no config path set")
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return saveToFile(path, cm.config)
}

// Helper methods

func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	case ".json":
		return json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

func saveToFile(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	var data []byte
	var err error

	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func applyDefaults(v reflect.Value) error {
	return walkTags(v, "default", func(string) (string, bool) { return "", true })
}

func loadStructFromEnv(v reflect.Value) error {
	return walkTags(v, "env", os.LookupEnv)
}

// walkTags sets every field carrying tag. For "default" the tag value itself
// is the input; for "env" the tag names the variable passed to lookup.
func walkTags(v reflect.Value, tag string, lookup func(string) (string, bool)) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := walkTags(field, tag, lookup); err != nil {
				return err
			}
			continue
		}

		tagValue := fieldType.Tag.Get(tag)
		if tagValue == "" {
			continue
		}

		value := tagValue
		if tag == "env" {
			envValue, ok := lookup(tagValue)
			if !ok || envValue == "" {
				continue
			}
			value = envValue
		}

		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("failed to set field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(intVal)
		}
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %v", field.Type())
		}
		values := strings.Split(value, ",")
		for i, v := range values {
			values[i] = strings.TrimSpace(v)
		}
		field.Set(reflect.ValueOf(values))
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate checks a configuration for values the server cannot run with.
func Validate(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Type != "sqlite" && config.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}

	if config.Database.MaxOpenConns < 0 || config.Database.MaxIdleConns < 0 {
		return fmt.Errorf("connection pool sizes must not be negative")
	}

	if config.Security.RateLimitEnabled && config.Security.RateLimitRPM <= 0 {
		return fmt.Errorf("invalid rate limit: %d requests per minute", config.Security.RateLimitRPM)
	}

	if config.Metrics.Enabled && !strings.HasPrefix(config.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %q", config.Metrics.Path)
	}

	return nil
}

func applyDerivedConfig(config *Config) {
	if config.Database.DatabasePath == "" && config.Database.Type == "sqlite" {
		config.Database.DatabasePath = filepath.Join(config.Database.DataDir, "seasontracker.db")
	}
	if config.Security.RateLimitBurst <= 0 {
		config.Security.RateLimitBurst = 1
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
