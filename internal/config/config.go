package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/username/attendance-tracker/internal/calendar"
	"github.com/username/attendance-tracker/pkg/dateutil"
)

// Store types
const (
	StoreFile      = "file"
	StorePostgres  = "postgres"
	StorePostgREST = "postgrest"
)

// Config represents application configuration
type Config struct {
	OwnerID string       `mapstructure:"owner_id"`
	Store   StoreConfig  `mapstructure:"store"`
	Policy  PolicyConfig `mapstructure:"policy"`
	Daemon  DaemonConfig `mapstructure:"daemon"`
	Server  ServerConfig `mapstructure:"server"`
}

// StoreConfig selects and configures the record store
type StoreConfig struct {
	Type      string          `mapstructure:"type"` // "file", "postgres" or "postgrest"
	File      FileConfig      `mapstructure:"file"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	PostgREST PostgRESTConfig `mapstructure:"postgrest"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// FileConfig is the local file store; .yaml/.yml selects YAML
type FileConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig is the direct database store
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

// PostgRESTConfig is the hosted REST backend
type PostgRESTConfig struct {
	URL             string `mapstructure:"url"`
	Table           string `mapstructure:"table"`
	APIKey          string `mapstructure:"api_key"`
	AccessToken     string `mapstructure:"access_token"`  // Static bearer token
	TokenCommand    string `mapstructure:"token_command"` // Or a command printing one
	RefreshInterval string `mapstructure:"refresh_interval"`
}

// CacheConfig enables the optional Redis read cache; empty Addr disables it
type CacheConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      string `mapstructure:"ttl"`
}

// PolicyConfig mirrors the office-hours settings
type PolicyConfig struct {
	WorkingDays      []string `mapstructure:"working_days"`
	DailyTargetHours float64  `mapstructure:"daily_target_hours"`
	HalfDayHours     float64  `mapstructure:"half_day_hours"`
	LateThreshold    string   `mapstructure:"late_threshold"`   // HH:MM
	DefaultCheckIn   string   `mapstructure:"default_check_in"` // HH:MM
	CalendarFile     string   `mapstructure:"calendar_file"`    // Optional dated overrides
}

// DaemonConfig represents daemon mode configuration
type DaemonConfig struct {
	RefreshInterval string `mapstructure:"refresh_interval"`
	ReminderTime    string `mapstructure:"reminder_time"` // HH:MM, local time
	LogFile         string `mapstructure:"log_file"`
	LogLevel        string `mapstructure:"log_level"`
	SystemTray      bool   `mapstructure:"system_tray"` // Show system tray icon (Windows only)
}

// ServerConfig is the HTTP API
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load loads configuration from file. A .env file next to the process,
// if present, is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.attendance-tracker")
		v.AddConfigPath("/etc/attendance-tracker")
	}

	setDefaults(v)

	// Read environment variables
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.type", StoreFile)
	v.SetDefault("store.file.path", "attendance.json")
	v.SetDefault("store.postgrest.table", "attendance")
	v.SetDefault("policy.working_days", []string{"sunday", "monday", "tuesday", "wednesday", "thursday"})
	v.SetDefault("policy.daily_target_hours", 8)
	v.SetDefault("policy.half_day_hours", 4)
	v.SetDefault("policy.late_threshold", "10:05")
	v.SetDefault("policy.default_check_in", "09:00")
	v.SetDefault("server.addr", ":8080")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}

	switch c.Store.Type {
	case StoreFile, "":
		if c.Store.File.Path == "" {
			return fmt.Errorf("store.file.path is required for file store")
		}
	case StorePostgres:
		if c.Store.Postgres.URL == "" {
			return fmt.Errorf("store.postgres.url is required for postgres store")
		}
	case StorePostgREST:
		if c.Store.PostgREST.URL == "" {
			return fmt.Errorf("store.postgrest.url is required for postgrest store")
		}
		if c.Store.PostgREST.AccessToken == "" && c.Store.PostgREST.TokenCommand == "" {
			return fmt.Errorf("store.postgrest needs access_token or token_command")
		}
	default:
		return fmt.Errorf("store.type must be 'file', 'postgres' or 'postgrest', got '%s'", c.Store.Type)
	}

	days, err := calendar.ParseWeekdays(c.Policy.WorkingDays)
	if err != nil {
		return fmt.Errorf("policy.working_days: %w", err)
	}
	if len(days) == 0 {
		return fmt.Errorf("policy.working_days must name at least one day")
	}

	if c.Policy.DailyTargetHours <= 0 || c.Policy.DailyTargetHours > 24 {
		return fmt.Errorf("policy.daily_target_hours must be between 0 and 24")
	}
	if c.Policy.HalfDayHours <= 0 || c.Policy.HalfDayHours >= c.Policy.DailyTargetHours {
		return fmt.Errorf("policy.half_day_hours must be positive and below daily_target_hours")
	}

	if _, err := dateutil.ParseClock(c.Policy.LateThreshold); err != nil {
		return fmt.Errorf("policy.late_threshold: %w", err)
	}
	if _, err := dateutil.ParseClock(c.Policy.DefaultCheckIn); err != nil {
		return fmt.Errorf("policy.default_check_in: %w", err)
	}
	if c.Daemon.ReminderTime != "" {
		if _, err := dateutil.ParseClock(c.Daemon.ReminderTime); err != nil {
			return fmt.Errorf("daemon.reminder_time: %w", err)
		}
	}

	return nil
}

// GetWorkingDays returns the parsed working weekdays
func (c *PolicyConfig) GetWorkingDays() []time.Weekday {
	days, err := calendar.ParseWeekdays(c.WorkingDays)
	if err != nil || len(days) == 0 {
		return calendar.DefaultWorkingWeekdays
	}
	return days
}

// GetLateThresholdMinutes returns the late threshold as minutes after midnight. Default: 10:05
func (c *PolicyConfig) GetLateThresholdMinutes() int {
	return clockOr(c.LateThreshold, 10*60+5)
}

// GetDefaultCheckInMinutes returns the default check-in as minutes after midnight. Default: 09:00
func (c *PolicyConfig) GetDefaultCheckInMinutes() int {
	return clockOr(c.DefaultCheckIn, 9*60)
}

// GetRefreshInterval returns how often the daemon refetches the month
func (c *DaemonConfig) GetRefreshInterval() time.Duration {
	return durationOr(c.RefreshInterval, 5*time.Minute)
}

// GetReminderTime returns the daily pending-log reminder time.
// Returns hour and minute (0-23, 0-59). Default: 18:00
func (c *DaemonConfig) GetReminderTime() (hour, minute int) {
	m := clockOr(c.ReminderTime, 18*60)
	return m / 60, m % 60
}

// GetRefreshInterval returns the token refresh interval. Default: 1h
func (c *PostgRESTConfig) GetRefreshInterval() time.Duration {
	return durationOr(c.RefreshInterval, time.Hour)
}

// GetTTL returns how long cached ranges live. Default: 10m
func (c *CacheConfig) GetTTL() time.Duration {
	return durationOr(c.TTL, 10*time.Minute)
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.OwnerID = os.ExpandEnv(c.OwnerID)
	c.Store.Postgres.URL = os.ExpandEnv(c.Store.Postgres.URL)
	c.Store.PostgREST.URL = os.ExpandEnv(c.Store.PostgREST.URL)
	c.Store.PostgREST.APIKey = os.ExpandEnv(c.Store.PostgREST.APIKey)
	c.Store.PostgREST.AccessToken = os.ExpandEnv(c.Store.PostgREST.AccessToken)
	c.Store.Cache.Addr = os.ExpandEnv(c.Store.Cache.Addr)
	c.Store.Cache.Password = os.ExpandEnv(c.Store.Cache.Password)
}

func clockOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	m, err := dateutil.ParseClock(s)
	if err != nil {
		return fallback
	}
	return m
}

func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
