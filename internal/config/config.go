package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Tehran must resolve on hosts without a zoneinfo database

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	// DefaultTimezone is the business timezone dates are read in.
	DefaultTimezone = "Asia/Tehran"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
	Health    HealthConfig    `mapstructure:"health"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
	return d.URL
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type SchedulerConfig struct {
	SweepCron    string `mapstructure:"sweep_cron"`
	ReminderCron string `mapstructure:"reminder_cron"`
	Timezone     string `mapstructure:"timezone"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// BusinessConfig carries the scheduling and status thresholds.
type BusinessConfig struct {
	OverdueGraceDays     int   `mapstructure:"overdue_grace_days"`
	DashboardOverdueDays int   `mapstructure:"dashboard_overdue_days"`
	DefaultIntervalDays  int   `mapstructure:"default_interval_days"`
	FirstDueMonths       int   `mapstructure:"first_due_months"`
	ReminderLeadDays     int   `mapstructure:"reminder_lead_days"`
	CurrencyPlaces       int32 `mapstructure:"currency_places"`
	ArchiveOnFullPayment bool  `mapstructure:"archive_on_full_payment"`
	UpcomingDays         int   `mapstructure:"upcoming_days"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"timeout"`
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Load reads configuration from defaults, an optional config file, .env and
// environment variables. Nested keys map to env names with underscores, so
// business.overdue_grace_days is read from BUSINESS_OVERDUE_GRACE_DAYS.
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.url", "")
	v.SetDefault("database.path", "installments.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "1h")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "30s")

	v.SetDefault("scheduler.sweep_cron", "0 0 0 * * *")
	v.SetDefault("scheduler.reminder_cron", "0 0 9 * * *")
	v.SetDefault("scheduler.timezone", DefaultTimezone)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.filename", "")

	v.SetDefault("business.overdue_grace_days", 0)
	v.SetDefault("business.dashboard_overdue_days", 30)
	v.SetDefault("business.default_interval_days", 30)
	v.SetDefault("business.first_due_months", 1)
	v.SetDefault("business.reminder_lead_days", 3)
	v.SetDefault("business.currency_places", 0)
	v.SetDefault("business.archive_on_full_payment", true)
	v.SetDefault("business.upcoming_days", 30)

	v.SetDefault("health.timeout", "5s")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite3")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	b := c.Business
	if b.OverdueGraceDays < 0 || b.DashboardOverdueDays < 0 {
		return fmt.Errorf("overdue thresholds must not be negative")
	}
	if b.DefaultIntervalDays <= 0 {
		return fmt.Errorf("business.default_interval_days must be greater than 0")
	}
	if b.FirstDueMonths < 0 || b.ReminderLeadDays < 0 || b.UpcomingDays <= 0 {
		return fmt.Errorf("business day and month offsets must not be negative")
	}
	if b.CurrencyPlaces < 0 || b.CurrencyPlaces > 4 {
		return fmt.Errorf("business.currency_places must be between 0 and 4")
	}

	// Validate scheduler expressions
	for name, spec := range map[string]string{
		"scheduler.sweep_cron":    c.Scheduler.SweepCron,
		"scheduler.reminder_cron": c.Scheduler.ReminderCron,
	} {
		if _, err := cronParser.Parse(spec); err != nil {
			return fmt.Errorf("%s must be a valid cron expression: %w", name, err)
		}
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone must be a valid IANA zone: %w", err)
	}

	// Validate health check timeout
	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("health.timeout must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// Location returns the business timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

// CronParser returns the six-field parser the scheduler runs with.
func CronParser() cron.Parser {
	return cronParser
}
