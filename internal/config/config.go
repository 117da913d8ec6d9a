package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Environment        string        `mapstructure:"ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr           string        `mapstructure:"HTTP_ADDR"`
	StorageDriver      string        `mapstructure:"STORAGE_DRIVER"`
	DBDSN              string        `mapstructure:"DB_DSN"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	RunMigrations      bool          `mapstructure:"RUN_MIGRATIONS"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	JWTTTL             time.Duration `mapstructure:"JWT_TTL"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	PruneSchedule      string        `mapstructure:"PRUNE_SCHEDULE"`
	PruneRetentionDays int           `mapstructure:"PRUNE_RETENTION_DAYS"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// EnvFileLoaded был ли найден .env
	EnvFileLoaded bool `mapstructure:"-"`

	location *time.Location
}

// developmentSecret используется только при ENV=development без JWT_SECRET
const developmentSecret = "development-secret"

var defaults = map[string]any{
	"ENV":                  EnvDevelopment,
	"LOG_LEVEL":            "info",
	"HTTP_ADDR":            ":8080",
	"STORAGE_DRIVER":       DriverPostgres,
	"DB_DSN":               "",
	"DB_MAX_CONNS":         10,
	"RUN_MIGRATIONS":       true,
	"JWT_SECRET":           "",
	"JWT_TTL":              "24h",
	"TIMEZONE":             "Local",
	"PRUNE_SCHEDULE":       "@daily",
	"PRUNE_RETENTION_DAYS": 30,
	"SHUTDOWN_TIMEOUT":     "10s",
}

// Load читает .env (если есть), затем переменные окружения.
// Переменные окружения имеют приоритет над .env.
func Load() (*Config, error) {
	loaded := godotenv.Load(".env") == nil

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.EnvFileLoaded = loaded

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))

	switch c.StorageDriver {
	case DriverPostgres:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required but not set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StorageDriver)
	}

	if c.JWTSecret == "" {
		if c.Environment != EnvDevelopment {
			return errors.New("JWT_SECRET is required outside development")
		}
		c.JWTSecret = developmentSecret
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.PruneRetentionDays < 0 {
		return fmt.Errorf("PRUNE_RETENTION_DAYS must not be negative, got %d", c.PruneRetentionDays)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	c.location = loc

	return nil
}

// Location часовой пояс, в котором считаются "сегодня" и начало слота
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
