package config

import (
	"fmt"
	"time"

	"github.com/zhans-k/ride-dispatch/pkg/configparser"
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Server   ServerConfig
		Database DatabaseConfig
		RabbitMQ RabbitMQConfig
		Auth     Auth
		Fare     FareConfig
		Log      LogConfig
	}

	ServerConfig struct {
		Host string `env:"SERVER_HOST" default:"0.0.0.0"`
		Port string `env:"SERVER_PORT" default:"3000"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"dispatch_user"`
		Password string `env:"DATABASE_PASSWORD" default:"dispatch_pass"`
		Database string `env:"DATABASE_DATABASE" default:"dispatch_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`

		// Disabled skips the broker entirely; lifecycle events then go to
		// the websocket gateway only.
		Disabled bool `env:"RABBITMQ_DISABLED" default:"false"`
	}

	Auth struct {
		JWTSecret string `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}

	// FareConfig drives the fare engine. Amounts are whole currency units.
	FareConfig struct {
		MotoBase      int64 `env:"FARE_MOTO_BASE" default:"300"`
		MotoPerKm     int64 `env:"FARE_MOTO_PER_KM" default:"60"`
		StandardBase  int64 `env:"FARE_STANDARD_BASE" default:"500"`
		StandardPerKm int64 `env:"FARE_STANDARD_PER_KM" default:"100"`
		PremiumBase   int64 `env:"FARE_PREMIUM_BASE" default:"800"`
		PremiumPerKm  int64 `env:"FARE_PREMIUM_PER_KM" default:"150"`

		MorningPeakMultiplier float64 `env:"FARE_MORNING_PEAK_MULTIPLIER" default:"1.20"`
		EveningPeakMultiplier float64 `env:"FARE_EVENING_PEAK_MULTIPLIER" default:"1.35"`
		LateNightMultiplier   float64 `env:"FARE_LATE_NIGHT_MULTIPLIER" default:"1.25"`
		LowDemandFactor       float64 `env:"FARE_LOW_DEMAND_FACTOR" default:"0.9"`

		// CommissionPct is the platform's cut of the final fare.
		CommissionPct float64 `env:"FARE_COMMISSION_PCT" default:"0.20"`
	}

	LogConfig struct {
		Level       string `env:"LOG_LEVEL" default:"DEBUG"`
		ServiceName string `env:"LOG_SERVICE_NAME" default:"ride-dispatch"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c DatabaseConfig) PoolLimits() (int32, int32) {
	return c.MaxConns, c.MinConns
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading environment variables and parsing into the config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	return cfg, nil
}
