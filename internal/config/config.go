package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the service.
type Config struct {
	Service struct {
		Name        string `mapstructure:"name"`
		Version     string `mapstructure:"version"`
		Environment string `mapstructure:"environment"`
		LogLevel    string `mapstructure:"log_level"`
	} `mapstructure:"service"`
	Server struct {
		Port            int           `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
		MinConns int32  `mapstructure:"min_conns"`
	} `mapstructure:"db"`
	NATS struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"nats"`
	Routing struct {
		// LimitPolicy selects how sector limits gate eligibility:
		// "minimum" (amount >= limit, default) or "maximum" (amount <= limit).
		LimitPolicy  string        `mapstructure:"limit_policy"`
		TimeoutDays  int           `mapstructure:"timeout_days"`
		OverdueDays  int           `mapstructure:"overdue_days"`
		WarningDays  int           `mapstructure:"warning_days"`
		ScanInterval time.Duration `mapstructure:"scan_interval"`
	} `mapstructure:"routing"`
}

// LoadConfig loads the configuration from a file and the environment.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; defaults plus env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("service.name", "be-cr-requests")
	viper.SetDefault("service.version", "dev")
	viper.SetDefault("service.environment", "development")
	viper.SetDefault("service.log_level", "info")

	viper.SetDefault("server.port", 8086)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 15*time.Second)
	viper.SetDefault("server.idle_timeout", 60*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.user", "postgres")
	viper.SetDefault("db.name", "cr_requests")
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("db.max_conns", 10)
	viper.SetDefault("db.min_conns", 2)

	viper.SetDefault("nats.url", "nats://localhost:4222")

	viper.SetDefault("routing.limit_policy", "minimum")
	viper.SetDefault("routing.timeout_days", 45)
	viper.SetDefault("routing.overdue_days", 20)
	viper.SetDefault("routing.warning_days", 1)
	viper.SetDefault("routing.scan_interval", time.Hour)
}
