package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/farellandr/donatrack/internal/database"
)

type Server struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type Database struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl-mode"`
}

// Razorpay holds three distinct credentials: the public key id handed to the
// checkout widget, the API secret used for orders and checkout signatures, and
// the webhook secret used only for webhook deliveries.
type Razorpay struct {
	KeyID         string `mapstructure:"key-id"`
	KeySecret     string `mapstructure:"key-secret"`
	WebhookSecret string `mapstructure:"webhook-secret"`
	BaseURL       string `mapstructure:"base-url"`
	TimeoutMs     int    `mapstructure:"timeout-ms"`
}

type JWT struct {
	Secret   string `mapstructure:"secret"`
	TTLHours int    `mapstructure:"ttl-hours"`
}

type Receipt struct {
	Secret string `mapstructure:"secret"`
}

type Donations struct {
	MinAmount float64 `mapstructure:"min-amount"`
	Currency  string  `mapstructure:"currency"`
}

type Kafka struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

type Metrics struct {
	URL          string `mapstructure:"url"`
	IntervalMs   int    `mapstructure:"interval-ms"`
	CommonLabels string `mapstructure:"common-labels"`
}

type Logs struct {
	URL   string `mapstructure:"url"`
	Level string `mapstructure:"level"`
}

type Config struct {
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"db"`
	Razorpay  Razorpay  `mapstructure:"razorpay"`
	JWT       JWT       `mapstructure:"jwt"`
	Receipt   Receipt   `mapstructure:"receipt"`
	Donations Donations `mapstructure:"donations"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Metrics   Metrics   `mapstructure:"metrics"`
	Logs      Logs      `mapstructure:"logs"`
}

var defaults = map[string]interface{}{
	"server.port":             "8080",
	"server.mode":             "release",
	"db.host":                 "localhost",
	"db.port":                 "5432",
	"db.user":                 "postgres",
	"db.password":             "",
	"db.name":                 "donatrack",
	"db.ssl-mode":             "disable",
	"razorpay.key-id":         "",
	"razorpay.key-secret":     "",
	"razorpay.webhook-secret": "",
	"razorpay.base-url":       "https://api.razorpay.com",
	"razorpay.timeout-ms":     10_000,
	"jwt.secret":              "",
	"jwt.ttl-hours":           24,
	"receipt.secret":          "",
	"donations.min-amount":    100,
	"donations.currency":      "INR",
	"kafka.brokers":           "",
	"kafka.topic":             "donation-events",
	"metrics.url":             "",
	"metrics.interval-ms":     10_000,
	"metrics.common-labels":   "",
	"logs.url":                "",
	"logs.level":              "info",
}

// LoadConfig reads .env (if present), an optional config.yaml from path and
// the process environment. Environment variables win: razorpay.key-id is read
// from RAZORPAY_KEY_ID, db.host from DB_HOST and so on.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %v", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "PORT"); err != nil {
		return nil, err
	}

	if path != "" {
		v.AddConfigPath(path)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %v", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %v", err)
	}

	if cfg.Receipt.Secret == "" {
		cfg.Receipt.Secret = cfg.JWT.Secret
	}

	return &cfg, nil
}

func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	return db, nil
}
