package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/qripge/qrip-backend/internal/types"
)

// Configuration is the full application configuration, loaded from
// config files and QRIP_* environment variables.
type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	BOG        BOGConfig        `mapstructure:"bog"`
	Email      EmailConfig      `mapstructure:"email"`
	Billing    BillingConfig    `mapstructure:"billing"`
	Memorial   MemorialConfig   `mapstructure:"memorial"`
}

type DeploymentConfig struct {
	Mode types.DeploymentMode `mapstructure:"mode"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level          types.LogLevel `mapstructure:"level"`
	FluentdEnabled bool           `mapstructure:"fluentd_enabled"`
	FluentdHost    string         `mapstructure:"fluentd_host"`
	FluentdPort    int            `mapstructure:"fluentd_port"`
}

type MongoConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// BOGConfig holds Bank of Georgia payment gateway credentials and URLs.
type BOGConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	ProductID    string `mapstructure:"product_id"`
	APIBaseURL   string `mapstructure:"api_base_url"`
	OAuthURL     string `mapstructure:"oauth_url"`
	// BackendURL is this service's public base URL, used to build the
	// payment callback URL passed on every order and charge.
	BackendURL  string `mapstructure:"backend_url"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// CallbackURL is the webhook endpoint BOG calls back on payment events.
func (c BOGConfig) CallbackURL() string {
	return c.BackendURL + "/api/payments/callback"
}

type EmailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// BillingConfig tunes the billing engine's retry policy.
type BillingConfig struct {
	MaxRetryAttempts int `mapstructure:"max_retry_attempts"`
	RetryDelayDays   int `mapstructure:"retry_delay_days"`
	RetryCapDays     int `mapstructure:"retry_cap_days"`
	// PaymentTestMode substitutes a nominal 0.01 charge amount on every
	// gateway call. Deployment concern only, never enabled in production.
	PaymentTestMode bool   `mapstructure:"payment_test_mode"`
	Currency        string `mapstructure:"currency"`
	// EnforceResumeWindow rejects resuming a canceled subscription whose
	// stamped end date has already passed. The original system allowed
	// it; the flag keeps that behavior reachable.
	EnforceResumeWindow bool `mapstructure:"enforce_resume_window"`
}

type MemorialConfig struct {
	ReminderLookaheadDays int `mapstructure:"reminder_lookahead_days"`
}

// NewConfig loads configuration from ./config/config.yaml (optional)
// and QRIP_* environment variables.
func NewConfig() (*Configuration, error) {
	// Best effort: a missing .env is fine outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("QRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeServer))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "qrip")
	v.SetDefault("mongo.timeout_seconds", 10)
	v.SetDefault("bog.api_base_url", "https://api.bog.ge/payments/v1")
	v.SetDefault("bog.oauth_url", "https://oauth2.bog.ge/auth/realms/bog/protocol/openid-connect/token")
	v.SetDefault("email.from_name", "Qrip.ge Support")
	v.SetDefault("billing.max_retry_attempts", 3)
	v.SetDefault("billing.retry_delay_days", 3)
	v.SetDefault("billing.retry_cap_days", 30)
	v.SetDefault("billing.currency", "GEL")
	v.SetDefault("billing.enforce_resume_window", true)
	v.SetDefault("memorial.reminder_lookahead_days", 7)
}

// GetDefaultConfig returns a config suitable for scripts and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "qrip_test",
			TimeoutSeconds: 10,
		},
		BOG: BOGConfig{
			APIBaseURL:  "https://api.bog.ge/payments/v1",
			OAuthURL:    "https://oauth2.bog.ge/auth/realms/bog/protocol/openid-connect/token",
			BackendURL:  "http://localhost:8080",
			FrontendURL: "http://localhost:3000",
		},
		Email: EmailConfig{FromName: "Qrip.ge Support"},
		Billing: BillingConfig{
			MaxRetryAttempts:    3,
			RetryDelayDays:      3,
			RetryCapDays:        30,
			Currency:            "GEL",
			EnforceResumeWindow: true,
		},
		Memorial: MemorialConfig{ReminderLookaheadDays: 7},
	}
}
