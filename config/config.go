package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisAuthDB     int    `mapstructure:"REDIS_AUTH_DB"`
	RedisPresenceDB int    `mapstructure:"REDIS_PRESENCE_DB"`
	RedisQueueDB    int    `mapstructure:"REDIS_QUEUE_DB"`

	// Dispatch server (realtime offer channel). ProviderID binds the
	// channel at startup; when empty, binding happens through the
	// /api/dispatch/connect endpoint instead.
	DispatchServerURL    string `mapstructure:"DISPATCH_SERVER_URL"`
	ProviderID           string `mapstructure:"PROVIDER_ID"`
	MaxReconnectAttempts int    `mapstructure:"MAX_RECONNECT_ATTEMPTS"`

	// Offer alerting.
	AlertSoundPath     string        `mapstructure:"ALERT_SOUND_PATH"`
	AlertPulseInterval time.Duration `mapstructure:"ALERT_PULSE_INTERVAL"`
	OfferBufferTTL     time.Duration `mapstructure:"OFFER_BUFFER_TTL"`

	// Firebase (customer pushes and device alerts).
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	ProviderDeviceToken           string `mapstructure:"PROVIDER_DEVICE_TOKEN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_AUTH_DB", 0)
	viper.SetDefault("REDIS_PRESENCE_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DISPATCH_SERVER_URL", "")
	viper.SetDefault("PROVIDER_ID", "")
	viper.SetDefault("MAX_RECONNECT_ATTEMPTS", 8)
	viper.SetDefault("ALERT_SOUND_PATH", "assets/new_offer.wav")
	viper.SetDefault("ALERT_PULSE_INTERVAL", 2*time.Second)
	viper.SetDefault("OFFER_BUFFER_TTL", 30*time.Second)
	viper.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	viper.SetDefault("PROVIDER_DEVICE_TOKEN", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
