package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Stripe   StripeConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

// StripeConfig is resolved once at startup. The price ID is plain
// configuration, not a mutable runtime cache.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	PortalReturn  string
}

var loaded *Config

func Load() *Config {
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "huddle-dev-secret"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PriceID:       getEnv("STRIPE_PRICE_ID", ""),
			PortalReturn:  getEnv("STRIPE_PORTAL_RETURN_URL", "http://localhost:3000/billing"),
		},
	}
}

// Get returns the process-wide config, loading it on first use.
func Get() *Config {
	if loaded == nil {
		loaded = Load()
	}
	return loaded
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
