package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config collects every environment-driven setting the server needs at startup.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	LogLevel  string
	LogFormat string

	Currency string

	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	CronExpireSpec string
}

// Load reads .env when present and builds the Config from the environment.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		Currency:            getEnv("CURRENCY", "EUR"),
		SendGridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:           getEnv("EMAIL_FROM", "no-reply@lockerbox.app"),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "LockerBox"),
		TwilioAccountSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:    os.Getenv("TWILIO_FROM_NUMBER"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/reserve/confirmed?session_id={CHECKOUT_SESSION_ID}"),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/reserve/cancelled?session_id={CHECKOUT_SESSION_ID}"),
		CronExpireSpec:      getEnv("CRON_EXPIRE_SPEC", "*/15 * * * *"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
