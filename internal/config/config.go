// Package config reads the service configuration from the environment. A
// .env file in the working directory is loaded first when present.
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func init() {
	_ = godotenv.Load()
}

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string
	DatabaseURL   string

	// DemoMode forces the in-memory calendar even with Google credentials.
	DemoMode bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleAPIEndpoint  string

	// MailProvider is "gmail" (default) or "sendgrid".
	MailProvider   string
	SendGridAPIKey string
	MailFromEmail  string
	MailFromName   string

	PracticeName    string
	PracticeEmail   string
	PracticeAddress string
	Language        string

	AdminStaticTokens []string
	AdminJWTSecret    string
}

// Load builds a Config from the environment.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		DemoMode: getEnvAsBool("DEMO_MODE", false),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/oauth2callback"),
		GoogleAPIEndpoint:  getEnv("GOOGLE_API_ENDPOINT", ""),

		MailProvider:   strings.ToLower(getEnv("MAIL_PROVIDER", "gmail")),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		MailFromEmail:  getEnv("MAIL_FROM_EMAIL", ""),
		MailFromName:   getEnv("MAIL_FROM_NAME", "Fisioterapia"),

		PracticeName:    getEnv("PRACTICE_NAME", "Fisioterapia"),
		PracticeEmail:   getEnv("PRACTICE_EMAIL", ""),
		PracticeAddress: getEnv("PRACTICE_ADDRESS", ""),
		Language:        getEnv("LANGUAGE", "es"),

		AdminStaticTokens: getEnvAsList("ADMIN_STATIC_TOKENS"),
		AdminJWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// UseDemo reports whether the in-memory calendar should back the service:
// explicitly requested, or no real OAuth client configured.
func (c *Config) UseDemo() bool {
	if c.DemoMode {
		return true
	}
	id := strings.TrimSpace(c.GoogleClientID)
	return id == "" || strings.HasPrefix(id, "YOUR_")
}

// Validate rejects settings the service cannot run with. Outside demo mode
// PRACTICE_EMAIL is required: it is the recipient of every mailto fallback.
func (c *Config) Validate() error {
	if !c.UseDemo() && strings.TrimSpace(c.PracticeEmail) == "" {
		return errors.New("PRACTICE_EMAIL is required outside demo mode")
	}
	return nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// PublicHost returns the host name of PublicBaseURL, or "" when it does not
// parse.
func (c *Config) PublicHost() string {
	u, err := url.Parse(c.PublicBaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
