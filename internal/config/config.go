package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port                string
	DataFile            string
	LogLevel            string
	JWTSecret           string
	HashScheme          string
	RatesURL            string
	LoanMarginPercent   float64
	InterestCron        string
	InterestRatePercent float64
	SMTPHost            string
	SMTPPort            string
	SMTPUsername        string
	SMTPPassword        string
	SenderEmail         string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DataFile:     getEnv("DATA_FILE", "bank_data.json"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:    getEnv("JWT_SECRET", "secret"),
		HashScheme:   getEnv("HASH_SCHEME", "sha256"),
		RatesURL:     getEnv("RATES_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		InterestCron: getEnv("INTEREST_CRON", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", ""),
	}

	var err error
	cfg.LoanMarginPercent, err = getEnvFloat("LOAN_MARGIN", 5.0)
	if err != nil {
		return nil, err
	}
	cfg.InterestRatePercent, err = getEnvFloat("INTEREST_RATE", 1.5)
	if err != nil {
		return nil, err
	}

	if cfg.DataFile == "" {
		return nil, fmt.Errorf("DATA_FILE is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.HashScheme != "sha256" && cfg.HashScheme != "pbkdf2" {
		return nil, fmt.Errorf("HASH_SCHEME must be sha256 or pbkdf2, got %q", cfg.HashScheme)
	}
	if cfg.InterestCron != "" && cfg.InterestRatePercent <= 0 {
		return nil, fmt.Errorf("INTEREST_RATE must be positive when INTEREST_CRON is set")
	}

	return cfg, nil
}

// SMTPConfigured reports whether outbound email is set up.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SenderEmail != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
