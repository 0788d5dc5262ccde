package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Plan     PlanConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

// PlanConfig holds the investment plan parameters. The per-level payout
// schedules live in internal/plans; these are the scalar knobs around them.
type PlanConfig struct {
	MonthlyRate        decimal.Decimal // percent profit per cycle
	CycleDays          int             // cycle length in days
	LockDays           int             // days until a deposit unlocks
	WithdrawFeePercent decimal.Decimal
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	monthlyRate, err := decimalEnv("MONTHLY_RATE", "10")
	if err != nil {
		return nil, err
	}
	withdrawFee, err := decimalEnv("WITHDRAW_FEE_PERCENT", "5")
	if err != nil {
		return nil, err
	}
	cycleDays, err := intEnv("CYCLE_DAYS", 30)
	if err != nil {
		return nil, err
	}
	lockDays, err := intEnv("LOCK_DAYS", 180)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "teamvest"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Plan: PlanConfig{
			MonthlyRate:        monthlyRate,
			CycleDays:          cycleDays,
			LockDays:           lockDays,
			WithdrawFeePercent: withdrawFee,
		},
	}

	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if config.Plan.CycleDays <= 0 {
		return nil, fmt.Errorf("CYCLE_DAYS must be positive")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

func decimalEnv(key, defaultValue string) (decimal.Decimal, error) {
	raw := os.Getenv(key)
	if raw == "" {
		raw = defaultValue
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	return value, nil
}
