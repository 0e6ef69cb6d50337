package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// getEnv gets an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an environment variable as an integer with a fallback
func getIntEnv(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return intValue
}

func getFloatEnv(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getSecondsEnv(key string, fallback int) time.Duration {
	sec := getIntEnv(key, fallback)
	if sec <= 0 {
		sec = fallback
	}
	return time.Duration(sec) * time.Second
}

func getBoolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
