package config

import (
	"errors"
	"os"
)

type JwtConfig struct {
	Secret string
}

func NewJwtConfig() *JwtConfig {
	return &JwtConfig{
		Secret: os.Getenv("JWT_SECRET"),
	}
}

// Validate fails when no signing secret is configured: an empty HMAC key verifies forged tokens.
func (c *JwtConfig) Validate() error {
	if c.Secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	return nil
}
