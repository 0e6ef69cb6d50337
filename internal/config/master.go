package config

type AppConfig struct {
	DebugMode      bool
	LogLevel       string
	SandboxCfg     *SandboxCfg
	GradingCfg     *GradingCfg
	DispatcherCfg  *DispatcherCfg
	HTTPCfg        *HTTPCfg
	RedisConfig    *RedisConfig
	PostgresConfig *PostgresConfig
	JwtConfig      *JwtConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      getBoolEnv("DEBUG_MODE"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SandboxCfg:     NewSandboxCfg(),
		GradingCfg:     NewGradingCfg(),
		DispatcherCfg:  NewDispatcherCfg(),
		HTTPCfg:        NewHTTPCfg(),
		RedisConfig:    NewRedisConfig(),
		PostgresConfig: NewPostgresConfig(),
		JwtConfig:      NewJwtConfig(),
	}
}
