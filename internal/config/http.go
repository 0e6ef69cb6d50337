package config

type HTTPCfg struct {
	Port           int
	ServiceName    string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewHTTPCfg() *HTTPCfg {
	return &HTTPCfg{
		Port:           getIntEnv("HTTP_PORT", 8082),
		ServiceName:    getEnv("SERVICE_NAME", "dev-mentor-checker"),
		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 1),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 3),
	}
}
