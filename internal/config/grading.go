package config

// GradingCfg configures the grading engine
type GradingCfg struct {
	// OutputCap bounds stdout/stderr kept in a verdict, in characters.
	OutputCap int
}

func NewGradingCfg() *GradingCfg {
	outputCap := getIntEnv("GRADING_OUTPUT_CAP", 1000)
	if outputCap <= 0 {
		outputCap = 1000
	}
	return &GradingCfg{OutputCap: outputCap}
}
