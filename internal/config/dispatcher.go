package config

import (
	"os"
	"time"
)

type DispatcherCfg struct {
	WorkerType        string
	PoolSize          int
	QueueCapacity     int
	RetryLimit        int
	HeartbeatInterval time.Duration
	PollTimeout       time.Duration
	Hostname          string
}

func NewDispatcherCfg() *DispatcherCfg {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	poolSize := getIntEnv("WORKER_POOL_SIZE", 4)
	if poolSize <= 0 {
		poolSize = 4
	}
	queueCapacity := getIntEnv("WORKER_QUEUE_CAPACITY", 64)
	if queueCapacity <= 0 {
		queueCapacity = poolSize
	}
	return &DispatcherCfg{
		WorkerType:        getEnv("WORKER_TYPE", "python"),
		PoolSize:          poolSize,
		QueueCapacity:     queueCapacity,
		RetryLimit:        getIntEnv("WORKER_RETRY_LIMIT", 3),
		HeartbeatInterval: getSecondsEnv("WORKER_HEARTBEAT_SEC", 30),
		PollTimeout:       getSecondsEnv("WORKER_POLL_TIMEOUT_SEC", 5),
		Hostname:          hostname,
	}
}
