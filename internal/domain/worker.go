package domain

import "time"

// WorkerInfo represents information about a grading worker
type WorkerInfo struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Capacity      int       `json:"capacity"`
	CurrentLoad   int       `json:"currentLoad"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	Hostname      string    `json:"hostname"`
	Version       string    `json:"version"`
	IsActive      bool      `json:"isActive"`
}
