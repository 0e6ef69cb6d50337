package domain

import (
	"time"

	"github.com/google/uuid"
)

// QueueMessage is a request to grade one check, as carried by the intake queue
type QueueMessage struct {
	CheckID    uuid.UUID `json:"checkId"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}
