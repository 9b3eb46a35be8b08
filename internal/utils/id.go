package utils

import (
	"time"

	"github.com/google/uuid"
)

func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8] + "-" + time.Now().UTC().Format("20060102150405")
}

// NewRequestID returns the value sent in the X-Request-ID header.
func NewRequestID() string {
	return uuid.NewString()
}
