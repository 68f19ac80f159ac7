package recrypt

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so journal timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// NewRunID returns a fresh identifier for a migration run.
func NewRunID() string { return uuid.New().String() }
