package session

import (
	"context"
	"time"
)

// Store reads, writes and drops the session record.
type Store interface {
	// Read returns ErrNotFound when nothing is stored or the record expired.
	Read(ctx context.Context) (Record, error)
	// Write replaces the record; it is readable until expires.
	Write(ctx context.Context, rec Record, expires time.Time) error
	// Delete drops the record.
	Delete(ctx context.Context) error
}
