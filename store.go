package redlock

import (
	"context"
	"time"
)

// Store is the key-value backend a Custodian coordinates through.
// Both operations must be atomic on the server side.
type Store interface {
	// SetIfAbsent writes key=value with the given expiry only if key does
	// not exist. It reports whether the write happened.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// CompareAndDelete deletes key only if its current value equals value.
	// It reports whether a key was deleted.
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}
