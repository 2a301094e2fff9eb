package redlock

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Lock represents a claim on a named resource obtained from a Custodian.
//
// A Lock is an immutable capability: it records what was asked of the store
// at acquisition time and is never refreshed. It stays a valid value after
// the store entry expires or is released, so holding a *Lock does not prove
// the claim is still live.
type Lock struct {
	resource string
	ttl      time.Duration
	token    string
}

// NewLock creates a lock value. No validation is performed.
func NewLock(resource string, ttl time.Duration, token string) *Lock {
	return &Lock{
		resource: resource,
		ttl:      ttl,
		token:    token,
	}
}

// Resource returns the locked resource name, which is also the store key.
func (l *Lock) Resource() string {
	return l.resource
}

// TTL returns the lease duration requested at acquisition time.
func (l *Lock) TTL() time.Duration {
	return l.ttl
}

// Token returns the ownership token written to the store.
func (l *Lock) Token() string {
	return l.token
}

// String describes the lock without revealing its token.
func (l *Lock) String() string {
	return fmt.Sprintf("Lock(%s, ttl=%s)", l.resource, l.ttl)
}

// GenerateToken returns a fresh random token: 16 bytes from crypto/rand,
// hex encoded.
func GenerateToken() string {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		panic(err) // This should never happen
	}
	return hex.EncodeToString(b)
}
