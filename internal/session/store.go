// Package session keeps server-side session records keyed by session id.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrUnavailable = errors.New("session store unavailable")
)

// Record is what the store keeps for one signed-in browser.
type Record struct {
	UserID    uint      `json:"user_id"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists session records. A ttl of zero means the record lives until
// it is deleted.
type Store interface {
	Save(ctx context.Context, id string, record Record, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	Health(ctx context.Context) error
	Close() error
}
