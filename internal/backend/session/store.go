package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoSession is returned when a session id is unknown or expired.
var ErrNoSession = errors.New("no session")

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Record is the server side state of one login.
type Record struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Store keeps session records keyed by id.
type Store interface {
	Save(ctx context.Context, record Record, ttl time.Duration) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewStore creates the session store named by kind.
func NewStore(kind, address, password string, db int) (Store, error) {
	switch kind {
	case "", StoreMemory:
		return NewMemoryStore(), nil
	case StoreRedis:
		return NewRedisStore(address, password, db)
	default:
		return nil, fmt.Errorf("unsupported session store: %s", kind)
	}
}
