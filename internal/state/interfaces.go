package state

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// CurrentSchemaVersion is stamped on every record written by this build.
// Version 0 marks records written before versioning existed.
const CurrentSchemaVersion = 1

var (
	ErrClosed       = errors.New("state: store closed")
	ErrEmptyScope   = errors.New("state: scope is required")
	ErrForeignWrite = errors.New("state: write staged on another scope")
	ErrRebind       = errors.New("state: key already bound with a different type")
)

// Store is a durable key/value medium partitioned by scope (one scope per
// user). Implementations must apply PutMany atomically.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Get(ctx context.Context, scope, key string) (Record, bool, error)
	PutMany(ctx context.Context, scope string, records []Record) error
	Keys(ctx context.Context, scope string) ([]string, error)
	Close() error
}

type Record struct {
	Key           string
	Value         json.RawMessage
	SchemaVersion int
	UpdatedTS     time.Time
}

// Logger receives decode and migration warnings.
type Logger interface {
	Warn(msg interface{}, keyvals ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warn(interface{}, ...interface{}) {}
