package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Binding is an in-memory value mirrored to one key of a Scope. Values handed
// out by Get are shared; callers must copy before mutating maps or slices.
type Binding[T any] struct {
	scope *Scope
	key   string
	def   T

	mu        sync.RWMutex
	value     T
	raw       []byte
	version   int
	found     bool
	listeners []func(T)
}

// Bind loads key from the scope, or returns the existing binding when key is
// already bound with the same type. Undecodable or too-new records fall back
// to def with a warning; only store failures are returned as errors.
func Bind[T any](ctx context.Context, s *Scope, key string, def T) (*Binding[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.bound[key]; ok {
		b, ok := existing.(*Binding[T])
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRebind, key)
		}
		return b, nil
	}
	rec, found, err := s.store.Get(ctx, s.user, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	b := &Binding[T]{scope: s, key: key, def: def}
	b.value, b.raw, b.version, b.found = b.decode(rec, found)
	s.bound[key] = b
	return b, nil
}

func (b *Binding[T]) Key() string { return b.key }

func (b *Binding[T]) Get() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

// OnChange registers fn to run after the bound value changes, outside any
// lock.
func (b *Binding[T]) OnChange(fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Stage encodes v for a later Scope.Commit.
func (b *Binding[T]) Stage(v T) Write {
	raw, err := json.Marshal(v)
	return Write{
		scope: b.scope,
		key:   b.key,
		raw:   raw,
		err:   err,
		apply: func() func() { return b.replace(v, raw, CurrentSchemaVersion) },
	}
}

func (b *Binding[T]) Set(ctx context.Context, v T) error {
	return b.scope.Commit(ctx, b.Stage(v))
}

// Update commits fn(current) under the scope lock and returns the stored value.
func (b *Binding[T]) Update(ctx context.Context, fn func(prev T) T) (T, error) {
	var next T
	err := b.scope.Transact(ctx, func() ([]Write, error) {
		next = fn(b.Get())
		return []Write{b.Stage(next)}, nil
	})
	if err != nil {
		return b.Get(), err
	}
	return next, nil
}

func (b *Binding[T]) replace(v T, raw []byte, version int) func() {
	b.mu.Lock()
	changed := !b.found || !bytes.Equal(b.raw, raw)
	b.value, b.raw, b.version, b.found = v, raw, version, true
	listeners := append([]func(T){}, b.listeners...)
	b.mu.Unlock()
	if !changed || len(listeners) == 0 {
		return nil
	}
	return func() {
		for _, fn := range listeners {
			fn(v)
		}
	}
}

// reload runs with the scope lock held.
func (b *Binding[T]) reload(rec Record, found bool) func() {
	b.mu.RLock()
	same := found == b.found && (!found || (bytes.Equal(b.raw, rec.Value) && b.version == rec.SchemaVersion))
	b.mu.RUnlock()
	if same {
		return nil
	}
	value, raw, version, ok := b.decode(rec, found)
	b.mu.Lock()
	b.value, b.raw, b.version, b.found = value, raw, version, ok
	listeners := append([]func(T){}, b.listeners...)
	b.mu.Unlock()
	if len(listeners) == 0 {
		return nil
	}
	return func() {
		for _, fn := range listeners {
			fn(value)
		}
	}
}

// decode returns the value for rec together with the stored bytes and
// version it was read from, so later reloads can detect a no-op.
func (b *Binding[T]) decode(rec Record, found bool) (T, []byte, int, bool) {
	if !found {
		return b.def, nil, 0, false
	}
	stored := []byte(rec.Value)
	if rec.SchemaVersion > CurrentSchemaVersion {
		b.scope.log.Warn("state.decode_failed", "key", b.key, "user", b.scope.user,
			"reason", "unknown schema version", "version", rec.SchemaVersion)
		return b.def, stored, rec.SchemaVersion, true
	}
	raw, err := b.scope.migrate(b.key, rec)
	if err != nil {
		b.scope.log.Warn("state.decode_failed", "key", b.key, "user", b.scope.user, "err", err)
		return b.def, stored, rec.SchemaVersion, true
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		b.scope.log.Warn("state.decode_failed", "key", b.key, "user", b.scope.user, "err", err)
		return b.def, stored, rec.SchemaVersion, true
	}
	return v, stored, rec.SchemaVersion, true
}
