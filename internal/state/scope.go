package state

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Migration rewrites a stored value from one schema version to the next.
type Migration func(raw []byte) ([]byte, error)

// Scope is one user's view of a Store. All bindings created on a scope share
// its commit lock, so multi-key writes are applied as a unit.
type Scope struct {
	store Store
	user  string
	log   Logger

	mu         sync.Mutex
	bound      map[string]reloader
	migrations map[string]map[int]Migration
}

type reloader interface {
	reload(rec Record, found bool) func()
}

// Write is a staged binding update. Apply it with Scope.Commit.
type Write struct {
	scope *Scope
	key   string
	raw   []byte
	err   error
	apply func() func()
}

func (w Write) Key() string { return w.key }

func NewScope(store Store, userID string, logger Logger) (*Scope, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyScope
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Scope{
		store:      store,
		user:       userID,
		log:        logger,
		bound:      map[string]reloader{},
		migrations: map[string]map[int]Migration{},
	}, nil
}

func (s *Scope) User() string { return s.user }

// Migrate registers fn to upgrade key from version from to from+1. Register
// migrations before binding the key.
func (s *Scope) Migrate(key string, from int, fn Migration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.migrations[key] == nil {
		s.migrations[key] = map[int]Migration{}
	}
	s.migrations[key][from] = fn
}

// Commit persists every write in one store transaction, then updates the
// in-memory bindings. Nothing changes in memory when the store rejects it.
func (s *Scope) Commit(ctx context.Context, writes ...Write) error {
	return s.Transact(ctx, func() ([]Write, error) { return writes, nil })
}

// Transact runs build under the scope lock and commits the writes it returns.
// build may read bindings of this scope; it must not commit.
func (s *Scope) Transact(ctx context.Context, build func() ([]Write, error)) error {
	s.mu.Lock()
	notify, err := s.commitLocked(ctx, build)
	s.mu.Unlock()
	for _, fn := range notify {
		fn()
	}
	return err
}

func (s *Scope) commitLocked(ctx context.Context, build func() ([]Write, error)) ([]func(), error) {
	writes, err := build()
	if err != nil {
		return nil, err
	}
	if len(writes) == 0 {
		return nil, nil
	}
	records := make([]Record, 0, len(writes))
	for _, w := range writes {
		if w.scope != s {
			return nil, fmt.Errorf("%w: %s", ErrForeignWrite, w.key)
		}
		if w.err != nil {
			return nil, fmt.Errorf("encode %s: %w", w.key, w.err)
		}
		records = append(records, Record{Key: w.key, Value: w.raw, SchemaVersion: CurrentSchemaVersion})
	}
	if err := s.store.PutMany(ctx, s.user, records); err != nil {
		return nil, err
	}
	var notify []func()
	for _, w := range writes {
		if fn := w.apply(); fn != nil {
			notify = append(notify, fn)
		}
	}
	return notify, nil
}

// Invalidate re-reads the given bound keys, or every bound key when none are
// named, so changes made through another scope or process become visible.
// Bindings whose stored bytes are unchanged keep their state and stay quiet.
// Invalidate never writes.
func (s *Scope) Invalidate(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	if len(keys) == 0 {
		for k := range s.bound {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	var (
		notify []func()
		err    error
	)
	for _, k := range keys {
		b, ok := s.bound[k]
		if !ok {
			continue
		}
		rec, found, getErr := s.store.Get(ctx, s.user, k)
		if getErr != nil {
			err = fmt.Errorf("reload %s: %w", k, getErr)
			break
		}
		if fn := b.reload(rec, found); fn != nil {
			notify = append(notify, fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range notify {
		fn()
	}
	return err
}

// Dump returns every stored record of this scope in key order.
func (s *Scope) Dump(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, err := s.store.Keys(ctx, s.user)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		rec, found, err := s.store.Get(ctx, s.user, k)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Restore writes records verbatim in one transaction and resyncs the
// bindings they touch.
func (s *Scope) Restore(ctx context.Context, records []Record) error {
	s.mu.Lock()
	err := s.store.PutMany(ctx, s.user, records)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		keys = append(keys, rec.Key)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.Invalidate(ctx, keys...)
}

func (s *Scope) migrate(key string, rec Record) ([]byte, error) {
	raw := []byte(rec.Value)
	for v := rec.SchemaVersion; v < CurrentSchemaVersion; v++ {
		fn, ok := s.migrations[key][v]
		if !ok {
			continue
		}
		next, err := fn(raw)
		if err != nil {
			return nil, fmt.Errorf("migrate %s from v%d: %w", key, v, err)
		}
		raw = next
	}
	return raw, nil
}
