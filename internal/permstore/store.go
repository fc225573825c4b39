// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package permstore keeps the authority's requester permissions in a TOML file.
package permstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jeranaias/debugconsole/internal/util"
)

// ErrUnknownRequester is returned for an ID the store does not hold.
var ErrUnknownRequester = errors.New("unknown requester")

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// =============================================================================
// FILE FORMAT
// =============================================================================

// record is one [[requester]] table.
type record struct {
	ID          string   `toml:"id"`
	Name        string   `toml:"name"`
	Address     string   `toml:"address,omitempty"`
	Character   string   `toml:"character,omitempty"`
	Permissions Flags    `toml:"permissions"`
	Commands    []string `toml:"commands"`
}

type document struct {
	Requesters []record `toml:"requester"`
}

// =============================================================================
// STORE
// =============================================================================

// Store holds requesters keyed by ID. A zero path keeps the store in memory.
type Store struct {
	mu       sync.RWMutex
	path     string
	byID     map[string]*Requester
	logger   *zap.Logger
	debounce time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDebounce sets how long Watch waits after the last change event.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// Open loads the store from path. A missing file yields an empty store that
// Save will create.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:     path,
		byID:     make(map[string]*Requester),
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	if path == "" {
		return s, nil
	}
	if err := s.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file, empty for an in-memory store.
func (s *Store) Path() string { return s.path }

// Reload re-reads the backing file. Existing *Requester values are updated in
// place; requesters missing from the file are dropped.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read permissions: %w", err)
	}
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode permissions %s: %w", s.path, err)
	}

	seen := make(map[string]bool, len(doc.Requesters))
	for i, rec := range doc.Requesters {
		rec.ID = strings.TrimSpace(rec.ID)
		if rec.ID == "" {
			return fmt.Errorf("decode permissions %s: requester %d has no id", s.path, i+1)
		}
		if seen[rec.ID] {
			return fmt.Errorf("decode permissions %s: duplicate requester id %q", s.path, rec.ID)
		}
		seen[rec.ID] = true
		doc.Requesters[i] = rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range doc.Requesters {
		if r, ok := s.byID[rec.ID]; ok {
			r.apply(rec)
		} else {
			s.byID[rec.ID] = newRequester(rec)
		}
	}
	for id := range s.byID {
		if !seen[id] {
			delete(s.byID, id)
		}
	}
	s.logger.Debug("permissions loaded", zap.String("path", s.path), zap.Int("requesters", len(s.byID)))
	return nil
}

// Save writes the store to its backing file.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	doc := document{}
	for _, r := range s.List() {
		doc.Requesters = append(doc.Requesters, r.record())
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write permissions: %w", err)
	}
	return nil
}

// Add registers a requester, replacing the details of an existing one with
// the same ID but keeping its permissions.
func (s *Store) Add(id, name, address string) *Requester {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.byID[id]; ok {
		r.mu.Lock()
		r.name, r.address = name, address
		r.mu.Unlock()
		return r
	}
	r := newRequester(record{ID: id, Name: name, Address: address})
	s.byID[id] = r
	return r
}

// Remove drops a requester.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

// Find returns the requester with the given ID.
func (s *Store) Find(id string) (*Requester, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[strings.TrimSpace(id)]
	return r, ok
}

// FindByName returns the first requester, in ID order, whose name matches
// case-insensitively.
func (s *Store) FindByName(name string) (*Requester, bool) {
	for _, r := range s.List() {
		if strings.EqualFold(r.Name(), name) {
			return r, true
		}
	}
	return nil, false
}

// List returns every requester sorted by ID.
func (s *Store) List() []*Requester {
	s.mu.RLock()
	out := make([]*Requester, 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Grant adds permission flags to a requester.
func (s *Store) Grant(id string, f Flags) error {
	return s.update(id, func(r *Requester) { r.grant(f) })
}

// Revoke removes permission flags from a requester.
func (s *Store) Revoke(id string, f Flags) error {
	return s.update(id, func(r *Requester) { r.revoke(f) })
}

// Allow adds commands to a requester's allow-list.
func (s *Store) Allow(id string, commands ...string) error {
	return s.update(id, func(r *Requester) { r.allow(commands) })
}

// Disallow removes commands from a requester's allow-list.
func (s *Store) Disallow(id string, commands ...string) error {
	return s.update(id, func(r *Requester) { r.disallow(commands) })
}

func (s *Store) update(id string, fn func(*Requester)) error {
	r, ok := s.Find(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRequester, id)
	}
	fn(r)
	return nil
}

// =============================================================================
// WATCH
// =============================================================================

// Watch reloads the store whenever its file changes, until ctx is done. The
// parent directory is watched so editors that replace the file by rename are
// picked up. Reload failures are logged and the previous state is kept.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return errors.New("permissions store has no backing file")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("resolve permissions path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	// nil until a change arrives; each change restarts the wait.
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			settle = time.After(s.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("permissions watcher error", zap.Error(err))

		case <-settle:
			settle = nil
			if err := s.Reload(); err != nil {
				s.logger.Warn("permissions reload failed", zap.String("path", s.path), zap.Error(err))
				continue
			}
			s.logger.Info("permissions reloaded", zap.String("path", s.path))
		}
	}
}
