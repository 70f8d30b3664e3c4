// Package lock implements the multi-reader/single-writer lock manager
// keyed by (table, key), with non-blocking acquisition and per-key FIFO
// waiter queues (spec §4.3).
//
// Grounded method-for-method on oldengine.py's TransactionManager.
// acquire_lock/release_locks/_process_lock_queue; struct/Config shape
// grounded on mysql/mvcc/manager.go's Config+DefaultConfig()+sync.Mutex
// manager convention.
package lock

import (
	"fmt"
	"sync"
)

// Mode is the lock mode requested.
type Mode int

const (
	Read Mode = iota
	Write
)

func (m Mode) String() string {
	if m == Write {
		return "write"
	}
	return "read"
}

// SchemaKey is the sentinel row key used to lock whole-table operations
// (spec §3 "Lock state" / GLOSSARY "Schema lock").
const SchemaKey = "schema"

// Config tunes the lock manager. There is currently nothing to tune
// beyond construction, but the struct is kept (rather than a bare
// constructor) to match this teacher's Config/DefaultConfig convention
// used throughout mysql/mvcc and pkg/config.
type Config struct{}

// DefaultConfig returns the zero-value configuration.
func DefaultConfig() *Config { return &Config{} }

type key struct {
	table string
	row   string
}

type waiter struct {
	tx   string
	mode Mode
}

type state struct {
	readers map[string]bool
	writer  string // "" means no writer
	queue   []waiter
}

// Manager is the lock manager. A single mutex serializes every
// acquisition, release, and queue mutation (spec §5: "a single reentrant
// mutex serializes every operation on the Lock Manager").
type Manager struct {
	mu    sync.Mutex
	cfg   *Config
	locks map[key]*state
	held  map[string]map[key]bool // tx -> set of keys it holds
}

// New creates an empty lock manager.
func New(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Manager{
		cfg:   cfg,
		locks: make(map[key]*state),
		held:  make(map[string]map[key]bool),
	}
}

// Acquire attempts to grant tx the given mode on (table, row). It never
// blocks: on incompatibility the request is enqueued and Acquire returns
// false immediately (spec §4.3 "non-blocking acquisition").
func (m *Manager) Acquire(tx, table, row string, mode Mode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{table: table, row: row}
	st, ok := m.locks[k]
	if !ok {
		st = &state{readers: make(map[string]bool)}
		m.locks[k] = st
	}

	// Reentrancy: spec §4.3.
	if mode == Read && st.readers[tx] {
		return true
	}
	if st.writer == tx {
		return true
	}

	if mode == Read {
		if st.writer == "" {
			st.readers[tx] = true
			m.markHeld(tx, k)
			return true
		}
	} else {
		if len(st.readers) == 0 && st.writer == "" {
			st.writer = tx
			m.markHeld(tx, k)
			return true
		}
	}

	st.queue = append(st.queue, waiter{tx: tx, mode: mode})
	return false
}

func (m *Manager) markHeld(tx string, k key) {
	set, ok := m.held[tx]
	if !ok {
		set = make(map[key]bool)
		m.held[tx] = set
	}
	set[k] = true
}

// Release releases every lock tx holds, draining each affected key's
// waiter queue in FIFO order as compatibility allows (spec §4.3
// "release happens only at transaction end").
func (m *Manager) Release(tx string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.held[tx] {
		st, ok := m.locks[k]
		if !ok {
			continue
		}
		delete(st.readers, tx)
		if st.writer == tx {
			st.writer = ""
		}
		m.drainQueue(k, st)
	}
	delete(m.held, tx)
}

func (m *Manager) drainQueue(k key, st *state) {
	remaining := st.queue[:0:0]
	for _, w := range st.queue {
		granted := false
		if w.mode == Read && st.writer == "" {
			st.readers[w.tx] = true
			granted = true
		} else if w.mode == Write && len(st.readers) == 0 && st.writer == "" {
			st.writer = w.tx
			granted = true
		}
		if granted {
			m.markHeld(w.tx, k)
		} else {
			remaining = append(remaining, w)
		}
	}
	st.queue = remaining
}

// Describe renders (table,row) for diagnostics/errors.
func Describe(table, row string) string {
	return fmt.Sprintf("%s:%s", table, row)
}
