// Package index implements the per-column secondary indexer: flat
// value->keys inverted maps, maintained synchronously by the catalog on
// every mutation (spec §4.2).
//
// Grounded method-for-method on oldengine.py's Indexer class
// (create_index/drop_index/add_to_index/delete_from_index/update_index/
// get_keys_by_value), including its "delete the value entry once its key
// list is empty" cleanup invariant.
package index

import (
	"sync"

	"github.com/kasuganosora/hashbase/pkg/domain"
	"github.com/kasuganosora/hashbase/pkg/value"
)

// column is one column's inverted index: value -> ordered list of keys.
// Go maps cannot be keyed by interface{} holding uncomparable types, but
// every value this engine ever coerces (int64, float64, bool, string,
// time.Time) is comparable, so a plain map works.
type column map[interface{}][]string

// Indexer owns every (table, column) inverted index in the database.
type Indexer struct {
	mu    sync.RWMutex
	byTbl map[string]map[string]column // table -> column -> index
}

// New creates an empty Indexer.
func New() *Indexer {
	return &Indexer{byTbl: make(map[string]map[string]column)}
}

// Create installs an empty index on table.column and backfills it from the
// given existing records. Fails if an index already exists there.
func (ix *Indexer) Create(table, col string, records map[string]domain.Record) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	cols, ok := ix.byTbl[table]
	if !ok {
		cols = make(map[string]column)
		ix.byTbl[table] = cols
	}
	if _, exists := cols[col]; exists {
		return &domain.ErrIndexExists{Table: table, Column: col}
	}

	idx := make(column)
	for key, rec := range records {
		if v, present := rec[col]; present {
			idx[v] = append(idx[v], key)
		}
	}
	cols[col] = idx
	return nil
}

// Drop removes the index on table.column. Returns ErrIndexNotFound if
// idempotently called a second time, matching the "idempotent drop" law
// of spec §8.
func (ix *Indexer) Drop(table, col string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	cols, ok := ix.byTbl[table]
	if !ok {
		return &domain.ErrIndexNotFound{Table: table, Column: col}
	}
	if _, exists := cols[col]; !exists {
		return &domain.ErrIndexNotFound{Table: table, Column: col}
	}
	delete(cols, col)
	if len(cols) == 0 {
		delete(ix.byTbl, table)
	}
	return nil
}

// DropTable removes every index registered for table (called when the
// table itself is dropped).
func (ix *Indexer) DropTable(table string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.byTbl, table)
}

// Has reports whether table.column carries an index.
func (ix *Indexer) Has(table, col string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	cols, ok := ix.byTbl[table]
	if !ok {
		return false
	}
	_, ok = cols[col]
	return ok
}

// List returns every "table.column" pair currently indexed.
func (ix *Indexer) List() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []string
	for table, cols := range ix.byTbl {
		for col := range cols {
			out = append(out, table+"."+col)
		}
	}
	return out
}

// Add registers key under every indexed column's current value in record.
func (ix *Indexer) Add(table, key string, record domain.Record) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	cols, ok := ix.byTbl[table]
	if !ok {
		return
	}
	for col, idx := range cols {
		if v, present := record[col]; present {
			idx[v] = append(idx[v], key)
		}
	}
}

// Remove unregisters key from every indexed column's value in record.
func (ix *Indexer) Remove(table, key string, record domain.Record) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	cols, ok := ix.byTbl[table]
	if !ok {
		return
	}
	for col, idx := range cols {
		if v, present := record[col]; present {
			removeKey(idx, v, key)
		}
	}
}

// Update moves key from oldValue's bucket to newValue's bucket for
// table.column, when that column is indexed.
func (ix *Indexer) Update(table, col, key string, oldValue, newValue interface{}) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	cols, ok := ix.byTbl[table]
	if !ok {
		return
	}
	idx, ok := cols[col]
	if !ok {
		return
	}
	removeKey(idx, oldValue, key)
	idx[newValue] = append(idx[newValue], key)
}

func removeKey(idx column, v interface{}, key string) {
	keys, ok := idx[v]
	if !ok {
		return
	}
	for i, k := range keys {
		if k == key {
			keys = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(keys) == 0 {
		delete(idx, v)
	} else {
		idx[v] = keys
	}
}

// Dump exports every index's raw value->keys buckets, for pkg/snapshot
// to serialize to disk (spec §4.6).
func (ix *Indexer) Dump() map[string]map[string]map[interface{}][]string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[string]map[string]map[interface{}][]string, len(ix.byTbl))
	for table, cols := range ix.byTbl {
		outCols := make(map[string]map[interface{}][]string, len(cols))
		for col, idx := range cols {
			outIdx := make(map[interface{}][]string, len(idx))
			for v, keys := range idx {
				outIdx[v] = append([]string(nil), keys...)
			}
			outCols[col] = outIdx
		}
		out[table] = outCols
	}
	return out
}

// LoadAll replaces the indexer's state from a previously Dump-ed value,
// used when restoring a snapshot from disk.
func (ix *Indexer) LoadAll(data map[string]map[string]map[interface{}][]string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	byTbl := make(map[string]map[string]column, len(data))
	for table, cols := range data {
		outCols := make(map[string]column, len(cols))
		for col, idx := range cols {
			c := make(column, len(idx))
			for v, keys := range idx {
				c[v] = append([]string(nil), keys...)
			}
			outCols[col] = c
		}
		byTbl[table] = outCols
	}
	ix.byTbl = byTbl
}

// Snapshot returns an opaque deep copy of every index, for the catalog
// to fold into its own transaction snapshot (spec §3 "Transaction
// state"). The concrete type is deliberately unexported: callers outside
// this package only ever round-trip the value through Restore.
func (ix *Indexer) Snapshot() interface{} {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[string]map[string]column, len(ix.byTbl))
	for table, cols := range ix.byTbl {
		outCols := make(map[string]column, len(cols))
		for col, idx := range cols {
			outIdx := make(column, len(idx))
			for v, keys := range idx {
				outIdx[v] = append([]string(nil), keys...)
			}
			outCols[col] = outIdx
		}
		out[table] = outCols
	}
	return out
}

// Restore replaces the indexer's state with a previously captured
// Snapshot. A nil or malformed snapshot is ignored.
func (ix *Indexer) Restore(snap interface{}) {
	m, ok := snap.(map[string]map[string]column)
	if !ok {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.byTbl = m
}

// Lookup resolves an operator/value predicate against table.column's
// index. ok is false when no index exists there — the caller must fall
// back to a full scan (spec §4.2's "None sentinel" rule).
func (ix *Indexer) Lookup(table, col string, colType value.Type, op string, raw interface{}) (keys []string, ok bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	cols, tblOk := ix.byTbl[table]
	if !tblOk {
		return nil, false
	}
	idx, colOk := cols[col]
	if !colOk {
		return nil, false
	}

	target, err := value.Coerce(col, colType, raw)
	if err != nil {
		// Invalid numeric coercion on a numeric column: empty result, but an
		// index did exist, so this is still an "accelerated" (ok=true) answer.
		return []string{}, true
	}

	if op == "=" {
		return append([]string(nil), idx[target]...), true
	}

	var out []string
	for v, keys := range idx {
		c := value.Compare(v, target)
		match := false
		switch op {
		case ">":
			match = c > 0
		case "<":
			match = c < 0
		case ">=":
			match = c >= 0
		case "<=":
			match = c <= 0
		case "<>":
			match = c != 0
		}
		if match {
			out = append(out, keys...)
		}
	}
	return out, true
}
