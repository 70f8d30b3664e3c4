// Package engine is the composition root: the full typed API of spec
// §6, wiring the catalog, indexer, lock manager, transaction manager,
// and snapshot I/O together, and fabricating/committing/rolling back an
// implicit transaction around any call that omits a transaction id
// (spec §4.4).
//
// Grounded on oldengine.py's Database class, which plays the same
// composition-root role in the original: every public method either
// takes a caller-supplied transaction id or manufactures one, runs its
// body, and commits-or-rolls-back before returning. The
// dependency-injected constructor (collaborators built once, handed in)
// follows pkg/mvcc/manager.go's NewManager(config) convention.
package engine

import (
	"github.com/kasuganosora/hashbase/pkg/catalog"
	"github.com/kasuganosora/hashbase/pkg/config"
	"github.com/kasuganosora/hashbase/pkg/domain"
	"github.com/kasuganosora/hashbase/pkg/index"
	"github.com/kasuganosora/hashbase/pkg/lock"
	"github.com/kasuganosora/hashbase/pkg/snapshot"
	"github.com/kasuganosora/hashbase/pkg/txn"
)

// lockerAdapter breaks the construction cycle between Catalog (which
// needs something implementing RowLocker) and txn.Manager (which needs
// the Catalog as a Snapshotter): the adapter is handed to Catalog before
// the real *txn.Manager exists, then pointed at it once built.
type lockerAdapter struct {
	txns *txn.Manager
}

func (l *lockerAdapter) AcquireLock(id, table, row string, mode lock.Mode) error {
	return l.txns.AcquireLock(id, table, row, mode)
}

// Engine is the embeddable database: construct one with New, call its
// methods directly (no network boundary, no driver).
type Engine struct {
	cfg   *config.Config
	locks *lock.Manager
	cat   *catalog.Catalog
	txns  *txn.Manager
}

// New wires a fresh, empty engine from cfg. Callers that want to resume
// from a prior snapshot should follow New with Load.
func New(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	locks := lock.New(nil)
	adapter := &lockerAdapter{}
	cat := catalog.New(index.New(), adapter)
	txns := txn.New(locks, cat, cfg.Operation.LogCap)
	adapter.txns = txns

	return &Engine{cfg: cfg, locks: locks, cat: cat, txns: txns}
}

// Load replaces the engine's catalog contents with whatever is stored
// at cfg.Snapshot.Path, tolerating a missing or malformed file (spec
// §4.6).
func (e *Engine) Load() {
	snapshot.Read(e.cfg.Snapshot.Path, e.cat)
}

// flush persists the current catalog state to disk, called after every
// successful commit (spec §4.4: "flush occurs after lock release").
func (e *Engine) flush() error {
	return snapshot.Write(e.cat, e.cfg.Snapshot.Path)
}

// run executes fn under txID, fabricating, committing, and flushing an
// implicit transaction when txID is empty (spec §4.4). A caller-supplied
// txID must already be Active; run neither commits nor rolls it back —
// the caller owns that transaction's lifecycle via Commit/Rollback.
func (e *Engine) run(txID string, fn func(id string) error) error {
	if txID != "" {
		if !e.txns.IsActive(txID) {
			return &domain.ErrTransactionNotActive{TxID: txID}
		}
		return fn(txID)
	}

	id := e.txns.NextImplicitID()
	if err := e.txns.Begin(id); err != nil {
		return err
	}
	if err := fn(id); err != nil {
		_ = e.txns.Rollback(id)
		return err
	}
	if err := e.txns.Commit(id); err != nil {
		return err
	}
	return e.flush()
}

// runResult is run's counterpart for operations that return a value
// alongside an error (every read-style query primitive).
func runResult[T any](e *Engine, txID string, fn func(id string) (T, error)) (T, error) {
	var out T
	err := e.run(txID, func(id string) error {
		v, err := fn(id)
		out = v
		return err
	})
	return out, err
}

// BeginTransaction starts an explicit transaction the caller will
// later Commit or Rollback itself.
func (e *Engine) BeginTransaction(txID string) error {
	return e.txns.Begin(txID)
}

// CommitTransaction commits txID and flushes the resulting catalog
// state to disk.
func (e *Engine) CommitTransaction(txID string) error {
	if err := e.txns.Commit(txID); err != nil {
		return err
	}
	return e.flush()
}

// RollbackTransaction rolls txID back, restoring the catalog to its
// state at Begin.
func (e *Engine) RollbackTransaction(txID string) error {
	return e.txns.Rollback(txID)
}

// CreateTable declares a new table (spec §4.1 "create_table").
func (e *Engine) CreateTable(txID, name string, columns []domain.Column) error {
	return e.run(txID, func(id string) error {
		return e.cat.CreateTable(id, name, columns)
	})
}

// DropTable removes a table and its indexes.
func (e *Engine) DropTable(txID, name string) error {
	return e.run(txID, func(id string) error {
		return e.cat.DropTable(id, name)
	})
}

// TruncateTable empties a table's records while keeping its schema
// (spec-supplemented "delete_table").
func (e *Engine) TruncateTable(txID, name string) error {
	return e.run(txID, func(id string) error {
		return e.cat.TruncateTable(id, name)
	})
}

// DropColumn removes a column from a table's schema and records.
func (e *Engine) DropColumn(txID, table, column string) error {
	return e.run(txID, func(id string) error {
		return e.cat.DropColumn(id, table, column)
	})
}

// Insert adds a new record under key.
func (e *Engine) Insert(txID, table, key string, values []string) error {
	return e.run(txID, func(id string) error {
		return e.cat.Insert(id, table, key, values)
	})
}

// Update applies field edits to the record at key.
func (e *Engine) Update(txID, table, key string, updates map[string]string) error {
	return e.run(txID, func(id string) error {
		return e.cat.Update(id, table, key, updates)
	})
}

// Delete removes the record at key.
func (e *Engine) Delete(txID, table, key string) error {
	return e.run(txID, func(id string) error {
		return e.cat.Delete(id, table, key)
	})
}

// Get reads the record at key.
func (e *Engine) Get(txID, table, key string) (domain.Record, error) {
	return runResult(e, txID, func(id string) (domain.Record, error) {
		return e.cat.Get(id, table, key)
	})
}

// SelectColumns reads the requested columns of the record at key.
func (e *Engine) SelectColumns(txID, table, key string, columns []string) (domain.Record, error) {
	return runResult(e, txID, func(id string) (domain.Record, error) {
		return e.cat.SelectColumns(id, table, key, columns)
	})
}

// SelectAll returns every row of table, with no predicate.
func (e *Engine) SelectAll(txID, table string) ([]catalog.Row, error) {
	return runResult(e, txID, func(id string) ([]catalog.Row, error) {
		return e.cat.SelectAll(id, table)
	})
}

// SelectWhere evaluates column op value against every row of table.
func (e *Engine) SelectWhere(txID, table, column, op string, raw interface{}) ([]catalog.Row, error) {
	return runResult(e, txID, func(id string) ([]catalog.Row, error) {
		return e.cat.SelectWhere(id, table, column, op, raw)
	})
}

// GroupBy partitions table's rows by the value of column.
func (e *Engine) GroupBy(txID, table, column string) ([]catalog.Group, error) {
	return runResult(e, txID, func(id string) ([]catalog.Group, error) {
		return e.cat.GroupBy(id, table, column)
	})
}

// Having filters group_by buckets by a threshold on group size.
func (e *Engine) Having(txID, table, column, op, threshold string) ([]catalog.Group, error) {
	return runResult(e, txID, func(id string) ([]catalog.Group, error) {
		return e.cat.Having(id, table, column, op, threshold)
	})
}

// Distinct returns the unique values observed in table.column.
func (e *Engine) Distinct(txID, table, column string) ([]interface{}, error) {
	return runResult(e, txID, func(id string) ([]interface{}, error) {
		return e.cat.Distinct(id, table, column)
	})
}

// InnerJoin matches rows of two tables on equal column values.
func (e *Engine) InnerJoin(txID, leftTable, leftCol, rightTable, rightCol string) ([]catalog.JoinedRow, error) {
	return runResult(e, txID, func(id string) ([]catalog.JoinedRow, error) {
		return e.cat.InnerJoin(id, leftTable, leftCol, rightTable, rightCol)
	})
}

// Count returns the number of matching records, or every record in
// table when column is empty.
func (e *Engine) Count(txID, table, column, op string, raw interface{}) (int, error) {
	return runResult(e, txID, func(id string) (int, error) {
		return e.cat.Count(id, table, column, op, raw)
	})
}

// CreateIndex builds a secondary index on table.column.
func (e *Engine) CreateIndex(txID, table, column string) error {
	return e.run(txID, func(id string) error {
		return e.cat.CreateIndex(id, table, column)
	})
}

// DropIndex removes the secondary index on table.column.
func (e *Engine) DropIndex(txID, table, column string) error {
	return e.run(txID, func(id string) error {
		return e.cat.DropIndex(id, table, column)
	})
}

// HasIndex reports whether table.column carries a secondary index.
func (e *Engine) HasIndex(table, column string) bool {
	return e.cat.HasIndex(table, column)
}

// ListIndexes returns every "table.column" pair currently indexed.
func (e *Engine) ListIndexes() []string {
	return e.cat.ListIndexes()
}

// ListTables returns every table name.
func (e *Engine) ListTables() []string {
	return e.cat.ListTables()
}

// GetColumns returns a table's column declarations.
func (e *Engine) GetColumns(table string) ([]domain.Column, error) {
	return e.cat.GetColumns(table)
}
