package catalog

import (
	"sort"

	"github.com/kasuganosora/hashbase/pkg/domain"
	"github.com/kasuganosora/hashbase/pkg/lock"
	"github.com/kasuganosora/hashbase/pkg/value"
)

// Row pairs a record with its external key, the shape every query
// primitive returns (ordering is never guaranteed across a map-backed
// store, spec §4.5).
type Row struct {
	Key    string
	Record domain.Record
}

// SelectWhere evaluates column op value against every row of table. When
// the column carries an index, it is used to narrow candidates and only
// the matched rows are read-locked; otherwise every row is scanned and
// read-locked in turn (spec §4.1 "select_where" / §4.2's no-index
// sentinel / §4.5's per-row scan locking).
func (c *Catalog) SelectWhere(txID, table, column, op string, raw interface{}) ([]Row, error) {
	t, ok := c.tables[table]
	if !ok {
		return nil, &domain.ErrTableNotFound{Table: table}
	}
	decl, ok := t.Column(column)
	if !ok {
		return nil, &domain.ErrColumnNotFound{Table: table, Column: column}
	}
	if !isComparisonOp(op) {
		return nil, &domain.ErrUnsupportedOperator{Operator: op}
	}

	var out []Row
	if keys, found := c.index.Lookup(table, column, value.Type(decl.Type), op, raw); found {
		for _, key := range keys {
			if err := c.locks.AcquireLock(txID, table, key, lock.Read); err != nil {
				return nil, err
			}
			if rec, ok := t.Records[key]; ok {
				out = append(out, Row{Key: key, Record: rec.Clone()})
			}
		}
		return out, nil
	}

	target, err := value.Coerce(column, value.Type(decl.Type), raw)
	if err != nil {
		return nil, err
	}
	for key, rec := range t.Records {
		if err := c.locks.AcquireLock(txID, table, key, lock.Read); err != nil {
			return nil, err
		}
		if evalOp(value.Compare(rec[column], target), op) {
			out = append(out, Row{Key: key, Record: rec.Clone()})
		}
	}
	return out, nil
}

// SelectAll returns every row of table under a single schema-level read
// lock, grounded on oldengine.py's select_all, a distinct method with no
// column/op involved at all (unlike SelectWhere, which requires a
// comparison predicate over a declared column).
func (c *Catalog) SelectAll(txID, table string) ([]Row, error) {
	_, rows, err := c.allRows(txID, table)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = Row{Key: row.Key, Record: row.Record.Clone()}
	}
	return out, nil
}

func isComparisonOp(op string) bool {
	switch op {
	case "=", ">", "<", ">=", "<=", "<>":
		return true
	}
	return false
}

func evalOp(cmp int, op string) bool {
	switch op {
	case "=":
		return cmp == 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case "<>":
		return cmp != 0
	}
	return false
}

// allRows takes the table's schema lock and returns every row, used by
// the aggregation primitives which only coarsen to a table-level lock
// rather than locking row by row (spec §4.5: "aggregations take a single
// schema-level read lock in place of per-row locking").
func (c *Catalog) allRows(txID, table string) (*Table, []Row, error) {
	t, ok := c.tables[table]
	if !ok {
		return nil, nil, &domain.ErrTableNotFound{Table: table}
	}
	if err := c.locks.AcquireLock(txID, table, lock.SchemaKey, lock.Read); err != nil {
		return nil, nil, err
	}
	out := make([]Row, 0, len(t.Records))
	for key, rec := range t.Records {
		out = append(out, Row{Key: key, Record: rec})
	}
	return t, out, nil
}

// Count returns the number of records in table, optionally restricted to
// those matching column op value.
func (c *Catalog) Count(txID, table, column, op string, raw interface{}) (int, error) {
	if column == "" {
		_, rows, err := c.allRows(txID, table)
		if err != nil {
			return 0, err
		}
		return len(rows), nil
	}
	rows, err := c.SelectWhere(txID, table, column, op, raw)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Distinct returns the unique values observed in table.column.
func (c *Catalog) Distinct(txID, table, column string) ([]interface{}, error) {
	t, rows, err := c.allRows(txID, table)
	if err != nil {
		return nil, err
	}
	if !t.HasColumn(column) {
		return nil, &domain.ErrColumnNotFound{Table: table, Column: column}
	}
	var out []interface{}
	for _, row := range rows {
		v, present := row.Record[column]
		if !present {
			continue
		}
		dup := false
		for _, seen := range out {
			if value.Equal(seen, v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return value.Compare(out[i], out[j]) < 0 })
	return out, nil
}

// Group is one group_by bucket: the grouping value and its member rows.
type Group struct {
	Value interface{}
	Rows  []Row
}

// GroupBy partitions table's rows by the value of column.
func (c *Catalog) GroupBy(txID, table, column string) ([]Group, error) {
	t, rows, err := c.allRows(txID, table)
	if err != nil {
		return nil, err
	}
	if !t.HasColumn(column) {
		return nil, &domain.ErrColumnNotFound{Table: table, Column: column}
	}

	var groups []Group
	for _, row := range rows {
		v := row.Record[column]
		placed := false
		for i := range groups {
			if value.Equal(groups[i].Value, v) {
				groups[i].Rows = append(groups[i].Rows, row)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, Group{Value: v, Rows: []Row{row}})
		}
	}
	sort.Slice(groups, func(i, j int) bool { return value.Compare(groups[i].Value, groups[j].Value) < 0 })
	return groups, nil
}

// Having filters group_by buckets by a threshold on aggregate count,
// coercing threshold as an int first and falling back to a raw string
// comparison when that fails (supplemented from original_source's
// HAVING clause handling, SPEC_FULL.md).
func (c *Catalog) Having(txID, table, column, op, threshold string) ([]Group, error) {
	groups, err := c.GroupBy(txID, table, column)
	if err != nil {
		return nil, err
	}

	n, numErr := value.Coerce("having", value.Int, threshold)
	var out []Group
	for _, g := range groups {
		count := len(g.Rows)
		var match bool
		if numErr == nil {
			match = evalOp(value.Compare(int64(count), n), op)
		} else {
			match = evalOp(value.Compare(fmtCount(count), threshold), op)
		}
		if match {
			out = append(out, g)
		}
	}
	return out, nil
}

func fmtCount(n int) string {
	return value.Format(int64(n))
}

// InnerJoin matches rows of left and right where left.leftCol equals
// right.rightCol, only taking each table's schema-level read lock (spec
// §4.5, same coarsening as the other aggregation primitives).
func (c *Catalog) InnerJoin(txID, leftTable, leftCol, rightTable, rightCol string) ([]JoinedRow, error) {
	lt, lrows, err := c.allRows(txID, leftTable)
	if err != nil {
		return nil, err
	}
	rt, rrows, err := c.allRows(txID, rightTable)
	if err != nil {
		return nil, err
	}
	if !lt.HasColumn(leftCol) {
		return nil, &domain.ErrColumnNotFound{Table: leftTable, Column: leftCol}
	}
	if !rt.HasColumn(rightCol) {
		return nil, &domain.ErrColumnNotFound{Table: rightTable, Column: rightCol}
	}

	var out []JoinedRow
	for _, l := range lrows {
		for _, r := range rrows {
			if value.Equal(l.Record[leftCol], r.Record[rightCol]) {
				out = append(out, JoinedRow{Left: l, Right: r})
			}
		}
	}
	return out, nil
}

// JoinedRow is one matched pair produced by InnerJoin.
type JoinedRow struct {
	Left  Row
	Right Row
}
