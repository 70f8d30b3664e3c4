package catalog

import "github.com/kasuganosora/hashbase/pkg/domain"

// Table is one table's schema and records (spec §3 "Table").
type Table struct {
	Columns     []domain.Column          // insertion order = positional INSERT order
	columnIndex map[string]int           // folded column name -> index into Columns
	Records     map[string]domain.Record // external key -> record
	PrimaryKey  string                   // folded column name, "" if none
	ForeignKeys map[string]string        // folded local column -> "table.column"
}

func newTable(columns []domain.Column) *Table {
	t := &Table{
		Columns:     columns,
		columnIndex: make(map[string]int, len(columns)),
		Records:     make(map[string]domain.Record),
		ForeignKeys: make(map[string]string),
	}
	for i, c := range columns {
		t.columnIndex[c.Name] = i
		if c.Has(domain.PrimaryKey) {
			t.PrimaryKey = c.Name
		}
		if c.Has(domain.ForeignKey) && c.ForeignKey != "" {
			t.ForeignKeys[c.Name] = c.ForeignKey
		}
	}
	return t
}

// Column returns the column declaration for name, if present.
func (t *Table) Column(name string) (domain.Column, bool) {
	i, ok := t.columnIndex[name]
	if !ok {
		return domain.Column{}, false
	}
	return t.Columns[i], true
}

// HasColumn reports whether name is a declared column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columnIndex[name]
	return ok
}

func (t *Table) dropColumn(name string) {
	idx, ok := t.columnIndex[name]
	if !ok {
		return
	}
	t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)
	delete(t.columnIndex, name)
	for i := idx; i < len(t.Columns); i++ {
		t.columnIndex[t.Columns[i].Name] = i
	}
	if t.PrimaryKey == name {
		t.PrimaryKey = ""
	}
	delete(t.ForeignKeys, name)
	for key, rec := range t.Records {
		delete(rec, name)
		t.Records[key] = rec
	}
}

func (t *Table) clone() *Table {
	cols := make([]domain.Column, len(t.Columns))
	copy(cols, t.Columns)
	out := newTable(cols)
	for k, v := range t.Records {
		out.Records[k] = v.Clone()
	}
	return out
}
