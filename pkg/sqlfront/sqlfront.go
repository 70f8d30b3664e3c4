// Package sqlfront is the textual SQL-subset front-end of spec §6: a
// fixed set of anchored, case-insensitive patterns over a single-line
// statement, lowered into pkg/engine calls. It is external/non-core per
// spec §1 — the engine API underneath is complete without it.
//
// Grounded on oldui.py's parse_and_execute_query: the same 15 patterns,
// matched in the same order, with the same per-statement argument
// extraction (comma-split column lists, quoted/unquoted value literals,
// "col=value" update assignment pairs). The struct-of-compiled-patterns
// shape is grounded on pkg/parser/hints_parser.go's HintsParser.
package sqlfront

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kasuganosora/hashbase/pkg/domain"
	"github.com/kasuganosora/hashbase/pkg/engine"
)

// Frontend matches and lowers statements in the grammar of spec §6.
type Frontend struct {
	eng *engine.Engine

	create        *regexp.Regexp
	insert        *regexp.Regexp
	deleteRow     *regexp.Regexp
	update        *regexp.Regexp
	selectByKey   *regexp.Regexp
	deleteTable   *regexp.Regexp
	selectAll     *regexp.Regexp
	dropTable     *regexp.Regexp
	count         *regexp.Regexp
	selectColumns *regexp.Regexp
	selectWhere   *regexp.Regexp
	groupBy       *regexp.Regexp
	having        *regexp.Regexp
	distinct      *regexp.Regexp
	dropColumn    *regexp.Regexp

	valueLiteral  *regexp.Regexp
	assignment    *regexp.Regexp
}

// New builds a Frontend over eng.
func New(eng *engine.Engine) *Frontend {
	return &Frontend{
		eng: eng,

		create:        regexp.MustCompile(`(?i)^CREATE TABLE (\w+) \((.+)\) CONSTRAINTS \((.+)\)$`),
		insert:        regexp.MustCompile(`(?i)^INSERT INTO (\w+) VALUES \((.+)\)$`),
		deleteRow:     regexp.MustCompile(`(?i)^DELETE FROM (\w+) WHERE id=(\d+)$`),
		update:        regexp.MustCompile(`(?i)^UPDATE (\w+) SET (.+) WHERE id=(\d+)$`),
		selectByKey:   regexp.MustCompile(`(?i)^SELECT \* FROM (\w+) WHERE id=(\d+)$`),
		deleteTable:   regexp.MustCompile(`(?i)^DELETE TABLE (\w+)$`),
		selectAll:     regexp.MustCompile(`(?i)^SELECT \* FROM (\w+)$`),
		dropTable:     regexp.MustCompile(`(?i)^DROP TABLE (\w+)$`),
		count:         regexp.MustCompile(`(?i)^COUNT (\w+)$`),
		selectColumns: regexp.MustCompile(`(?i)^SELECT (.+) FROM (\w+) WHERE id=(\d+)$`),
		selectWhere:   regexp.MustCompile(`(?i)^SELECT \* FROM (\w+) WHERE (\w+)\s*(=|>|<|>=|<=|<>)\s*(\d+|"[^"]*")$`),
		groupBy:       regexp.MustCompile(`(?i)^SELECT (\w+), COUNT\(\*\) FROM (\w+) GROUP BY (\w+)$`),
		having:        regexp.MustCompile(`(?i)^SELECT (\w+), COUNT\(\*\) FROM (\w+) GROUP BY (\w+) HAVING COUNT\(\*\)\s*(=|>|<|>=|<=|<>)\s*(\d+)$`),
		distinct:      regexp.MustCompile(`(?i)^SELECT DISTINCT (\w+) FROM (\w+)$`),
		dropColumn:    regexp.MustCompile(`(?i)^ALTER TABLE (\w+) DROP COLUMN (\w+)$`),

		valueLiteral: regexp.MustCompile(`"([^"]*)"|'([^']*)'|([^,]+)`),
		assignment:   regexp.MustCompile(`(?i)(\w+)\s*=\s*("[^"]*"|'[^']*'|\d+|true|false)`),
	}
}

// ErrNoMatch reports a statement matching none of the grammar's patterns.
type ErrNoMatch struct {
	Query string
}

func (e *ErrNoMatch) Error() string {
	return fmt.Sprintf("invalid query syntax: %q", e.Query)
}

// Execute parses query and lowers it into the matching engine call,
// under txID (empty for an implicit transaction). The returned value's
// concrete type depends on the statement: domain.Record for
// single-row reads, []catalog.Row/[]catalog.Group/[]interface{} for the
// multi-row primitives, int for COUNT, nil for statements with no
// result.
func (f *Frontend) Execute(txID, query string) (interface{}, error) {
	query = strings.TrimSpace(query)

	switch {
	case f.create.MatchString(query):
		return nil, f.execCreate(txID, query)
	case f.insert.MatchString(query):
		return nil, f.execInsert(txID, query)
	case f.deleteRow.MatchString(query):
		m := f.deleteRow.FindStringSubmatch(query)
		return nil, f.eng.Delete(txID, strings.ToLower(m[1]), m[2])
	case f.update.MatchString(query):
		return nil, f.execUpdate(txID, query)
	case f.selectByKey.MatchString(query):
		m := f.selectByKey.FindStringSubmatch(query)
		return f.eng.Get(txID, strings.ToLower(m[1]), m[2])
	case f.selectColumns.MatchString(query):
		return f.execSelectColumns(txID, query)
	case f.selectWhere.MatchString(query):
		return f.execSelectWhere(txID, query)
	case f.selectAll.MatchString(query):
		m := f.selectAll.FindStringSubmatch(query)
		return f.eng.SelectAll(txID, strings.ToLower(m[1]))
	case f.deleteTable.MatchString(query):
		m := f.deleteTable.FindStringSubmatch(query)
		return nil, f.eng.TruncateTable(txID, strings.ToLower(m[1]))
	case f.dropTable.MatchString(query):
		m := f.dropTable.FindStringSubmatch(query)
		return nil, f.eng.DropTable(txID, strings.ToLower(m[1]))
	case f.count.MatchString(query):
		m := f.count.FindStringSubmatch(query)
		return f.eng.Count(txID, strings.ToLower(m[1]), "", "", nil)
	case f.having.MatchString(query):
		m := f.having.FindStringSubmatch(query)
		return f.eng.Having(txID, strings.ToLower(m[2]), strings.ToLower(m[3]), m[4], m[5])
	case f.groupBy.MatchString(query):
		m := f.groupBy.FindStringSubmatch(query)
		return f.eng.GroupBy(txID, strings.ToLower(m[2]), strings.ToLower(m[3]))
	case f.distinct.MatchString(query):
		m := f.distinct.FindStringSubmatch(query)
		return f.eng.Distinct(txID, strings.ToLower(m[2]), strings.ToLower(m[1]))
	case f.dropColumn.MatchString(query):
		m := f.dropColumn.FindStringSubmatch(query)
		return nil, f.eng.DropColumn(txID, strings.ToLower(m[1]), strings.ToLower(m[2]))
	}

	return nil, &ErrNoMatch{Query: query}
}

func (f *Frontend) execCreate(txID, query string) error {
	m := f.create.FindStringSubmatch(query)
	table, columnsPart, constraintsPart := strings.ToLower(m[1]), m[2], m[3]

	constraints := map[string][]domain.Constraint{}
	foreignKeys := map[string]string{}
	for _, decl := range strings.Split(constraintsPart, ",") {
		parts := strings.Fields(strings.TrimSpace(decl))
		if len(parts) < 2 {
			continue
		}
		col := strings.ToLower(parts[0])
		con := domain.Constraint(strings.ToLower(parts[1]))
		constraints[col] = append(constraints[col], con)
		if con == domain.ForeignKey && len(parts) == 3 {
			foreignKeys[col] = strings.ToLower(parts[2])
		}
	}

	var columns []domain.Column
	for _, decl := range strings.Split(columnsPart, ",") {
		parts := strings.Fields(strings.TrimSpace(decl))
		if len(parts) != 2 {
			return &domain.ErrBadColumnDecl{Decl: decl}
		}
		col := domain.Column{Name: strings.ToLower(parts[0]), Type: strings.ToLower(parts[1])}
		col.Constraints = constraints[col.Name]
		col.ForeignKey = foreignKeys[col.Name]
		columns = append(columns, col)
	}

	return f.eng.CreateTable(txID, table, columns)
}

func (f *Frontend) execInsert(txID, query string) error {
	m := f.insert.FindStringSubmatch(query)
	table := strings.ToLower(m[1])

	values := splitValueList(f.valueLiteral, m[2])
	if len(values) == 0 {
		return &domain.ErrColumnCount{Table: table, Expected: 0, Got: 0}
	}
	return f.eng.Insert(txID, table, values[0], values)
}

func splitValueList(pattern *regexp.Regexp, raw string) []string {
	matches := pattern.FindAllStringSubmatch(raw, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		switch {
		case m[1] != "":
			out = append(out, m[1])
		case m[2] != "":
			out = append(out, m[2])
		default:
			out = append(out, strings.TrimSpace(m[3]))
		}
	}
	return out
}

func (f *Frontend) execUpdate(txID, query string) error {
	m := f.update.FindStringSubmatch(query)
	table, assignments, key := strings.ToLower(m[1]), m[2], m[3]

	updates := make(map[string]string)
	for _, pair := range f.assignment.FindAllStringSubmatch(assignments, -1) {
		col, val := strings.ToLower(strings.TrimSpace(pair[1])), strings.TrimSpace(pair[2])
		if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') {
			val = val[1 : len(val)-1]
		}
		updates[col] = val
	}
	return f.eng.Update(txID, table, key, updates)
}

func (f *Frontend) execSelectColumns(txID, query string) (interface{}, error) {
	m := f.selectColumns.FindStringSubmatch(query)
	columnsPart, table, key := m[1], strings.ToLower(m[2]), m[3]

	var columns []string
	for _, c := range strings.Split(columnsPart, ",") {
		columns = append(columns, strings.ToLower(strings.TrimSpace(c)))
	}
	return f.eng.SelectColumns(txID, table, key, columns)
}

func (f *Frontend) execSelectWhere(txID, query string) (interface{}, error) {
	m := f.selectWhere.FindStringSubmatch(query)
	table, column, op, raw := strings.ToLower(m[1]), strings.ToLower(m[2]), m[3], m[4]

	val := raw
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		val = raw[1 : len(raw)-1]
	}
	return f.eng.SelectWhere(txID, table, column, op, val)
}
