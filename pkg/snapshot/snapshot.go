// Package snapshot implements JSON persistence of the catalog and its
// indexes (spec §4.6 "Snapshot I/O").
//
// Grounded on oldengine.py's save_to_file/load_from_file: the
// {"tables":...,"indexes":...} envelope, the bare-catalog legacy format,
// and per-column-type value reconstruction on load are all reproduced
// here. The atomic write is the fix spec §9 names for the "two
// concurrent commits race on the file" limitation: write to a
// uuid-suffixed temp file in the target directory, then rename over the
// target, so a reader never observes a partially written file.
package snapshot

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/hashbase/pkg/catalog"
	"github.com/kasuganosora/hashbase/pkg/domain"
	"github.com/kasuganosora/hashbase/pkg/value"
)

type columnJSON struct {
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	Constraints []domain.Constraint `json:"constraints,omitempty"`
	ForeignKey  string              `json:"foreign_key,omitempty"`
}

type tableJSON struct {
	Columns []columnJSON                       `json:"columns"`
	Records map[string]map[string]interface{} `json:"records"`
}

type envelope struct {
	Tables  map[string]tableJSON                       `json:"tables"`
	Indexes map[string]map[string]map[string][]string  `json:"indexes,omitempty"`
}

// jsonValue renders a typed record field for JSON encoding. Only
// time.Time needs special handling (encoding/json has no native
// representation for it); every other type already has one and is
// passed through unchanged, mirroring oldengine.py's _json_serializer,
// which json.dump only ever invokes as its default= hook for the one
// type (datetime) the encoder can't already handle.
func jsonValue(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.Format(value.DatetimeLayout)
	}
	return v
}

// Write serializes cat to path via a write-temp-then-rename sequence so
// concurrent committers never leave a half-written file on disk.
func Write(cat *catalog.Catalog, path string) error {
	env := envelope{
		Tables:  make(map[string]tableJSON),
		Indexes: make(map[string]map[string]map[string][]string),
	}

	for name, t := range cat.Tables() {
		tj := tableJSON{Records: make(map[string]map[string]interface{}, len(t.Records))}
		for _, c := range t.Columns {
			tj.Columns = append(tj.Columns, columnJSON{
				Name:        c.Name,
				Type:        c.Type,
				Constraints: c.Constraints,
				ForeignKey:  c.ForeignKey,
			})
		}
		for key, rec := range t.Records {
			row := make(map[string]interface{}, len(rec))
			for col, v := range rec {
				row[col] = jsonValue(v)
			}
			tj.Records[key] = row
		}
		env.Tables[name] = tj
	}

	for table, cols := range cat.Indexer().Dump() {
		outCols := make(map[string]map[string][]string, len(cols))
		for col, idx := range cols {
			outIdx := make(map[string][]string, len(idx))
			for v, keys := range idx {
				outIdx[value.Format(v)] = keys
			}
			outCols[col] = outIdx
		}
		env.Indexes[table] = outCols
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Read loads path's tables and indexes into cat, which the caller has
// already constructed (wired to its own index manager and lock
// acquirer). A missing file leaves cat untouched (an empty catalog); a
// malformed file is logged and also leaves cat untouched, rather than
// crashing startup (spec §4.6).
func Read(path string, cat *catalog.Catalog) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Tables != nil {
		loadInto(cat, env)
		return
	}

	var legacy map[string]tableJSON
	if err := json.Unmarshal(data, &legacy); err == nil {
		loadInto(cat, envelope{Tables: legacy})
		return
	}

	log.Printf("snapshot: %s is malformed, starting from an empty catalog", path)
}

func loadInto(cat *catalog.Catalog, env envelope) {
	for name, tj := range env.Tables {
		columns := make([]domain.Column, len(tj.Columns))
		for i, cj := range tj.Columns {
			columns[i] = domain.Column{
				Name:        cj.Name,
				Type:        cj.Type,
				Constraints: cj.Constraints,
				ForeignKey:  cj.ForeignKey,
			}
		}
		records := make(map[string]domain.Record, len(tj.Records))
		for key, row := range tj.Records {
			rec := make(domain.Record, len(row))
			for _, col := range columns {
				raw, present := row[col.Name]
				if !present {
					continue
				}
				// encoding/json decodes numbers as float64, which %v renders as
				// "1e+06" for 1000000; plain decimal keeps int columns parseable.
				if f, isNum := raw.(float64); isNum {
					raw = strconv.FormatFloat(f, 'f', -1, 64)
				}
				v, err := value.Coerce(col.Name, value.Type(col.Type), raw)
				if err != nil {
					log.Printf("snapshot: table %q key %q column %q: %v, dropping field", name, key, col.Name, err)
					continue
				}
				rec[col.Name] = v
			}
			records[key] = rec
		}
		if err := cat.LoadTable(name, columns, records); err != nil {
			log.Printf("snapshot: table %q: %v, skipping", name, err)
		}
	}

	dump := make(map[string]map[string]map[interface{}][]string, len(env.Indexes))
	for table, cols := range env.Indexes {
		t := cat.Tables()[table]
		if t == nil {
			continue
		}
		outCols := make(map[string]map[interface{}][]string, len(cols))
		for col, idx := range cols {
			decl, ok := t.Column(col)
			if !ok {
				continue
			}
			outIdx := make(map[interface{}][]string, len(idx))
			for raw, keys := range idx {
				v, err := value.Coerce(col, value.Type(decl.Type), raw)
				if err != nil {
					continue
				}
				outIdx[v] = keys
			}
			outCols[col] = outIdx
		}
		dump[table] = outCols
	}
	cat.Indexer().LoadAll(dump)
}
