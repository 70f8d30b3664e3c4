package catalog

// snapshot is the deep-copied catalog state captured at Begin and
// restored on Rollback (spec §3 "Transaction state": "snapshot: deep
// copy of the entire catalog at begin"). Keeping the index state in the
// same snapshot ensures indexes stay coherent with the records they
// point at across a rollback (spec §8 "index coherence" invariant).
type snapshot struct {
	tables map[string]*Table
	index  interface{}
}

// Snapshot implements txn.Snapshotter by structural typing: it returns
// an opaque deep copy of every table and every index, to be handed back
// to Restore unmodified.
func (c *Catalog) Snapshot() interface{} {
	tables := make(map[string]*Table, len(c.tables))
	for name, t := range c.tables {
		tables[name] = t.clone()
	}
	return &snapshot{tables: tables, index: c.index.Snapshot()}
}

// Restore implements txn.Snapshotter, replacing the live catalog and
// index state with a previously captured Snapshot.
func (c *Catalog) Restore(snap interface{}) {
	s, ok := snap.(*snapshot)
	if !ok || s == nil {
		return
	}
	tables := make(map[string]*Table, len(s.tables))
	for name, t := range s.tables {
		tables[name] = t.clone()
	}
	c.tables = tables
	c.index.Restore(s.index)
}
