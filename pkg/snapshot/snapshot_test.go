package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kasuganosora/hashbase/pkg/catalog"
	"github.com/kasuganosora/hashbase/pkg/domain"
	"github.com/kasuganosora/hashbase/pkg/index"
	"github.com/kasuganosora/hashbase/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAll struct{}

func (allowAll) AcquireLock(string, string, string, lock.Mode) error { return nil }

func usersColumns() []domain.Column {
	return []domain.Column{
		{Name: "id", Type: "int", Constraints: []domain.Constraint{domain.PrimaryKey}},
		{Name: "name", Type: "string"},
		{Name: "created_at", Type: "datetime"},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	cat := catalog.New(index.New(), allowAll{})
	require.NoError(t, cat.CreateTable("tx1", "users", usersColumns()))
	require.NoError(t, cat.Insert("tx1", "users", "k1", []string{"1", "alice", "2024-01-02 15:04:05"}))
	require.NoError(t, cat.CreateIndex("tx1", "users", "name"))

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, Write(cat, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id": 1`, "non-datetime fields must serialize as native JSON, not strings")
	assert.NotContains(t, string(raw), `"id": "1"`)

	loaded := catalog.New(index.New(), allowAll{})
	Read(path, loaded)

	rec, err := loaded.Get("tx1", "users", "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec["id"])
	assert.Equal(t, "alice", rec["name"])

	assert.True(t, loaded.HasIndex("users", "name"))
	rows, err := loaded.SelectWhere("tx1", "users", "name", "=", "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "k1", rows[0].Key)
}

func TestReadMissingFileLeavesCatalogEmpty(t *testing.T) {
	cat := catalog.New(index.New(), allowAll{})
	Read(filepath.Join(t.TempDir(), "missing.json"), cat)
	assert.Empty(t, cat.ListTables())
}

func TestReadMalformedFileLeavesCatalogEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	cat := catalog.New(index.New(), allowAll{})
	Read(path, cat)
	assert.Empty(t, cat.ListTables())
}

func TestReadLegacyBareCatalogFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.json")
	legacy := `{"users":{"columns":[{"name":"id","type":"int"}],"records":{"k1":{"id":7}}}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	cat := catalog.New(index.New(), allowAll{})
	Read(path, cat)

	rec, err := cat.Get("tx1", "users", "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec["id"])
}

