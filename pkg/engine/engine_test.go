package engine

import (
	"path/filepath"
	"testing"

	"github.com/kasuganosora/hashbase/pkg/config"
	"github.com/kasuganosora/hashbase/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	cfg := config.DefaultConfig()
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "hashbase.json")
	return New(cfg)
}

func usersColumns() []domain.Column {
	return []domain.Column{
		{Name: "id", Type: "int", Constraints: []domain.Constraint{domain.PrimaryKey}},
		{Name: "name", Type: "string"},
		{Name: "age", Type: "int"},
	}
}

func TestImplicitTransactionCommitsAndFlushes(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("", "users", usersColumns()))
	require.NoError(t, e.Insert("", "users", "k1", []string{"1", "alice", "30"}))

	rec, err := e.Get("", "users", "k1")
	require.NoError(t, err)
	assert.Equal(t, "alice", rec["name"])

	reloaded := New(config.DefaultConfig())
	reloaded.cfg.Snapshot.Path = e.cfg.Snapshot.Path
	reloaded.Load()

	rec, err = reloaded.Get("", "users", "k1")
	require.NoError(t, err)
	assert.Equal(t, "alice", rec["name"])
}

func TestImplicitTransactionRollsBackOnError(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("", "users", usersColumns()))
	require.NoError(t, e.Insert("", "users", "k1", []string{"1", "alice", "30"}))

	err := e.Insert("", "users", "k1", []string{"2", "bob", "40"})
	assert.Error(t, err)

	rec, err := e.Get("", "users", "k1")
	require.NoError(t, err)
	assert.Equal(t, "alice", rec["name"])
}

func TestExplicitTransactionSpansMultipleOperations(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("", "users", usersColumns()))

	require.NoError(t, e.BeginTransaction("tx1"))
	require.NoError(t, e.Insert("tx1", "users", "k1", []string{"1", "alice", "30"}))
	require.NoError(t, e.Insert("tx1", "users", "k2", []string{"2", "bob", "40"}))
	require.NoError(t, e.CommitTransaction("tx1"))

	n, err := e.Count("", "users", "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestExplicitTransactionRollback(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("", "users", usersColumns()))
	require.NoError(t, e.Insert("", "users", "k1", []string{"1", "alice", "30"}))

	require.NoError(t, e.BeginTransaction("tx1"))
	require.NoError(t, e.Delete("tx1", "users", "k1"))
	require.NoError(t, e.RollbackTransaction("tx1"))

	rec, err := e.Get("", "users", "k1")
	require.NoError(t, err)
	assert.Equal(t, "alice", rec["name"])
}

func TestUnknownExplicitTransactionRejected(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("", "users", usersColumns()))
	err := e.Insert("no-such-tx", "users", "k1", []string{"1", "alice", "30"})
	assert.Error(t, err)
}

func TestSelectWhereAndIndexLifecycle(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("", "users", usersColumns()))
	require.NoError(t, e.Insert("", "users", "k1", []string{"1", "alice", "30"}))
	require.NoError(t, e.Insert("", "users", "k2", []string{"2", "bob", "40"}))

	require.NoError(t, e.CreateIndex("", "users", "age"))
	assert.True(t, e.HasIndex("users", "age"))
	assert.Equal(t, []string{"users.age"}, e.ListIndexes())

	rows, err := e.SelectWhere("", "users", "age", ">", "35")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "k2", rows[0].Key)

	require.NoError(t, e.DropIndex("", "users", "age"))
	assert.False(t, e.HasIndex("users", "age"))
}

func TestSelectAllReturnsEveryRow(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("", "users", usersColumns()))
	require.NoError(t, e.Insert("", "users", "k1", []string{"1", "alice", "30"}))
	require.NoError(t, e.Insert("", "users", "k2", []string{"2", "bob", "40"}))

	rows, err := e.SelectAll("", "users")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestGroupByHavingDistinctJoin(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("", "users", usersColumns()))
	require.NoError(t, e.Insert("", "users", "k1", []string{"1", "alice", "30"}))
	require.NoError(t, e.Insert("", "users", "k2", []string{"2", "bob", "30"}))
	require.NoError(t, e.Insert("", "users", "k3", []string{"3", "carl", "40"}))

	groups, err := e.GroupBy("", "users", "age")
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	having, err := e.Having("", "users", "age", ">=", "2")
	require.NoError(t, err)
	require.Len(t, having, 1)

	distinct, err := e.Distinct("", "users", "age")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(30), int64(40)}, distinct)

	orders := []domain.Column{
		{Name: "id", Type: "int", Constraints: []domain.Constraint{domain.PrimaryKey}},
		{Name: "user_id", Type: "int"},
	}
	require.NoError(t, e.CreateTable("", "orders", orders))
	require.NoError(t, e.Insert("", "orders", "o1", []string{"10", "1"}))

	joined, err := e.InnerJoin("", "users", "id", "orders", "user_id")
	require.NoError(t, err)
	require.Len(t, joined, 1)
}

func TestTruncateAndDropTable(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("", "users", usersColumns()))
	require.NoError(t, e.Insert("", "users", "k1", []string{"1", "alice", "30"}))

	require.NoError(t, e.TruncateTable("", "users"))
	_, err := e.Get("", "users", "k1")
	assert.Error(t, err)
	assert.Contains(t, e.ListTables(), "users")

	require.NoError(t, e.DropTable("", "users"))
	assert.NotContains(t, e.ListTables(), "users")
}
