package txn

import (
	"testing"

	"github.com/kasuganosora/hashbase/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	value    int
	restored int
}

func (f *fakeStore) Snapshot() interface{} {
	return f.value
}

func (f *fakeStore) Restore(snap interface{}) {
	f.restored = snap.(int)
}

func TestBeginDuplicateFails(t *testing.T) {
	locks := lock.New(nil)
	store := &fakeStore{}
	m := New(locks, store, 0)

	require.NoError(t, m.Begin("t1"))
	assert.Error(t, m.Begin("t1"))
}

func TestCommitReleasesLocks(t *testing.T) {
	locks := lock.New(nil)
	store := &fakeStore{}
	m := New(locks, store, 0)

	require.NoError(t, m.Begin("t1"))
	require.NoError(t, m.AcquireLock("t1", "users", "1", lock.Write))
	require.NoError(t, m.Commit("t1"))

	assert.True(t, locks.Acquire("t2", "users", "1", lock.Write))
}

func TestRollbackRestoresSnapshotAndReleasesLocks(t *testing.T) {
	locks := lock.New(nil)
	store := &fakeStore{value: 7}
	m := New(locks, store, 0)

	require.NoError(t, m.Begin("t1"))
	require.NoError(t, m.AcquireLock("t1", "users", "1", lock.Write))
	store.value = 99
	require.NoError(t, m.Rollback("t1"))

	assert.Equal(t, 7, store.restored)
	assert.True(t, locks.Acquire("t2", "users", "1", lock.Write))
}

func TestCommitOnInactiveFails(t *testing.T) {
	locks := lock.New(nil)
	store := &fakeStore{}
	m := New(locks, store, 0)

	require.NoError(t, m.Begin("t1"))
	require.NoError(t, m.Commit("t1"))
	assert.Error(t, m.Commit("t1"))
}

func TestNextImplicitIDIncrements(t *testing.T) {
	m := New(lock.New(nil), &fakeStore{}, 0)
	a := m.NextImplicitID()
	b := m.NextImplicitID()
	assert.NotEqual(t, a, b)
	assert.Equal(t, "implicit_transaction_1", a)
	assert.Equal(t, "implicit_transaction_2", b)
}

func TestLogOperationCapsLength(t *testing.T) {
	m := New(lock.New(nil), &fakeStore{}, 2)
	require.NoError(t, m.Begin("t1"))
	m.LogOperation("t1", "insert", "users", "1")
	m.LogOperation("t1", "insert", "users", "2")
	m.LogOperation("t1", "insert", "users", "3")

	tx, err := m.get("t1")
	require.NoError(t, err)
	ops := tx.Operations()
	assert.Len(t, ops, 2)
	assert.Equal(t, []interface{}{"users", "3"}, ops[1].Args)
}

func TestAcquireLockRefusalSurfacesError(t *testing.T) {
	locks := lock.New(nil)
	m := New(locks, &fakeStore{}, 0)
	require.NoError(t, m.Begin("t1"))
	require.NoError(t, m.Begin("t2"))

	require.NoError(t, m.AcquireLock("t1", "users", "1", lock.Write))
	err := m.AcquireLock("t2", "users", "1", lock.Write)
	assert.Error(t, err)
}

func TestIsActive(t *testing.T) {
	m := New(lock.New(nil), &fakeStore{}, 0)
	assert.False(t, m.IsActive("t1"))
	require.NoError(t, m.Begin("t1"))
	assert.True(t, m.IsActive("t1"))
	require.NoError(t, m.Commit("t1"))
	assert.False(t, m.IsActive("t1"))
}
