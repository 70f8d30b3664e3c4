package index

import (
	"testing"

	"github.com/kasuganosora/hashbase/pkg/domain"
	"github.com/kasuganosora/hashbase/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records() map[string]domain.Record {
	return map[string]domain.Record{
		"k1": {"age": int64(20)},
		"k2": {"age": int64(30)},
		"k3": {"age": int64(30)},
	}
}

func TestCreateBackfillsAndLookupEquality(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Create("users", "age", records()))

	keys, ok := ix.Lookup("users", "age", value.Int, "=", int64(30))
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"k2", "k3"}, keys)
}

func TestLookupNoIndexReturnsFalse(t *testing.T) {
	ix := New()
	_, ok := ix.Lookup("users", "age", value.Int, "=", int64(30))
	assert.False(t, ok)
}

func TestLookupRangeOperators(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Create("users", "age", records()))

	keys, ok := ix.Lookup("users", "age", value.Int, ">", int64(20))
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"k2", "k3"}, keys)
}

func TestCreateTwiceFails(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Create("users", "age", records()))
	err := ix.Create("users", "age", records())
	assert.Error(t, err)
}

func TestDropIsIdempotentlyRejectedTwice(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Create("users", "age", records()))
	require.NoError(t, ix.Drop("users", "age"))
	err := ix.Drop("users", "age")
	assert.Error(t, err)
}

func TestAddRemoveUpdate(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Create("users", "age", map[string]domain.Record{}))

	ix.Add("users", "k1", domain.Record{"age": int64(10)})
	keys, ok := ix.Lookup("users", "age", value.Int, "=", int64(10))
	require.True(t, ok)
	assert.Equal(t, []string{"k1"}, keys)

	ix.Update("users", "age", "k1", int64(10), int64(20))
	keys, ok = ix.Lookup("users", "age", value.Int, "=", int64(20))
	require.True(t, ok)
	assert.Equal(t, []string{"k1"}, keys)

	ix.Remove("users", "k1", domain.Record{"age": int64(20)})
	keys, ok = ix.Lookup("users", "age", value.Int, "=", int64(20))
	require.True(t, ok)
	assert.Empty(t, keys)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Create("users", "age", records()))

	snap := ix.Snapshot()
	require.NoError(t, ix.Drop("users", "age"))
	assert.False(t, ix.Has("users", "age"))

	ix.Restore(snap)
	assert.True(t, ix.Has("users", "age"))
	keys, ok := ix.Lookup("users", "age", value.Int, "=", int64(30))
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"k2", "k3"}, keys)
}

func TestListAndDropTable(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Create("users", "age", records()))
	assert.Equal(t, []string{"users.age"}, ix.List())

	ix.DropTable("users")
	assert.Empty(t, ix.List())
}
