package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceInt(t *testing.T) {
	v, err := Coerce("age", Int, "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = Coerce("age", Int, "4a2")
	assert.Error(t, err)

	_, err = Coerce("age", Int, "-1")
	assert.Error(t, err)
}

func TestCoerceFloat(t *testing.T) {
	v, err := Coerce("price", Float, "3.14")
	require.NoError(t, err)
	assert.Equal(t, 3.14, v)
}

func TestCoerceBool(t *testing.T) {
	for _, s := range []string{"true", "1", "t", "y", "yes", "YES"} {
		v, err := Coerce("ok", Bool, s)
		require.NoError(t, err)
		assert.Equal(t, true, v)
	}
	for _, s := range []string{"false", "0", "f", "n", "no"} {
		v, err := Coerce("ok", Bool, s)
		require.NoError(t, err)
		assert.Equal(t, false, v)
	}
	_, err := Coerce("ok", Bool, "maybe")
	assert.Error(t, err)
}

func TestCoerceChar(t *testing.T) {
	v, err := Coerce("grade", Char, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", v)

	_, err = Coerce("grade", Char, "AB")
	assert.Error(t, err)
}

func TestCoerceDatetime(t *testing.T) {
	v, err := Coerce("created_at", Datetime, "2024-01-02 15:04:05")
	require.NoError(t, err)
	ts, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())

	_, err = Coerce("created_at", Datetime, "01/02/2024")
	assert.Error(t, err)
}

func TestCoerceStringUnquotes(t *testing.T) {
	v, err := Coerce("name", String, "'bob'")
	require.NoError(t, err)
	assert.Equal(t, "bob", v)

	v, err = Coerce("name", String, `"bob"`)
	require.NoError(t, err)
	assert.Equal(t, "bob", v)

	v, err = Coerce("name", String, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", v)
}

func TestCoercePassthroughAlreadyTyped(t *testing.T) {
	v, err := Coerce("age", Int, int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "42", Format(int64(42)))
	ts, _ := time.Parse(DatetimeLayout, "2024-01-02 15:04:05")
	assert.Equal(t, "2024-01-02 15:04:05", Format(ts))
}

func TestValidType(t *testing.T) {
	assert.True(t, ValidType("int"))
	assert.True(t, ValidType("datetime"))
	assert.False(t, ValidType("blob"))
}
