package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_PreservesInsertionOrder(t *testing.T) {
	rec := NewRecord().
		Set("zeta", 1).
		Set("alpha", 2).
		Set("mid", 3)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, rec.Names())
	assert.Equal(t, 3, rec.Len())
}

func TestRecord_SetReplacesInPlace(t *testing.T) {
	rec := NewRecord().Set("a", 1).Set("b", 2)
	rec.Set("a", "updated")

	assert.Equal(t, []string{"a", "b"}, rec.Names())
	v, ok := rec.Get("a")
	require.True(t, ok)
	assert.Equal(t, "updated", v)
}

func TestRecord_GetAndHas(t *testing.T) {
	rec := NewRecord().Set("present", nil)

	assert.True(t, rec.Has("present"))
	assert.False(t, rec.Has("absent"))

	v, ok := rec.Get("present")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = rec.Get("absent")
	assert.False(t, ok)
}

func TestRecord_SelfReference(t *testing.T) {
	rec := NewRecord()
	rec.Set("self", rec)

	v, ok := rec.Get("self")
	require.True(t, ok)
	assert.Same(t, rec, v)
}

func TestRecord_Empty(t *testing.T) {
	rec := NewRecord()
	assert.Equal(t, 0, rec.Len())
	assert.Empty(t, rec.Names())
}
