package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheMethodAndTypeDoNotCollide(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	c.PutMethod(1, "method-one")
	c.PutType(1, "type-one")

	m, ok := c.GetMethod(1)
	require.True(t, ok)
	assert.Equal(t, "method-one", m)

	ty, ok := c.GetType(1)
	require.True(t, ok)
	assert.Equal(t, "type-one", ty)
}

func TestCacheMiss(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	_, ok := c.GetMethod(999)
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	c.PutMethod(1, "a")
	c.PutType(2, "b")
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())

	_, ok := c.GetMethod(1)
	assert.False(t, ok)
}

func TestCacheEviction(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.PutMethod(1, "a")
	c.PutMethod(2, "b")
	c.PutMethod(3, "c") // evicts id 1 (least recently used)

	_, ok := c.GetMethod(1)
	assert.False(t, ok, "oldest entry should have been evicted")

	_, ok = c.GetMethod(3)
	assert.True(t, ok)
}
