package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoadsOnceUntilInvalidated(t *testing.T) {
	c := New[[]string]("test", 10, time.Minute)
	defer c.Stop()

	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"Pool", "Garden"}, nil
	}

	v, err := c.Get("features", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pool", "Garden"}, v)

	_, err = c.Get("features", load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	c.Invalidate()
	_, err = c.Get("features", load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetDoesNotCacheErrors(t *testing.T) {
	c := New[int]("test", 10, time.Minute)
	defer c.Stop()

	_, err := c.Get("k", func() (int, error) { return 0, errors.New("db down") })
	require.Error(t, err)

	v, err := c.Get("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestExpiredEntryReloads(t *testing.T) {
	c := New[int]("test", 10, time.Millisecond)
	defer c.Stop()

	n := 0
	load := func() (int, error) { n++; return n, nil }

	first, _ := c.Get("k", load)
	time.Sleep(5 * time.Millisecond)
	second, _ := c.Get("k", load)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}
