package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_ExpiresByInjectedNow(t *testing.T) {
	now := time.Date(2025, 8, 14, 10, 0, 0, 0, time.UTC)
	c := NewTTLCacheWithNow[string, int](func() time.Time { return now })

	c.Set("a", 1, time.Hour)

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	now = now.Add(time.Hour + time.Second)

	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_SweepDropsOnlyExpired(t *testing.T) {
	now := time.Date(2025, 8, 14, 10, 0, 0, 0, time.UTC)
	c := NewTTLCacheWithNow[string, int](func() time.Time { return now })

	c.Set("short", 1, time.Minute)
	c.Set("long", 2, time.Hour)
	assert.Equal(t, 2, c.Len())

	now = now.Add(10 * time.Minute)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("long")
	assert.True(t, ok)
}

func TestTTLCache_ZeroTTLIsNoop(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, 0)
	assert.Equal(t, 0, c.Len())
}
