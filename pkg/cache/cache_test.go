package cache

import (
	"testing"
	"time"

	"github.com/Honestpuck/jss-tools/internal/metrics"
	"github.com/Honestpuck/jss-tools/pkg/normalize"
	"github.com/Honestpuck/jss-tools/pkg/record"
	"github.com/Honestpuck/jss-tools/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func category(t *testing.T) *normalize.Record {
	t.Helper()
	n, err := normalize.Extract(record.MustParse(`<category><id>4</id><name>Utilities</name></category>`), schema.Category())
	require.NoError(t, err)
	return n
}

func TestCache(t *testing.T) {
	m, err := metrics.New("test")
	require.NoError(t, err)
	h, err := New(nil, m)
	require.NoError(t, err)

	_, ok := h.Get("categories", "4")
	assert.False(t, ok)

	rec := category(t)
	h.Set("categories", "4", rec)
	got, ok := h.Get("categories", "4")
	require.True(t, ok)
	assert.Same(t, rec, got)
	assert.Equal(t, 1, h.Len())

	_, ok = h.Get("computers", "4")
	assert.False(t, ok, "keys include the resource")

	h.Invalidate("categories", "4")
	_, ok = h.Get("categories", "4")
	assert.False(t, ok)

	h.Set("categories", "4", rec)
	h.Flush()
	assert.Equal(t, 0, h.Len())

	alive, err := h.Ping()
	require.NoError(t, err)
	assert.True(t, alive)
}

func TestCacheExpiry(t *testing.T) {
	m, err := metrics.New("test")
	require.NoError(t, err)
	h, err := New(&Config{TTL: 20 * time.Millisecond, CleanupInterval: time.Minute}, m)
	require.NoError(t, err)

	h.Set("categories", "4", category(t))
	time.Sleep(40 * time.Millisecond)
	_, ok := h.Get("categories", "4")
	assert.False(t, ok)
}
