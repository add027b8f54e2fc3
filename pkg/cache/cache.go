package cache

import (
	"time"

	"github.com/Honestpuck/jss-tools/internal/metrics"
	"github.com/Honestpuck/jss-tools/pkg/normalize"
	cache_pkg "github.com/patrickmn/go-cache"
)

// Config controls how long normalized records are kept.
type Config struct {
	TTL             time.Duration `json:"ttl" yaml:"ttl" default:"5m"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval" default:"10m"`
}

// Handler caches normalized records by resource and id. Cached records are
// shared; callers must not modify them.
type Handler struct {
	client *cache_pkg.Cache
	metric *metrics.Handler
}

func New(cfg *Config, m *metrics.Handler) (*Handler, error) {
	ttl, cleanup := 5*time.Minute, 10*time.Minute
	if cfg != nil {
		if cfg.TTL > 0 {
			ttl = cfg.TTL
		}
		if cfg.CleanupInterval > 0 {
			cleanup = cfg.CleanupInterval
		}
	}
	client := cache_pkg.New(ttl, cleanup)
	return &Handler{
		client: client,
		metric: m,
	}, nil
}

// Key builds the cache key for a record.
func Key(resource, id string) string {
	return resource + "/" + id
}

// Get returns the cached record, if any.
func (h *Handler) Get(resource, id string) (*normalize.Record, bool) {
	v, ok := h.client.Get(Key(resource, id))
	if ok {
		if rec, isRec := v.(*normalize.Record); isRec {
			h.metric.IncCacheLookup(true)
			return rec, true
		}
	}
	h.metric.IncCacheLookup(false)
	return nil, false
}

// Set stores rec with the default expiration.
func (h *Handler) Set(resource, id string, rec *normalize.Record) {
	h.client.Set(Key(resource, id), rec, cache_pkg.DefaultExpiration)
}

// Invalidate drops a record, typically after it was written back.
func (h *Handler) Invalidate(resource, id string) {
	h.client.Delete(Key(resource, id))
}

// Flush drops every record.
func (h *Handler) Flush() {
	h.client.Flush()
}

// Len returns the number of cached records, including expired ones not yet
// cleaned up.
func (h *Handler) Len() int {
	return h.client.ItemCount()
}

func (h *Handler) Ping() (bool, error) {
	return true, nil
}
