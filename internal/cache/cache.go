package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sspzz/burn-stats/internal/logger"
	"github.com/sspzz/burn-stats/internal/models"
	"github.com/sspzz/burn-stats/internal/store"
)

// DefaultWindow is how long a computed dataset is served without recomputing.
const DefaultWindow = 20 * time.Minute

// ErrNoData is returned by Load when a dataset is absent or unreadable.
var ErrNoData = errors.New("no data found")

// Status describes a cached dataset at a point in time.
type Status struct {
	Present     bool // blob exists and carries a parseable lastUpdated
	LastUpdated time.Time
	Age         time.Duration
	Fresh       bool
}

// Gate decides whether a dataset must be recomputed and persists fresh results.
type Gate struct {
	Blobs  store.BlobStore
	Window time.Duration
	Log    *logger.Logger
}

func (g *Gate) window() time.Duration {
	if g.Window <= 0 {
		return DefaultWindow
	}
	return g.Window
}

// Check reads the cached blob for key. Missing, corrupt or unstamped blobs
// and storage read errors all count as a miss.
func (g *Gate) Check(ctx context.Context, key store.Key, now time.Time) Status {
	b, err := g.Blobs.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && g.Log != nil {
			g.Log.Warn("cache read failed, treating as miss", "key", key.String(), "error", err)
		}
		return Status{}
	}
	ms, ok := parseLastUpdated(b)
	if !ok {
		if g.Log != nil {
			g.Log.Warn("cached blob unusable, treating as miss", "key", key.String(), "bytes", len(b))
		}
		return Status{}
	}
	lu := time.UnixMilli(ms).UTC()
	age := now.Sub(lu)
	return Status{
		Present:     true,
		LastUpdated: lu,
		Age:         age,
		Fresh:       age < g.window(),
	}
}

// Save stamps ds with now and overwrites the blob at key.
func (g *Gate) Save(ctx context.Context, key store.Key, ds models.Dataset, now time.Time) error {
	ds.Stamp(now.UnixMilli())
	b, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := g.Blobs.Put(ctx, key, b); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Load returns the cached blob as stored. Absent or non-object JSON yields ErrNoData.
func (g *Gate) Load(ctx context.Context, key store.Key) ([]byte, error) {
	b, err := g.Blobs.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, err
	}
	if !isJSONObject(b) {
		return nil, ErrNoData
	}
	return b, nil
}

// Decode loads key into v.
func (g *Gate) Decode(ctx context.Context, key store.Key, v any) error {
	b, err := g.Load(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return ErrNoData
	}
	return nil
}

func isJSONObject(b []byte) bool {
	t := bytes.TrimSpace(b)
	return len(t) > 0 && t[0] == '{' && json.Valid(t)
}

func parseLastUpdated(b []byte) (int64, bool) {
	if !isJSONObject(b) {
		return 0, false
	}
	var s struct {
		LastUpdated *float64 `json:"lastUpdated"`
	}
	if err := json.Unmarshal(b, &s); err != nil || s.LastUpdated == nil {
		return 0, false
	}
	return int64(*s.LastUpdated), true
}
