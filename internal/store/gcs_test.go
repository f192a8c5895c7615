package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a running emulator (fake-gcs-server) and an existing bucket.
func TestGCSEmulatorRoundTrip(t *testing.T) {
	host := os.Getenv("GCS_TEST_EMULATOR_HOST")
	bucket := os.Getenv("GCS_TEST_BUCKET")
	if host == "" || bucket == "" {
		t.Skip("GCS_TEST_EMULATOR_HOST / GCS_TEST_BUCKET not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	g, err := NewGCS(ctx, bucket, host)
	require.NoError(t, err)
	defer g.Close()

	key := Key{Bucket: "test", Name: time.Now().Format("20060102150405.000")}
	_, err = g.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = g.WrittenAt(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, g.Put(ctx, key, []byte(`{"owners":[]}`)))
	got, err := g.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owners":[]}`, string(got))

	at, err := g.WrittenAt(ctx, key)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestNewGCSRequiresBucket(t *testing.T) {
	_, err := NewGCS(context.Background(), " ", "")
	assert.Error(t, err)
}
