package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sspzz/burn-stats/internal/aggregator"
	"github.com/sspzz/burn-stats/internal/api"
	"github.com/sspzz/burn-stats/internal/cache"
	"github.com/sspzz/burn-stats/internal/config"
	"github.com/sspzz/burn-stats/internal/logger"
	"github.com/sspzz/burn-stats/internal/mock"
	"github.com/sspzz/burn-stats/internal/store"
)

// every backend reports its write time to burnctl show
var (
	_ store.WriteTimer = (*cache.Redis)(nil)
	_ store.WriteTimer = (*store.Postgres)(nil)
	_ store.WriteTimer = (*store.GCS)(nil)
	_ store.WriteTimer = (*mock.MockStore)(nil)
)

func testConfig() config.Common {
	return config.Common{
		BlobBackend:     config.BackendRedis,
		FreshnessWindow: 20 * time.Minute,
		Reservoir:       config.Reservoir{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		Datasets: config.Datasets{
			FlameContract:         "0x31158181b4b91a423bfdc758fc3bf8735711f9c5",
			FlameTokenID:          "0",
			WizardContract:        "0x521f9c7505005cfa19a8e5786a9c3c9c9f5e6f42",
			TransferMaxPages:      30,
			TransferPageLimit:     1000,
			OwnersPageLimit:       500,
			OwnersMaxPages:        1,
			OwnerTokensLimit:      100,
			OwnerFetchConcurrency: 8,
		},
	}
}

func TestWireFlameAndShame(t *testing.T) {
	a, err := Wire(testConfig(), logger.Nop(), mock.NewMockStore())
	require.NoError(t, err)

	jobs := a.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "leaderboard:flame", jobs[0].Name())
	assert.Equal(t, store.FlameLeaderboard, jobs[0].Key())
	assert.Equal(t, "shame", jobs[1].Name())
	assert.Equal(t, store.ShameList, jobs[1].Key())

	lb := a.Leaderboards[api.FilterFlame].(*aggregator.LeaderboardJob)
	assert.Equal(t, "0x31158181b4b91a423bfdc758fc3bf8735711f9c5:0", lb.Token)
	assert.Equal(t, 30, lb.MaxPages)
	assert.Equal(t, "0x521f9c7505005cfa19a8e5786a9c3c9c9f5e6f42", a.Shame.PairCollection)
	assert.Equal(t, 20*time.Minute, a.Gate.Window)

	h := a.Handler("tok")
	assert.Equal(t, "tok", h.JobToken)
	assert.Same(t, a.Runner, h.Runner)
}

func TestWireTreatBox(t *testing.T) {
	cfg := testConfig()
	cfg.Datasets.TreatBoxToken = "0x59775fd5f266c216d7566eb216153ab8863c9c84:1"

	a, err := Wire(cfg, logger.Nop(), mock.NewMockStore())
	require.NoError(t, err)

	jobs := a.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, "leaderboard:treatBox", jobs[1].Name())
	assert.Equal(t, store.TreatBoxLeaderboard, jobs[1].Key())
}

func TestWireRejectsBadTreatBoxToken(t *testing.T) {
	for _, tok := range []string{"nocolon", "0x59775fd5f266c216d7566eb216153ab8863c9c84:", "0xabc:1", "0x59775fd5f266c216d7566eb216153ab8863c9c84:x"} {
		cfg := testConfig()
		cfg.Datasets.TreatBoxToken = tok
		_, err := Wire(cfg, logger.Nop(), mock.NewMockStore())
		assert.Error(t, err, tok)
	}
}

func TestOpenBlobStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	blobs, err := OpenBlobStore(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer blobs.Close()

	require.NoError(t, blobs.Put(context.Background(), store.ShameList, []byte(`{"owners":[]}`)))
	got, err := blobs.Get(context.Background(), store.ShameList)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owners":[]}`, string(got))

	wt, ok := blobs.(store.WriteTimer)
	require.True(t, ok)
	at, err := wt.WrittenAt(context.Background(), store.ShameList)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestOpenBlobStoreErrors(t *testing.T) {
	cfg := testConfig()
	cfg.BlobBackend = "s3"
	_, err := OpenBlobStore(context.Background(), cfg, logger.Nop())
	assert.ErrorContains(t, err, "unsupported BLOB_BACKEND")

	cfg.BlobBackend = config.BackendGCS
	cfg.GCSBucket = ""
	_, err = OpenBlobStore(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
