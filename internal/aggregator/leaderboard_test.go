package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sspzz/burn-stats/internal/cache"
	"github.com/sspzz/burn-stats/internal/logger"
	"github.com/sspzz/burn-stats/internal/metrics"
	"github.com/sspzz/burn-stats/internal/mock"
	"github.com/sspzz/burn-stats/internal/models"
	"github.com/sspzz/burn-stats/internal/reservoir"
	"github.com/sspzz/burn-stats/internal/store"
)

var triggerTime = time.Date(2024, 5, 4, 10, 30, 0, 0, time.UTC)

func newRunner(blobs store.BlobStore, m *metrics.Metrics) *Runner {
	return &Runner{
		Gate:    &cache.Gate{Blobs: blobs, Window: 20 * time.Minute},
		Log:     logger.Nop(),
		Metrics: m,
		Now:     func() time.Time { return triggerTime },
	}
}

func flameJob(src TransferSource) *LeaderboardJob {
	return &LeaderboardJob{Source: src, Dataset: "flame", Token: "0xflame:0", MaxPages: 30, PageLimit: 1000}
}

func twoPages() []reservoir.TransfersPage {
	return []reservoir.TransfersPage{
		{Transfers: []reservoir.Transfer{burn("0xa", "2", 100, "0x1", 0), burn("0xb", "1", 101, "0x2", 0)}},
		{Transfers: []reservoir.Transfer{burn("0xb", "4", 200, "0x3", 0)}},
	}
}

func TestLeaderboardJobWalksContinuations(t *testing.T) {
	src := &mock.MockSource{Pages: twoPages()}

	ds, err := flameJob(src).Compute(context.Background(), logger.Nop())

	require.NoError(t, err)
	lb := ds.(*models.LeaderboardData)
	require.Len(t, lb.Leaderboard, 2)
	assert.Equal(t, "0xb", lb.Leaderboard[0].Address)
	assert.Equal(t, int64(5), lb.Leaderboard[0].BurnCount)
	assert.Equal(t, int64(2), src.TransferCalls.Load())
	assert.Equal(t, []string{"", "p1"}, src.Continuations)
}

func TestLeaderboardJobStopsAtMaxPages(t *testing.T) {
	pages := make([]reservoir.TransfersPage, 10)
	for i := range pages {
		pages[i] = reservoir.TransfersPage{Transfers: []reservoir.Transfer{burn("0xa", "1", int64(i), "0x"+strconv.Itoa(i), 0)}}
	}
	src := &mock.MockSource{Pages: pages}
	job := flameJob(src)
	job.MaxPages = 3

	ds, err := job.Compute(context.Background(), logger.Nop())

	require.NoError(t, err)
	assert.Equal(t, int64(3), src.TransferCalls.Load())
	assert.Equal(t, int64(3), ds.(*models.LeaderboardData).Leaderboard[0].BurnCount)
}

func TestLeaderboardJobPageErrorAborts(t *testing.T) {
	src := &mock.MockSource{Pages: twoPages(), PageErrAt: 2}

	_, err := flameJob(src).Compute(context.Background(), logger.Nop())

	assert.ErrorIs(t, err, mock.ErrUpstream)
}

func TestRunnerRecomputesAndStampsTriggerTime(t *testing.T) {
	blobs := mock.NewMockStore()
	src := &mock.MockSource{Pages: twoPages()}
	m := metrics.New()
	r := newRunner(blobs, m)

	res, err := r.Run(context.Background(), flameJob(src), false)

	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, "success", res.Message())
	assert.Equal(t, 2, res.Rows)
	assert.NotEmpty(t, res.RunID)
	assert.True(t, res.LastUpdated.Equal(triggerTime))

	raw, ok := blobs.Raw(store.FlameLeaderboard)
	require.True(t, ok)
	var lb models.LeaderboardData
	require.NoError(t, json.Unmarshal([]byte(raw), &lb))
	require.NotNil(t, lb.LastUpdated)
	assert.Equal(t, triggerTime.UnixMilli(), *lb.LastUpdated)

	assert.InDelta(t, 1, testutil.ToFloat64(m.JobRuns.WithLabelValues("leaderboard:flame", "success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.DatasetRows.WithLabelValues("flame")), 0)
}

func TestRunnerFreshCacheMakesNoUpstreamCalls(t *testing.T) {
	blobs := mock.NewMockStore()
	blobs.Set(store.FlameLeaderboard, `{"leaderboard":[],"lastUpdated":`+strconv.FormatInt(triggerTime.Add(-5*time.Minute).UnixMilli(), 10)+`}`)
	src := &mock.MockSource{Pages: twoPages()}
	r := newRunner(blobs, nil)

	res, err := r.Run(context.Background(), flameJob(src), false)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFresh, res.Outcome)
	assert.Equal(t, "Data is still fresh", res.Message())
	assert.Zero(t, src.Calls())
	assert.Zero(t, blobs.Puts)
}

func TestRunnerForceIgnoresFreshness(t *testing.T) {
	blobs := mock.NewMockStore()
	blobs.Set(store.FlameLeaderboard, `{"leaderboard":[],"lastUpdated":`+strconv.FormatInt(triggerTime.UnixMilli(), 10)+`}`)
	src := &mock.MockSource{Pages: twoPages()}

	res, err := newRunner(blobs, nil).Run(context.Background(), flameJob(src), true)

	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, int64(2), src.TransferCalls.Load())
}

func TestRunnerStaleOrCorruptCacheRecomputes(t *testing.T) {
	for name, blob := range map[string]string{
		"stale":   `{"leaderboard":[],"lastUpdated":` + strconv.FormatInt(triggerTime.Add(-21*time.Minute).UnixMilli(), 10) + `}`,
		"corrupt": `{"leaderboard":[`,
		"missing": "",
	} {
		t.Run(name, func(t *testing.T) {
			blobs := mock.NewMockStore()
			if blob != "" {
				blobs.Set(store.FlameLeaderboard, blob)
			}
			src := &mock.MockSource{Pages: twoPages()}

			res, err := newRunner(blobs, nil).Run(context.Background(), flameJob(src), false)

			require.NoError(t, err)
			assert.Equal(t, OutcomeUpdated, res.Outcome)
			assert.Equal(t, int64(2), src.TransferCalls.Load())
			assert.Equal(t, 1, blobs.Puts)
		})
	}
}

func TestRunnerFailuresDoNotPersist(t *testing.T) {
	t.Run("upstream", func(t *testing.T) {
		blobs := mock.NewMockStore()
		src := &mock.MockSource{Pages: twoPages(), PageErrAt: 2}
		m := metrics.New()

		res, err := newRunner(blobs, m).Run(context.Background(), flameJob(src), false)

		require.Error(t, err)
		assert.Equal(t, OutcomeFailed, res.Outcome)
		assert.Zero(t, blobs.Puts)
		assert.InDelta(t, 1, testutil.ToFloat64(m.JobRuns.WithLabelValues("leaderboard:flame", "error")), 0)
	})

	t.Run("upload", func(t *testing.T) {
		blobs := mock.NewMockStore()
		blobs.PutErr = errors.New("bucket is read-only")
		src := &mock.MockSource{Pages: twoPages()}

		_, err := newRunner(blobs, nil).Run(context.Background(), flameJob(src), false)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is read-only")
	})
}

func TestRunnerAfterRecomputeIsFresh(t *testing.T) {
	blobs := mock.NewMockStore()
	src := &mock.MockSource{Pages: twoPages()}
	r := newRunner(blobs, nil)

	_, err := r.Run(context.Background(), flameJob(src), false)
	require.NoError(t, err)
	res, err := r.Run(context.Background(), flameJob(src), false)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFresh, res.Outcome)
	assert.Equal(t, int64(2), src.TransferCalls.Load())
}
