package aggregator

import (
	"context"
	"fmt"

	"github.com/sspzz/burn-stats/internal/logger"
	"github.com/sspzz/burn-stats/internal/models"
	"github.com/sspzz/burn-stats/internal/reservoir"
	"github.com/sspzz/burn-stats/internal/store"
)

// TransferSource pages through the bulk transfers feed.
type TransferSource interface {
	BulkTransfers(ctx context.Context, token, continuation string, limit int) (reservoir.TransfersPage, error)
}

// LeaderboardJob ranks the burners of one token.
type LeaderboardJob struct {
	Source TransferSource
	// Dataset is the leaderboard filter name, e.g. "flame".
	Dataset string
	// Token is the bulk transfers filter "contract:tokenId".
	Token     string
	MaxPages  int
	PageLimit int
}

func (j *LeaderboardJob) Name() string   { return "leaderboard:" + j.Dataset }
func (j *LeaderboardJob) Key() store.Key { return store.LeaderboardKey(j.Dataset) }

func (j *LeaderboardJob) Compute(ctx context.Context, log *logger.Logger) (models.Dataset, error) {
	maxPages := j.MaxPages
	if maxPages <= 0 {
		maxPages = 30
	}
	limit := j.PageLimit
	if limit <= 0 {
		limit = 1000
	}

	burns := NewBurns()
	continuation := ""
	pages, transfers := 0, 0
	for i := 0; i < maxPages; i++ {
		log.Debug("Requesting page", "page", i)
		page, err := j.Source.BulkTransfers(ctx, j.Token, continuation, limit)
		if err != nil {
			return nil, fmt.Errorf("transfers page %d: %w", i, err)
		}
		pages++
		transfers += len(page.Transfers)
		for _, t := range page.Transfers {
			burns.Add(t)
		}
		if page.Continuation == "" {
			log.Debug("Finished Requesting", "pages", pages)
			break
		}
		continuation = page.Continuation
	}
	if n := burns.Skipped(); n > 0 {
		log.Warn("skipped burns with malformed amounts", "count", n)
	}
	log.Info("leaderboard folded", "pages", pages, "transfers", transfers, "burners", burns.Len())

	return &models.LeaderboardData{Leaderboard: burns.Ranked()}, nil
}
