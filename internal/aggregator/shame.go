package aggregator

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sspzz/burn-stats/internal/eth"
	"github.com/sspzz/burn-stats/internal/logger"
	"github.com/sspzz/burn-stats/internal/models"
	"github.com/sspzz/burn-stats/internal/reservoir"
	"github.com/sspzz/burn-stats/internal/store"
)

// OwnershipSource lists collection holders and the tokens a holder owns.
type OwnershipSource interface {
	Owners(ctx context.Context, collection string, offset, limit int) ([]reservoir.Owner, error)
	UserTokens(ctx context.Context, user, collection string, offset, limit int) ([]reservoir.UserToken, error)
}

// ShameJob joins holders of the burn collection (A) with what they still hold
// of the paired collection (B).
type ShameJob struct {
	Source          OwnershipSource
	BurnCollection  string // A
	PairCollection  string // B
	OwnersPageLimit int
	MaxOwnerPages   int
	TokensLimit     int
	Concurrency     int
	// OwnerTimeout bounds each per-holder token lookup.
	OwnerTimeout time.Duration
}

func (j *ShameJob) Name() string   { return "shame" }
func (j *ShameJob) Key() store.Key { return store.ShameList }

type holder struct {
	address string
	count   int64
}

func (j *ShameJob) Compute(ctx context.Context, log *logger.Logger) (models.Dataset, error) {
	holders, err := j.holders(ctx)
	if err != nil {
		return nil, err
	}

	concurrency := j.Concurrency
	if concurrency <= 0 {
		concurrency = 16
	}
	tokensLimit := j.TokensLimit
	if tokensLimit <= 0 {
		tokensLimit = 100
	}

	// One slot per holder keeps tokens attached to the address that was asked for.
	results := make([][]reservoir.UserToken, len(holders))
	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, h := range holders {
		i, h := i, h
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			cctx := ctx
			if j.OwnerTimeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, j.OwnerTimeout)
				defer cancel()
			}
			toks, err := j.Source.UserTokens(cctx, h.address, j.PairCollection, 0, tokensLimit)
			if err != nil {
				failed.Add(1)
				log.Debug("owner tokens lookup failed", "owner", h.address, "error", err)
				return nil
			}
			results[i] = toks
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n := failed.Load(); n > 0 {
		log.Warn("owner tokens lookups failed, skipping those owners", "failed", n, "owners", len(holders))
	}

	owners := make([]models.OwnerData, 0)
	for i, h := range holders {
		if len(results[i]) == 0 {
			continue
		}
		od := models.OwnerData{Owner: h.address, FlameCount: h.count, Tokens: make([]models.TokenData, 0, len(results[i]))}
		for _, ut := range results[i] {
			od.Tokens = append(od.Tokens, models.TokenData{
				Contract: ut.Token.Contract,
				TokenID:  ut.Token.TokenID,
				Name:     ut.Token.Name,
				Image:    ut.Token.Image,
			})
		}
		owners = append(owners, od)
	}
	RankOwners(owners)
	log.Info("shame list joined", "holders", len(holders), "owners", len(owners))

	return &models.ShameData{Owners: owners}, nil
}

// holders walks the owners feed of the burn collection by offset.
func (j *ShameJob) holders(ctx context.Context) ([]holder, error) {
	limit := j.OwnersPageLimit
	if limit <= 0 {
		limit = 500
	}
	maxPages := j.MaxOwnerPages
	if maxPages <= 0 {
		maxPages = 1
	}
	seen := make(map[string]int)
	var out []holder
	for p := 0; p < maxPages; p++ {
		page, err := j.Source.Owners(ctx, j.BurnCollection, p*limit, limit)
		if err != nil {
			return nil, fmt.Errorf("owners page %d: %w", p, err)
		}
		for _, o := range page {
			addr := eth.NormalizeAddress(o.Address)
			if addr == "" {
				continue
			}
			if idx, ok := seen[addr]; ok {
				out[idx].count = int64(o.Ownership.TokenCount)
				continue
			}
			seen[addr] = len(out)
			out = append(out, holder{address: addr, count: int64(o.Ownership.TokenCount)})
		}
		if len(page) < limit {
			break
		}
	}
	return out, nil
}

// RankOwners sorts by flame count descending, ties by owner ascending.
func RankOwners(owners []models.OwnerData) {
	sort.Slice(owners, func(i, j int) bool {
		if owners[i].FlameCount != owners[j].FlameCount {
			return owners[i].FlameCount > owners[j].FlameCount
		}
		return owners[i].Owner < owners[j].Owner
	})
}
