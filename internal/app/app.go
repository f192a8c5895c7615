package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/sspzz/burn-stats/internal/aggregator"
	"github.com/sspzz/burn-stats/internal/api"
	"github.com/sspzz/burn-stats/internal/cache"
	"github.com/sspzz/burn-stats/internal/config"
	"github.com/sspzz/burn-stats/internal/eth"
	"github.com/sspzz/burn-stats/internal/logger"
	"github.com/sspzz/burn-stats/internal/metrics"
	"github.com/sspzz/burn-stats/internal/reservoir"
	"github.com/sspzz/burn-stats/internal/store"
)

// App holds everything a binary needs to run or serve the burn datasets.
type App struct {
	Log     *logger.Logger
	Cfg     config.Common
	Metrics *metrics.Metrics
	Blobs   store.BlobStore
	Client  *reservoir.Client
	Gate    *cache.Gate
	Runner  *aggregator.Runner

	// Leaderboards maps a filter to its job; treatBox is present only when configured.
	Leaderboards map[string]aggregator.Job
	Shame        *aggregator.ShameJob
}

// New wires the blob store, upstream client and jobs from cfg.
func New(ctx context.Context, cfg config.Common) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	blobs, err := OpenBlobStore(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	a, err := Wire(cfg, log, blobs)
	if err != nil {
		_ = blobs.Close()
		log.Sync()
		return nil, err
	}
	return a, nil
}

// Wire builds the jobs around an already opened blob store.
func Wire(cfg config.Common, log *logger.Logger, blobs store.BlobStore) (*App, error) {
	m := metrics.New()
	client := reservoir.NewClient(reservoir.Options{
		BaseURL:   cfg.Reservoir.BaseURL,
		APIKey:    cfg.Reservoir.APIKey,
		Timeout:   cfg.Reservoir.Timeout,
		RateLimit: cfg.Reservoir.RateLimit,
		RateBurst: cfg.Reservoir.RateBurst,
		Metrics:   m,
	})
	gate := &cache.Gate{Blobs: blobs, Window: cfg.FreshnessWindow, Log: log}

	ds := cfg.Datasets
	leaderboards := map[string]aggregator.Job{
		api.FilterFlame: &aggregator.LeaderboardJob{
			Source:    client,
			Dataset:   api.FilterFlame,
			Token:     ds.FlameToken(),
			MaxPages:  ds.TransferMaxPages,
			PageLimit: ds.TransferPageLimit,
		},
	}
	if ds.TreatBoxToken != "" {
		token, err := parseToken(ds.TreatBoxToken)
		if err != nil {
			return nil, fmt.Errorf("TREATBOX_TOKEN: %w", err)
		}
		leaderboards[api.FilterTreatBox] = &aggregator.LeaderboardJob{
			Source:    client,
			Dataset:   api.FilterTreatBox,
			Token:     token,
			MaxPages:  ds.TransferMaxPages,
			PageLimit: ds.TransferPageLimit,
		}
	}

	shame := &aggregator.ShameJob{
		Source:          client,
		BurnCollection:  ds.FlameContract,
		PairCollection:  ds.WizardContract,
		OwnersPageLimit: ds.OwnersPageLimit,
		MaxOwnerPages:   ds.OwnersMaxPages,
		TokensLimit:     ds.OwnerTokensLimit,
		Concurrency:     ds.OwnerFetchConcurrency,
		OwnerTimeout:    cfg.Reservoir.Timeout,
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		Metrics:      m,
		Blobs:        blobs,
		Client:       client,
		Gate:         gate,
		Runner:       &aggregator.Runner{Gate: gate, Log: log, Metrics: m},
		Leaderboards: leaderboards,
		Shame:        shame,
	}, nil
}

// Jobs lists every configured job, leaderboards first.
func (a *App) Jobs() []aggregator.Job {
	jobs := []aggregator.Job{a.Leaderboards[api.FilterFlame]}
	if j, ok := a.Leaderboards[api.FilterTreatBox]; ok {
		jobs = append(jobs, j)
	}
	return append(jobs, a.Shame)
}

// Handler exposes the datasets and job triggers over HTTP.
func (a *App) Handler(jobToken string) *api.Handler {
	return &api.Handler{
		Gate:         a.Gate,
		Runner:       a.Runner,
		Leaderboards: a.Leaderboards,
		Shame:        a.Shame,
		JobToken:     jobToken,
		Metrics:      a.Metrics,
		Log:          a.Log,
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Blobs != nil {
		if err := a.Blobs.Close(); err != nil {
			a.Log.Warn("blob store close failed", "error", err)
		}
	}
	a.Log.Sync()
}

// parseToken validates a "contract:tokenId" filter.
func parseToken(s string) (string, error) {
	contract, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || id == "" {
		return "", fmt.Errorf("want contract:tokenId, got %q", s)
	}
	if !eth.IsAddress(contract) {
		return "", fmt.Errorf("invalid contract %q", contract)
	}
	if _, err := eth.ParseAmount(id); err != nil {
		return "", fmt.Errorf("token id %q: %w", id, err)
	}
	return strings.ToLower(contract) + ":" + id, nil
}
