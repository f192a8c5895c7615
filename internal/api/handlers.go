package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sspzz/burn-stats/internal/aggregator"
	"github.com/sspzz/burn-stats/internal/cache"
	"github.com/sspzz/burn-stats/internal/logger"
	"github.com/sspzz/burn-stats/internal/metrics"
	"github.com/sspzz/burn-stats/internal/store"
)

const (
	FilterFlame    = "flame"
	FilterTreatBox = "treatBox"
)

var errNoData = errors.New("No data found")

type Handler struct {
	Gate   *cache.Gate
	Runner *aggregator.Runner
	// Leaderboards maps a filter to the job computing it.
	Leaderboards map[string]aggregator.Job
	Shame        aggregator.Job
	JobToken     string
	Metrics      *metrics.Metrics
	Log          *logger.Logger
}

func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	if h.Metrics != nil {
		mux.Handle("/metrics", h.Metrics.Handler())
	}
	mux.HandleFunc("/api/leaderboard-data", h.LeaderboardData)
	mux.HandleFunc("/api/shame-data", h.ShameData)
	mux.HandleFunc("/api/leaderboard-job", h.requireToken(h.LeaderboardJob))
	mux.HandleFunc("/api/shame-data-job", h.requireToken(h.ShameJob))
}

// GET /api/leaderboard-data?filter=flame|treatBox
func (h *Handler) LeaderboardData(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, store.LeaderboardKey(NormalizeFilter(r.URL.Query().Get("filter"))))
}

// GET /api/shame-data
func (h *Handler) ShameData(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, store.ShameList)
}

// GET /api/leaderboard-job?filter=...&force=true
func (h *Handler) LeaderboardJob(w http.ResponseWriter, r *http.Request) {
	filter := NormalizeFilter(r.URL.Query().Get("filter"))
	job, ok := h.Leaderboards[filter]
	if !ok {
		h.httpError(w, http.StatusBadRequest, fmt.Errorf("leaderboard %q is not configured", filter))
		return
	}
	h.trigger(w, r, job)
}

// GET /api/shame-data-job?force=true
func (h *Handler) ShameJob(w http.ResponseWriter, r *http.Request) {
	if h.Shame == nil {
		h.httpError(w, http.StatusBadRequest, errors.New("shame job is not configured"))
		return
	}
	h.trigger(w, r, h.Shame)
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request, job aggregator.Job) {
	res, err := h.Runner.Run(r.Context(), job, parseForce(r))
	if err != nil {
		h.httpError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": res.Message()})
}

// serveBlob writes the cached dataset through unchanged.
func (h *Handler) serveBlob(w http.ResponseWriter, r *http.Request, key store.Key) {
	b, err := h.Gate.Load(r.Context(), key)
	if err != nil {
		if !errors.Is(err, cache.ErrNoData) {
			h.log().Warn("dataset read failed", "key", key.String(), "error", err)
		}
		h.httpError(w, http.StatusBadRequest, errNoData)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *Handler) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.JobToken != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(h.JobToken)) != 1 {
				h.httpError(w, http.StatusUnauthorized, errors.New("unauthorized"))
				return
			}
		}
		next(w, r)
	}
}

// NormalizeFilter maps a leaderboard filter to a known one, falling back
// to flame for empty or unknown filters.
func NormalizeFilter(f string) string {
	if f == FilterTreatBox {
		return FilterTreatBox
	}
	return FilterFlame
}

func parseForce(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("force")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (h *Handler) log() *logger.Logger {
	if h.Log == nil {
		return logger.Nop()
	}
	return h.Log
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log().Error("writeJSON error", "error", err)
	}
}

func (h *Handler) httpError(w http.ResponseWriter, code int, err error) {
	h.writeJSON(w, code, map[string]string{"error": err.Error()})
}
