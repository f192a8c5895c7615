package mock

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sspzz/burn-stats/internal/reservoir"
)

var ErrUpstream = errors.New("upstream unavailable")

// MockSource fakes the indexing API. Transfer pages are served in order and
// chained by synthetic continuations "p1", "p2", ...
type MockSource struct {
	Pages     []reservoir.TransfersPage
	PageErrAt int // 1-based page that fails; 0 never

	OwnerPages [][]reservoir.Owner
	OwnersErr  error

	Tokens    map[string][]reservoir.UserToken
	TokenErrs map[string]error

	mu            sync.Mutex
	Continuations []string
	OwnerOffsets  []int

	TransferCalls atomic.Int64
	OwnerCalls    atomic.Int64
	TokenCalls    atomic.Int64
}

// Calls is the total number of upstream requests served.
func (m *MockSource) Calls() int64 {
	return m.TransferCalls.Load() + m.OwnerCalls.Load() + m.TokenCalls.Load()
}

func (m *MockSource) BulkTransfers(ctx context.Context, token, continuation string, limit int) (reservoir.TransfersPage, error) {
	n := m.TransferCalls.Add(1)
	m.mu.Lock()
	m.Continuations = append(m.Continuations, continuation)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return reservoir.TransfersPage{}, err
	}
	if m.PageErrAt > 0 && int(n) == m.PageErrAt {
		return reservoir.TransfersPage{}, ErrUpstream
	}
	idx := 0
	if continuation != "" {
		idx = -1
		for i := range m.Pages {
			if continuation == pageCursor(i) {
				idx = i
				break
			}
		}
	}
	if idx < 0 || idx >= len(m.Pages) {
		return reservoir.TransfersPage{}, nil
	}
	page := m.Pages[idx]
	if page.Continuation == "" && idx+1 < len(m.Pages) {
		page.Continuation = pageCursor(idx + 1)
	}
	return page, nil
}

func pageCursor(i int) string {
	return "p" + strconv.Itoa(i)
}

func (m *MockSource) Owners(ctx context.Context, collection string, offset, limit int) ([]reservoir.Owner, error) {
	m.OwnerCalls.Add(1)
	m.mu.Lock()
	m.OwnerOffsets = append(m.OwnerOffsets, offset)
	m.mu.Unlock()
	if m.OwnersErr != nil {
		return nil, m.OwnersErr
	}
	if limit <= 0 {
		return nil, nil
	}
	page := offset / limit
	if page >= len(m.OwnerPages) {
		return nil, nil
	}
	return m.OwnerPages[page], nil
}

func (m *MockSource) UserTokens(ctx context.Context, user, collection string, offset, limit int) ([]reservoir.UserToken, error) {
	m.TokenCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.TokenErrs[user]; ok {
		return nil, err
	}
	return m.Tokens[user], nil
}
