package aggregator

import (
	"sort"

	"github.com/sspzz/burn-stats/internal/eth"
	"github.com/sspzz/burn-stats/internal/models"
	"github.com/sspzz/burn-stats/internal/reservoir"
)

type transferKey struct {
	txHash     string
	logIndex   int64
	batchIndex int64
}

// Burns folds transfer events into per-sender burn totals. Non-burn transfers
// are ignored; a transfer identified by (txHash, logIndex, batchIndex) is
// counted once no matter how often it is added.
type Burns struct {
	rows    map[string]*models.LeaderboardRow
	seen    map[transferKey]struct{}
	skipped int
}

func NewBurns() *Burns {
	return &Burns{
		rows: make(map[string]*models.LeaderboardRow),
		seen: make(map[transferKey]struct{}),
	}
}

// Add folds one transfer and reports whether it counted as a new burn.
func (b *Burns) Add(t reservoir.Transfer) bool {
	if !eth.IsBurn(t.To) {
		return false
	}
	amount, err := eth.ParseAmount(t.Amount)
	if err != nil {
		b.skipped++
		return false
	}
	if t.LogIndex != nil {
		k := transferKey{txHash: t.TxHash, logIndex: *t.LogIndex, batchIndex: -1}
		if t.BatchIndex != nil {
			k.batchIndex = *t.BatchIndex
		}
		if _, dup := b.seen[k]; dup {
			return false
		}
		b.seen[k] = struct{}{}
	}

	from := eth.NormalizeAddress(t.From)
	row, ok := b.rows[from]
	if !ok {
		b.rows[from] = &models.LeaderboardRow{
			Address:    from,
			BurnCount:  amount,
			LatestBurn: models.LatestBurn{Timestamp: t.Timestamp, TxHash: t.TxHash},
		}
		return true
	}
	row.BurnCount += amount
	if later(t.Timestamp, t.TxHash, row.LatestBurn) {
		row.LatestBurn = models.LatestBurn{Timestamp: t.Timestamp, TxHash: t.TxHash}
	}
	return true
}

// later orders burns by timestamp, then txHash, so the fold result does not
// depend on the order pages arrive in.
func later(ts int64, txHash string, cur models.LatestBurn) bool {
	if ts != cur.Timestamp {
		return ts > cur.Timestamp
	}
	return txHash > cur.TxHash
}

// Skipped counts burns dropped for an unparseable amount.
func (b *Burns) Skipped() int { return b.skipped }

func (b *Burns) Len() int { return len(b.rows) }

// Ranked returns rows by burn count descending, ties by address ascending.
func (b *Burns) Ranked() []models.LeaderboardRow {
	out := make([]models.LeaderboardRow, 0, len(b.rows))
	for _, r := range b.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BurnCount != out[j].BurnCount {
			return out[i].BurnCount > out[j].BurnCount
		}
		return out[i].Address < out[j].Address
	})
	return out
}
