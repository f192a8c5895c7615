package models

// Dataset is a cached aggregation result carrying its own lastUpdated stamp.
type Dataset interface {
	Stamp(lastUpdatedMs int64)
	Len() int
}

type LatestBurn struct {
	Timestamp int64  `json:"timestamp"` // unix seconds, as reported by the indexer
	TxHash    string `json:"txHash"`
}

type LeaderboardRow struct {
	Address    string     `json:"address"`
	BurnCount  int64      `json:"burnCount"`
	LatestBurn LatestBurn `json:"latestBurn"`
}

type LeaderboardData struct {
	Leaderboard []LeaderboardRow `json:"leaderboard"`
	LastUpdated *int64           `json:"lastUpdated,omitempty"` // epoch millis
}

func (d *LeaderboardData) Stamp(ms int64) { d.LastUpdated = &ms }
func (d *LeaderboardData) Len() int        { return len(d.Leaderboard) }

type TokenData struct {
	Owner    string `json:"owner,omitempty"`
	Contract string `json:"contract"`
	TokenID  string `json:"tokenId"`
	Name     string `json:"name"`
	Image    string `json:"image"`
}

type OwnerData struct {
	Owner      string      `json:"owner"`
	Tokens     []TokenData `json:"tokens"`
	FlameCount int64       `json:"flameCount"`
}

// ShameData lists holders of the burn collection that still hold the paired collection.
type ShameData struct {
	Owners      []OwnerData `json:"owners"`
	LastUpdated *int64      `json:"lastUpdated,omitempty"`
}

func (d *ShameData) Stamp(ms int64) { d.LastUpdated = &ms }
func (d *ShameData) Len() int        { return len(d.Owners) }
