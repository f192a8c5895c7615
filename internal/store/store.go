package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by every backend when a key holds no blob.
var ErrNotFound = errors.New("blob not found")

// Key names one dataset blob, e.g. leaderboard/flame.
type Key struct {
	Bucket string
	Name   string
}

func (k Key) String() string { return k.Bucket + "/" + k.Name }

var (
	FlameLeaderboard    = Key{Bucket: "leaderboard", Name: "flame"}
	TreatBoxLeaderboard = Key{Bucket: "leaderboard", Name: "treatBox"}
	ShameList           = Key{Bucket: "wizard-flame-owners", Name: "owners"}
)

// LeaderboardKey maps a leaderboard filter to its blob key.
func LeaderboardKey(filter string) Key {
	return Key{Bucket: "leaderboard", Name: filter}
}

// BlobStore is a key/blob store holding whole serialized datasets.
type BlobStore interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, data []byte) error
	Close() error
}

// WriteTimer is implemented by backends that record when a blob was last
// written, independent of the lastUpdated stamp inside it.
type WriteTimer interface {
	WrittenAt(ctx context.Context, key Key) (time.Time, error)
}
