package runtime

import (
	"context"
	"time"

	"cosmossdk.io/core/header"
	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
)

// DefaultTestTime is the block time of contexts built by DefaultContextWithDB.
var DefaultTestTime = time.Unix(1_700_000_000, 0).UTC()

// DefaultContextWithDB returns a context over a fresh in-memory database at
// height 1. Writes go to a branch of the database, so iterators never hold the
// database lock while the caller writes.
func DefaultContextWithDB(logger log.Logger) (context.Context, *dbm.MemDB) {
	db := dbm.NewMemDB()
	ctx := NewContext(context.Background(), db, header.Info{Height: 1, Time: DefaultTestTime}, logger)
	ctx, _ = CacheContext(ctx)
	return ctx, db
}

// AdvanceBlock returns ctx moved forward by blocks heights and d of block time.
func AdvanceBlock(ctx context.Context, blocks int64, d time.Duration) context.Context {
	info := HeaderInfo(ctx)
	info.Height += blocks
	info.Time = info.Time.Add(d)
	return WithHeaderInfo(ctx, info)
}
