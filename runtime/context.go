// Package runtime provides the in-process state machine services the cellar
// keepers are built on: a branchable KV store, per-module store services,
// block header information, event collection and a context logger.
package runtime

import (
	"context"
	"fmt"

	"cosmossdk.io/core/header"
	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	dbm "github.com/cosmos/cosmos-db"
)

type (
	storeCtxKey  struct{}
	headerCtxKey struct{}
	eventsCtxKey struct{}
	loggerCtxKey struct{}
)

// NewContext returns a context carrying the given database, header and logger.
// Writes made through the context go straight to db; branch it with
// CacheContext to buffer them.
func NewContext(parent context.Context, db dbm.DB, info header.Info, logger log.Logger) context.Context {
	ctx := context.WithValue(parent, storeCtxKey{}, rootStore(db))
	ctx = context.WithValue(ctx, headerCtxKey{}, info)
	ctx = context.WithValue(ctx, eventsCtxKey{}, &EventCollector{})
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// Store returns the unscoped store carried by the context. It panics if the
// context was not created with NewContext.
func Store(ctx context.Context) store.KVStore {
	return newCoreKVStore(multiStore(ctx))
}

func multiStore(ctx context.Context) storetypes.KVStore {
	kv, ok := ctx.Value(storeCtxKey{}).(storetypes.KVStore)
	if !ok {
		panic(fmt.Sprintf("context %v has no store", ctx))
	}
	return kv
}

// HeaderInfo returns the block header information carried by the context.
func HeaderInfo(ctx context.Context) header.Info {
	info, _ := ctx.Value(headerCtxKey{}).(header.Info)
	return info
}

// WithHeaderInfo returns a copy of ctx with the given header information.
func WithHeaderInfo(ctx context.Context, info header.Info) context.Context {
	return context.WithValue(ctx, headerCtxKey{}, info)
}

// Logger returns the logger carried by the context, or a no-op logger.
func Logger(ctx context.Context) log.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(log.Logger); ok {
		return l
	}
	return log.NewNopLogger()
}

// Events returns the events emitted so far in this context.
func Events(ctx context.Context) []Event {
	c := eventCollector(ctx)
	if c == nil {
		return nil
	}
	return c.Events()
}

// CacheContext branches the store and the event collector of ctx. Writes made
// through the returned context reach the parent only when write is called.
func CacheContext(ctx context.Context) (cacheCtx context.Context, write func() error) {
	cache := branch(multiStore(ctx))
	events := &EventCollector{}

	cacheCtx = context.WithValue(ctx, storeCtxKey{}, cache)
	cacheCtx = context.WithValue(cacheCtx, eventsCtxKey{}, events)

	write = func() error {
		if err := writeBranch(cache); err != nil {
			return err
		}
		if parent := eventCollector(ctx); parent != nil {
			parent.append(events.Events()...)
		}
		events.reset()
		return nil
	}
	return cacheCtx, write
}

// Atomic runs fn against a branch of ctx and writes the branch back only when
// fn returns nil.
func Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	cacheCtx, write := CacheContext(ctx)
	if err := fn(cacheCtx); err != nil {
		return err
	}
	return write()
}
