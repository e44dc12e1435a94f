package runtime

import (
	"bytes"
	"errors"
	"fmt"

	"cosmossdk.io/core/store"
	"cosmossdk.io/store/cachekv"
	"cosmossdk.io/store/dbadapter"
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"
	dbm "github.com/cosmos/cosmos-db"
)

var (
	errKeyEmpty  = errors.New("key cannot be empty")
	errValueNil  = errors.New("value cannot be nil")
	errBadDomain = errors.New("iterator start must be before end")
)

// rootStore exposes a database as the store every block branches from.
func rootStore(db dbm.DB) storetypes.KVStore {
	return dbadapter.Store{DB: db}
}

// branch returns a cache layered on parent that buffers writes until Write.
func branch(parent storetypes.KVStore) storetypes.CacheKVStore {
	return cachekv.NewStore(parent)
}

// writeBranch flushes a branch into its parent. The database adapter panics on
// write failures, those are returned as errors.
func writeBranch(cache storetypes.CacheKVStore) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to write cached store: %v", r)
		}
	}()
	cache.Write()
	return nil
}

// coreKVStore adapts a multistore KVStore, which panics on invalid input, to
// the error returning core store interface the collections use.
type coreKVStore struct {
	kv storetypes.KVStore
}

var _ store.KVStore = coreKVStore{}

func newCoreKVStore(kv storetypes.KVStore) store.KVStore {
	return coreKVStore{kv: kv}
}

func newPrefixStore(parent storetypes.KVStore, p []byte) store.KVStore {
	return newCoreKVStore(prefix.NewStore(parent, p))
}

func (s coreKVStore) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errKeyEmpty
	}
	return s.kv.Get(key), nil
}

func (s coreKVStore) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, errKeyEmpty
	}
	return s.kv.Has(key), nil
}

func (s coreKVStore) Set(key, value []byte) error {
	if len(key) == 0 {
		return errKeyEmpty
	}
	if value == nil {
		return errValueNil
	}
	s.kv.Set(key, value)
	return nil
}

func (s coreKVStore) Delete(key []byte) error {
	if len(key) == 0 {
		return errKeyEmpty
	}
	s.kv.Delete(key)
	return nil
}

func (s coreKVStore) Iterator(start, end []byte) (store.Iterator, error) {
	if err := checkDomain(start, end); err != nil {
		return nil, err
	}
	return s.kv.Iterator(start, end), nil
}

func (s coreKVStore) ReverseIterator(start, end []byte) (store.Iterator, error) {
	if err := checkDomain(start, end); err != nil {
		return nil, err
	}
	return s.kv.ReverseIterator(start, end), nil
}

// checkDomain rejects empty, non-nil bounds and inverted domains.
func checkDomain(start, end []byte) error {
	if (start != nil && len(start) == 0) || (end != nil && len(end) == 0) {
		return errKeyEmpty
	}
	if start != nil && end != nil && bytes.Compare(start, end) > 0 {
		return errBadDomain
	}
	return nil
}
