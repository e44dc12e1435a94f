package container

import (
	"context"
	"math"

	"cosmossdk.io/collections"
)

// PriorityQueueKey is the key for the PriorityQueue.
// It's a pair of (priority, cellar id). In the cellar module, priority is a unix timestamp.
var PriorityQueueKey = collections.PairKeyCodec(
	collections.Int64Key,
	collections.Uint32Key,
)

// PriorityQueue is a time-ordered queue of cellars.
// It is a KeySet ordered by priority, then by cellar id.
type PriorityQueue struct {
	collections.KeySet[collections.Pair[int64, uint32]]
}

// NewPriorityQueue creates a new PriorityQueue.
func NewPriorityQueue(schema *collections.SchemaBuilder, prefix collections.Prefix, name string) PriorityQueue {
	return PriorityQueue{
		KeySet: collections.NewKeySet(schema, prefix, name, PriorityQueueKey),
	}
}

// Enqueue adds a cellar to the queue with a specific priority.
func (q PriorityQueue) Enqueue(ctx context.Context, cellarID uint32, priority int64) error {
	return q.Set(ctx, collections.Join(priority, cellarID))
}

// Dequeue removes a cellar entry from the queue.
func (q PriorityQueue) Dequeue(ctx context.Context, cellarID uint32, priority int64) error {
	return q.Remove(ctx, collections.Join(priority, cellarID))
}

// WalkDue calls fn for every entry with a priority <= maxPriority, in queue
// order, until fn asks to stop or fails.
func (q PriorityQueue) WalkDue(ctx context.Context, maxPriority int64, fn func(priority int64, cellarID uint32) (stop bool, err error)) error {
	rng := new(collections.Range[collections.Pair[int64, uint32]]).
		EndInclusive(collections.Join(maxPriority, uint32(math.MaxUint32)))
	return q.Walk(ctx, rng, func(key collections.Pair[int64, uint32]) (bool, error) {
		return fn(key.K1(), key.K2())
	})
}

// CollectDue returns the due entries without holding an iterator, so the
// caller may mutate the queue while processing them.
func (q PriorityQueue) CollectDue(ctx context.Context, maxPriority int64) ([]collections.Pair[int64, uint32], error) {
	var due []collections.Pair[int64, uint32]
	err := q.WalkDue(ctx, maxPriority, func(priority int64, cellarID uint32) (bool, error) {
		due = append(due, collections.Join(priority, cellarID))
		return false, nil
	})
	return due, err
}

// RemoveAllForCellar deletes all entries in the queue for the given cellar.
// Note: This is an O(N) operation where N is the total number of items in the queue.
func (q PriorityQueue) RemoveAllForCellar(ctx context.Context, cellarID uint32) error {
	var keys []collections.Pair[int64, uint32]

	err := q.Walk(ctx, nil, func(key collections.Pair[int64, uint32]) (bool, error) {
		if key.K2() == cellarID {
			keys = append(keys, key)
		}
		return false, nil
	})
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := q.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
