// Package items manages dropped loot, the player's inventory and item
// generation.
package items

import (
	"errors"

	"grindfall/server/internal/state"
)

// DefaultMaxQueueSize is the number of loot entries visible at once.
const DefaultMaxQueueSize = 5

var (
	// ErrLootNotFound reports a pickup of an identifier that is not live.
	ErrLootNotFound = errors.New("loot not found")
	// ErrInventoryFull reports a pickup into a full bag.
	ErrInventoryFull = errors.New("inventory is full")
)

// LootQueue is the bounded list of items lying on the ground. Entries marked
// HasDisappeared stay in the list until the next drop so the client can
// animate them away.
type LootQueue struct {
	MaxSize   int                `json:"max_size"`
	NextID    uint32             `json:"next_id"`
	Preferred state.ItemCategory `json:"preferred,omitempty"`
	Items     []state.QueuedLoot `json:"items,omitempty"`
}

// NewLootQueue returns an empty queue holding at most maxSize live entries.
func NewLootQueue(maxSize int) LootQueue {
	if maxSize < 1 {
		maxSize = DefaultMaxQueueSize
	}
	return LootQueue{MaxSize: maxSize, NextID: 1}
}

// DropResult describes the outcome of a drop.
type DropResult struct {
	Identifier uint32
	// Kept is false when the incoming item was discarded to protect a
	// higher scoring entry.
	Kept    bool
	Evicted []state.QueuedLoot
}

// Drop queues item under a fresh identifier and enforces the size bound.
func (q *LootQueue) Drop(item state.ItemSpecs) DropResult {
	if q == nil {
		return DropResult{}
	}
	if q.MaxSize < 1 {
		q.MaxSize = DefaultMaxQueueSize
	}
	if q.NextID == 0 {
		q.NextID = 1
	}
	q.purge()

	id := q.NextID
	q.NextID++
	q.Items = append(q.Items, state.QueuedLoot{Identifier: id, Item: item, State: state.LootNormal})
	incoming := len(q.Items) - 1
	result := DropResult{Identifier: id, Kept: true}

	incomingScore := ScoreItem(item, q.Preferred)
	for q.Live() > q.MaxSize {
		oldest := q.oldestLive(incoming)
		if oldest < 0 {
			break
		}
		if ScoreItem(q.Items[oldest].Item, q.Preferred).Compare(incomingScore) > 0 {
			q.Items[incoming].State = state.LootHasDisappeared
			result.Kept = false
			result.Evicted = append(result.Evicted, q.Items[incoming])
			continue
		}
		q.Items[oldest].State = state.LootHasDisappeared
		result.Evicted = append(result.Evicted, q.Items[oldest])
	}
	q.markWarnings()
	return result
}

// Take removes a live entry and returns its item.
func (q *LootQueue) Take(id uint32) (state.ItemSpecs, error) {
	if q == nil {
		return state.ItemSpecs{}, ErrLootNotFound
	}
	for i, entry := range q.Items {
		if entry.Identifier != id || entry.State == state.LootHasDisappeared {
			continue
		}
		q.Items = append(q.Items[:i], q.Items[i+1:]...)
		q.markWarnings()
		return entry.Item, nil
	}
	return state.ItemSpecs{}, ErrLootNotFound
}

// Pickup moves a live entry into the bag. When the bag is full the entry is
// queued again as the newest one and ErrInventoryFull is returned.
func (q *LootQueue) Pickup(id uint32, inv *state.Inventory) error {
	item, err := q.Take(id)
	if err != nil {
		return err
	}
	if inv == nil || inv.BagFull() {
		q.Items = append(q.Items, state.QueuedLoot{Identifier: id, Item: item, State: state.LootNormal})
		q.markWarnings()
		return ErrInventoryFull
	}
	inv.Bag = append(inv.Bag, item)
	return nil
}

// Live counts entries that have not disappeared.
func (q *LootQueue) Live() int {
	if q == nil {
		return 0
	}
	live := 0
	for _, entry := range q.Items {
		if entry.State != state.LootHasDisappeared {
			live++
		}
	}
	return live
}

// Peek returns a copy of the entries with their lifecycle tags.
func (q *LootQueue) Peek() []state.QueuedLoot {
	if q == nil || len(q.Items) == 0 {
		return nil
	}
	out := make([]state.QueuedLoot, len(q.Items))
	copy(out, q.Items)
	return out
}

// SetPreference changes the category favored by eviction.
func (q *LootQueue) SetPreference(category state.ItemCategory) {
	if q == nil {
		return
	}
	q.Preferred = category
}

func (q *LootQueue) purge() {
	kept := q.Items[:0]
	for _, entry := range q.Items {
		if entry.State != state.LootHasDisappeared {
			kept = append(kept, entry)
		}
	}
	for i := len(kept); i < len(q.Items); i++ {
		q.Items[i] = state.QueuedLoot{}
	}
	q.Items = kept
}

func (q *LootQueue) oldestLive(skip int) int {
	for i, entry := range q.Items {
		if i == skip || entry.State == state.LootHasDisappeared {
			continue
		}
		return i
	}
	return -1
}

// markWarnings flags the live entries the next drop would evict.
func (q *LootQueue) markWarnings() {
	warn := q.Live() - (q.MaxSize - 1)
	for i := range q.Items {
		entry := &q.Items[i]
		if entry.State == state.LootHasDisappeared {
			continue
		}
		if warn > 0 {
			entry.State = state.LootWillDisappear
			warn--
			continue
		}
		entry.State = state.LootNormal
	}
}
