package items

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"grindfall/server/internal/state"
)

var (
	// ErrInvalidBagIndex reports a bag index outside the bag.
	ErrInvalidBagIndex = errors.New("invalid bag index")
	// ErrInvalidSlot reports an unknown equipment slot.
	ErrInvalidSlot = errors.New("invalid item slot")
	// ErrSlotEmpty reports unequipping an empty slot.
	ErrSlotEmpty = errors.New("no item equipped in slot")
)

// DefaultBagSize is the bag capacity of a new character.
const DefaultBagSize = 40

// NewInventory returns an empty inventory with the given bag size.
func NewInventory(bagSize int) state.Inventory {
	if bagSize < 1 {
		bagSize = DefaultBagSize
	}
	return state.Inventory{MaxBagSize: bagSize}
}

// Equip moves the bag item at index into its slot. A previously equipped item
// takes the freed bag position.
func Equip(inv *state.Inventory, index int) error {
	if inv == nil || index < 0 || index >= len(inv.Bag) {
		return fmt.Errorf("%w: %d", ErrInvalidBagIndex, index)
	}
	item := inv.Bag[index]
	if !state.IsKnownSlot(item.Slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, item.Slot)
	}
	previous, replaced := inv.Equipment.Set(item.Slot, item)
	if replaced {
		inv.Bag[index] = previous
		return nil
	}
	inv.Bag = append(inv.Bag[:index], inv.Bag[index+1:]...)
	return nil
}

// Unequip moves the item in slot back into the bag.
func Unequip(inv *state.Inventory, slot state.ItemSlot) error {
	if inv == nil || !state.IsKnownSlot(slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	if _, ok := inv.Equipment.Get(slot); !ok {
		return fmt.Errorf("%w: %q", ErrSlotEmpty, slot)
	}
	if inv.BagFull() {
		return ErrInventoryFull
	}
	item, _ := inv.Equipment.Remove(slot)
	inv.Bag = append(inv.Bag, item)
	return nil
}

// Sell removes the bag items at indexes and returns the gold they are worth.
// Indexes are validated before anything is removed.
func Sell(inv *state.Inventory, indexes []int) (float64, []state.ItemSpecs, error) {
	if inv == nil {
		return 0, nil, ErrInvalidBagIndex
	}
	unique := make(map[int]struct{}, len(indexes))
	ordered := make([]int, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(inv.Bag) {
			return 0, nil, fmt.Errorf("%w: %d", ErrInvalidBagIndex, idx)
		}
		if _, seen := unique[idx]; seen {
			continue
		}
		unique[idx] = struct{}{}
		ordered = append(ordered, idx)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ordered)))

	gold := 0.0
	sold := make([]state.ItemSpecs, 0, len(ordered))
	for _, idx := range ordered {
		item := inv.Bag[idx]
		gold += SellPrice(item)
		sold = append(sold, item)
		inv.Bag = append(inv.Bag[:idx], inv.Bag[idx+1:]...)
	}
	return gold, sold, nil
}

// SellPrice is the gold a merchant pays for item.
func SellPrice(item state.ItemSpecs) float64 {
	multiplier := 1.0
	switch item.Rarity {
	case state.RarityMagic:
		multiplier = 2
	case state.RarityRare:
		multiplier = 4
	case state.RarityUnique:
		multiplier = 10
	}
	level := math.Max(1, float64(item.Level))
	return math.Round(10 * multiplier * (1 + level/10))
}
