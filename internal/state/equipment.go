package state

import "sort"

// EquippedItem stores the item occupying a specific equipment slot.
type EquippedItem struct {
	Slot ItemSlot  `json:"slot"`
	Item ItemSpecs `json:"item"`
}

// Equipment holds the equipped items ordered by slot rank so effect folding
// is deterministic.
type Equipment struct {
	Slots []EquippedItem `json:"slots,omitempty"`
}

func (e Equipment) Clone() Equipment {
	if len(e.Slots) == 0 {
		return Equipment{}
	}
	cloned := make([]EquippedItem, len(e.Slots))
	for i, entry := range e.Slots {
		cloned[i] = EquippedItem{Slot: entry.Slot, Item: entry.Item.Clone()}
	}
	return Equipment{Slots: cloned}
}

func (e *Equipment) Get(slot ItemSlot) (ItemSpecs, bool) {
	if e == nil {
		return ItemSpecs{}, false
	}
	for _, entry := range e.Slots {
		if entry.Slot == slot {
			return entry.Item, true
		}
	}
	return ItemSpecs{}, false
}

// Set equips item in slot and returns the item it replaced, if any.
func (e *Equipment) Set(slot ItemSlot, item ItemSpecs) (ItemSpecs, bool) {
	if e == nil {
		return ItemSpecs{}, false
	}
	for i := range e.Slots {
		if e.Slots[i].Slot == slot {
			previous := e.Slots[i].Item
			e.Slots[i].Item = item
			return previous, true
		}
	}
	e.Slots = append(e.Slots, EquippedItem{Slot: slot, Item: item})
	e.sortSlots()
	return ItemSpecs{}, false
}

func (e *Equipment) Remove(slot ItemSlot) (ItemSpecs, bool) {
	if e == nil || len(e.Slots) == 0 {
		return ItemSpecs{}, false
	}
	for i := range e.Slots {
		if e.Slots[i].Slot != slot {
			continue
		}
		removed := e.Slots[i].Item
		e.Slots = append(e.Slots[:i], e.Slots[i+1:]...)
		return removed, true
	}
	return ItemSpecs{}, false
}

func (e *Equipment) sortSlots() {
	if len(e.Slots) <= 1 {
		return
	}
	sort.SliceStable(e.Slots, func(i, j int) bool {
		return EquipSlotRank(e.Slots[i].Slot) < EquipSlotRank(e.Slots[j].Slot)
	})
}

var orderedItemSlots = []ItemSlot{
	SlotWeapon,
	SlotShield,
	SlotHelmet,
	SlotBody,
	SlotGloves,
	SlotBoots,
	SlotAmulet,
	SlotRing,
	SlotRelic,
}

var itemSlotToRank = func() map[ItemSlot]int {
	ranks := make(map[ItemSlot]int, len(orderedItemSlots))
	for idx, slot := range orderedItemSlots {
		ranks[slot] = idx
	}
	return ranks
}()

func EquipSlotRank(slot ItemSlot) int {
	if rank, ok := itemSlotToRank[slot]; ok {
		return rank
	}
	return len(orderedItemSlots)
}
