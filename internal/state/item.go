package state

// ItemAffix is a rolled modifier on an item.
type ItemAffix struct {
	Name    string       `json:"name"`
	Tier    int          `json:"tier"`
	Effects []StatEffect `json:"effects"`
}

// WeaponSpecs are the numbers of the attack skill a weapon grants while
// equipped.
type WeaponSpecs struct {
	Cooldown   float64 `json:"cooldown" yaml:"cooldown"`
	MinDamage  float64 `json:"min_damage" yaml:"min_damage"`
	MaxDamage  float64 `json:"max_damage" yaml:"max_damage"`
	Range      Range   `json:"range,omitempty" yaml:"range,omitempty"`
	Shape      Shape   `json:"shape" yaml:"shape"`
	CritChance float64 `json:"crit_chance,omitempty" yaml:"crit_chance,omitempty"`
	CritDamage float64 `json:"crit_damage,omitempty" yaml:"crit_damage,omitempty"`
}

// ItemSpecs is a concrete item instance.
type ItemSpecs struct {
	BaseID      string         `json:"base_id"`
	Name        string         `json:"name"`
	Slot        ItemSlot       `json:"slot"`
	Category    ItemCategory   `json:"category"`
	Rarity      Rarity         `json:"rarity"`
	Level       int            `json:"level"`
	BaseEffects []StatEffect   `json:"base_effects,omitempty"`
	Affixes     []ItemAffix    `json:"affixes,omitempty"`
	Triggers    []TriggerSpecs `json:"triggers,omitempty"`

	Weapon      *WeaponSpecs          `json:"weapon,omitempty"`
	Conditional []ConditionalModifier `json:"conditional,omitempty"`
}

// AffixTierSum is the sum of the tiers of every affix.
func (i ItemSpecs) AffixTierSum() int {
	total := 0
	for _, affix := range i.Affixes {
		total += affix.Tier
	}
	return total
}

// Effects returns the base effects followed by the affix effects.
func (i ItemSpecs) Effects() []StatEffect {
	effects := make([]StatEffect, 0, len(i.BaseEffects)+2*len(i.Affixes))
	effects = append(effects, i.BaseEffects...)
	for _, affix := range i.Affixes {
		effects = append(effects, affix.Effects...)
	}
	return effects
}

// Clone returns a deep copy of the item.
func (i ItemSpecs) Clone() ItemSpecs {
	cloned := i
	cloned.BaseEffects = CloneEffects(i.BaseEffects)
	if len(i.Affixes) > 0 {
		cloned.Affixes = make([]ItemAffix, len(i.Affixes))
		for idx, affix := range i.Affixes {
			affix.Effects = CloneEffects(affix.Effects)
			cloned.Affixes[idx] = affix
		}
	}
	if len(i.Triggers) > 0 {
		cloned.Triggers = make([]TriggerSpecs, len(i.Triggers))
		for idx, trigger := range i.Triggers {
			cloned.Triggers[idx] = trigger.Clone()
		}
	}
	if i.Weapon != nil {
		weapon := *i.Weapon
		cloned.Weapon = &weapon
	}
	cloned.Conditional = CloneConditionals(i.Conditional)
	return cloned
}

// LootState is the lifecycle tag of a queued loot entry.
type LootState string

const (
	LootNormal         LootState = "normal"
	LootWillDisappear  LootState = "will_disappear"
	LootHasDisappeared LootState = "has_disappeared"
)

// QueuedLoot is an item waiting on the ground to be picked up.
type QueuedLoot struct {
	Identifier uint32    `json:"identifier"`
	Item       ItemSpecs `json:"item"`
	State      LootState `json:"state"`
}

// Inventory is the player's equipment and bag.
type Inventory struct {
	Equipment  Equipment   `json:"equipment"`
	Bag        []ItemSpecs `json:"bag,omitempty"`
	MaxBagSize int         `json:"max_bag_size"`
}

// BagFull reports whether the bag cannot take another item.
func (inv *Inventory) BagFull() bool {
	if inv == nil {
		return true
	}
	return len(inv.Bag) >= inv.MaxBagSize
}

// Effects aggregates the effects of every equipped item in slot order.
func (inv *Inventory) Effects() []StatEffect {
	if inv == nil {
		return nil
	}
	var effects []StatEffect
	for _, entry := range inv.Equipment.Slots {
		effects = append(effects, entry.Item.Effects()...)
	}
	return effects
}

// Conditionals collects the conditional modifiers of equipped items.
func (inv *Inventory) Conditionals() []ConditionalModifier {
	if inv == nil {
		return nil
	}
	var out []ConditionalModifier
	for _, entry := range inv.Equipment.Slots {
		out = append(out, entry.Item.Conditional...)
	}
	return out
}

// Triggers collects the triggers granted by equipped items.
func (inv *Inventory) Triggers() []TriggerSpecs {
	if inv == nil {
		return nil
	}
	var triggers []TriggerSpecs
	for _, entry := range inv.Equipment.Slots {
		triggers = append(triggers, entry.Item.Triggers...)
	}
	return triggers
}
