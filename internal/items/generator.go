package items

import (
	"grindfall/server/internal/rng"
	"grindfall/server/internal/state"
)

// ItemBase is a droppable item template.
type ItemBase struct {
	ID       string               `json:"id" yaml:"id"`
	Name     string               `json:"name" yaml:"name"`
	Slot     state.ItemSlot       `json:"slot" yaml:"slot"`
	Category state.ItemCategory   `json:"category" yaml:"category"`
	MinLevel int                  `json:"min_level" yaml:"min_level"`
	Weight   float64              `json:"weight" yaml:"weight"`
	Effects  []state.StatEffect   `json:"effects,omitempty" yaml:"effects,omitempty"`
	Triggers []state.TriggerSpecs `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Unique   bool                 `json:"unique,omitempty" yaml:"unique,omitempty"`

	Weapon      *state.WeaponSpecs          `json:"weapon,omitempty" yaml:"weapon,omitempty"`
	Conditional []state.ConditionalModifier `json:"conditional,omitempty" yaml:"conditional,omitempty"`
}

// PickWeight implements rng.Weighted.
func (b ItemBase) PickWeight() float64 { return b.Weight }

// AffixTier is one value band of an affix.
type AffixTier struct {
	MinLevel int     `json:"min_level" yaml:"min_level"`
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
}

// AffixBase is a rollable item modifier.
type AffixBase struct {
	ID       string           `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Stat     state.Stat       `json:"stat" yaml:"stat"`
	Modifier state.Modifier   `json:"modifier" yaml:"modifier"`
	Weight   float64          `json:"weight" yaml:"weight"`
	Slots    []state.ItemSlot `json:"slots,omitempty" yaml:"slots,omitempty"`
	Tiers    []AffixTier      `json:"tiers" yaml:"tiers"`
}

// PickWeight implements rng.Weighted.
func (a AffixBase) PickWeight() float64 { return a.Weight }

func (a AffixBase) fits(slot state.ItemSlot) bool {
	if len(a.Slots) == 0 {
		return true
	}
	for _, s := range a.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// RarityWeights are the relative odds of each rarity.
type RarityWeights struct {
	Normal float64 `json:"normal" yaml:"normal"`
	Magic  float64 `json:"magic" yaml:"magic"`
	Rare   float64 `json:"rare" yaml:"rare"`
	Unique float64 `json:"unique" yaml:"unique"`
}

// DefaultRarityWeights favors normal items heavily.
func DefaultRarityWeights() RarityWeights {
	return RarityWeights{Normal: 70, Magic: 22, Rare: 7, Unique: 1}
}

// Generator rolls new items from templates.
type Generator struct {
	Bases   []ItemBase
	Affixes []AffixBase
	Rarity  RarityWeights
}

// Roll generates an item of at most level. It reports false when no base is
// available at that level.
func (g *Generator) Roll(r *rng.Service, level int, luck rng.Luck) (state.ItemSpecs, bool) {
	if g == nil || r == nil {
		return state.ItemSpecs{}, false
	}
	eligible := make([]ItemBase, 0, len(g.Bases))
	for _, base := range g.Bases {
		if base.MinLevel <= level {
			eligible = append(eligible, base)
		}
	}
	base, ok := rng.PickWeighted(r, eligible)
	if !ok {
		return state.ItemSpecs{}, false
	}

	item := state.ItemSpecs{
		BaseID:      base.ID,
		Name:        base.Name,
		Slot:        base.Slot,
		Category:    base.Category,
		Rarity:      g.rollRarity(r, base),
		Level:       level,
		BaseEffects: state.CloneEffects(base.Effects),
	}
	for _, trigger := range base.Triggers {
		item.Triggers = append(item.Triggers, trigger.Clone())
	}
	if base.Weapon != nil {
		weapon := *base.Weapon
		item.Weapon = &weapon
	}
	item.Conditional = state.CloneConditionals(base.Conditional)

	count := affixCount(r, item.Rarity, luck)
	used := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		candidates := make([]AffixBase, 0, len(g.Affixes))
		for _, affix := range g.Affixes {
			if !used[affix.ID] && affix.fits(item.Slot) && len(tiersAt(affix, level)) > 0 {
				candidates = append(candidates, affix)
			}
		}
		affix, ok := rng.PickWeighted(r, candidates)
		if !ok {
			break
		}
		used[affix.ID] = true
		item.Affixes = append(item.Affixes, rollAffix(r, affix, level, luck))
	}
	return item, true
}

func (g *Generator) rollRarity(r *rng.Service, base ItemBase) state.Rarity {
	if base.Unique {
		return state.RarityUnique
	}
	weights := g.Rarity
	if weights == (RarityWeights{}) {
		weights = DefaultRarityWeights()
	}
	// Unique rarity only comes from unique bases.
	idx, ok := r.WeightedPick([]float64{weights.Normal, weights.Magic, weights.Rare})
	if !ok {
		return state.RarityNormal
	}
	return []state.Rarity{state.RarityNormal, state.RarityMagic, state.RarityRare}[idx]
}

func affixCount(r *rng.Service, rarity state.Rarity, luck rng.Luck) int {
	switch rarity {
	case state.RarityMagic:
		return r.IntRange(1, 2, luck)
	case state.RarityRare:
		return r.IntRange(3, 4, luck)
	case state.RarityUnique:
		return r.IntRange(4, 5, luck)
	default:
		return 0
	}
}

func tiersAt(affix AffixBase, level int) []AffixTier {
	var out []AffixTier
	for _, tier := range affix.Tiers {
		if tier.MinLevel <= level {
			out = append(out, tier)
		}
	}
	return out
}

func rollAffix(r *rng.Service, affix AffixBase, level int, luck rng.Luck) state.ItemAffix {
	tiers := tiersAt(affix, level)
	idx := r.Pick(len(tiers))
	tier := tiers[idx]
	value := r.Range(tier.Min, tier.Max, luck)
	return state.ItemAffix{
		Name: affix.Name,
		Tier: idx + 1,
		Effects: []state.StatEffect{{
			Stat:     affix.Stat,
			Modifier: affix.Modifier,
			Value:    value,
		}},
	}
}
