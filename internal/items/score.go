package items

import "grindfall/server/internal/state"

// Score ranks loot when the queue must discard something. Fields are compared
// in declaration order.
type Score struct {
	Preferred int
	Rarity    int
	AffixTier int
	Level     int
}

// ScoreItem computes the eviction score of item under the current category
// preference.
func ScoreItem(item state.ItemSpecs, preferred state.ItemCategory) Score {
	score := Score{
		Rarity:    item.Rarity.Tier(),
		AffixTier: item.AffixTierSum(),
		Level:     item.Level,
	}
	if preferred != state.CategoryAny && item.Category == preferred {
		score.Preferred = 1
	}
	return score
}

// Compare returns -1, 0 or 1 as s ranks below, equal to or above other.
func (s Score) Compare(other Score) int {
	pairs := [][2]int{
		{s.Preferred, other.Preferred},
		{s.Rarity, other.Rarity},
		{s.AffixTier, other.AffixTier},
		{s.Level, other.Level},
	}
	for _, p := range pairs {
		switch {
		case p[0] < p[1]:
			return -1
		case p[0] > p[1]:
			return 1
		}
	}
	return 0
}
