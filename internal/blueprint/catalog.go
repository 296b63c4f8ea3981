// Package blueprint holds the static game data every instance is built from:
// the player template, skills, monsters, areas, item templates and the
// passive tree. A Catalog is read-only after loading and shared by every
// instance.
package blueprint

import (
	"grindfall/server/internal/items"
	"grindfall/server/internal/state"
)

// PlayerBlueprint is the template of a new character.
type PlayerBlueprint struct {
	Character    state.CharacterSpecs `json:"character" yaml:"character"`
	Skills       []string             `json:"skills" yaml:"skills"`
	MaxSkills    int                  `json:"max_skills" yaml:"max_skills"`
	BagSize      int                  `json:"bag_size" yaml:"bag_size"`
	BuySkillCost float64              `json:"buy_skill_cost" yaml:"buy_skill_cost"`
	LootQueue    int                  `json:"loot_queue,omitempty" yaml:"loot_queue,omitempty"`
	// Shop lists the skills the player may buy.
	Shop []string `json:"shop" yaml:"shop"`
}

// MonsterBlueprint is the template a wave spawns monsters from.
type MonsterBlueprint struct {
	ID            string               `json:"id" yaml:"id"`
	Character     state.CharacterSpecs `json:"character" yaml:"character"`
	Rarity        state.MonsterRarity  `json:"rarity" yaml:"rarity"`
	Skills        []string             `json:"skills" yaml:"skills"`
	InitiativeMin float64              `json:"initiative_min" yaml:"initiative_min"`
	InitiativeMax float64              `json:"initiative_max" yaml:"initiative_max"`
	Gold          float64              `json:"gold" yaml:"gold"`
	Experience    float64              `json:"experience" yaml:"experience"`
	LootChance    float64              `json:"loot_chance" yaml:"loot_chance"`
}

// SpawnBlueprint spawns between Min and Max copies of a monster.
type SpawnBlueprint struct {
	Monster string `json:"monster" yaml:"monster"`
	Min     int    `json:"min" yaml:"min"`
	Max     int    `json:"max" yaml:"max"`
}

// WaveBlueprint is one weighted wave composition. Zero level bounds are open.
type WaveBlueprint struct {
	Weight   float64          `json:"weight" yaml:"weight"`
	MinLevel int              `json:"min_level,omitempty" yaml:"min_level,omitempty"`
	MaxLevel int              `json:"max_level,omitempty" yaml:"max_level,omitempty"`
	Spawns   []SpawnBlueprint `json:"spawns" yaml:"spawns"`
}

// PickWeight implements rng.Weighted.
func (w WaveBlueprint) PickWeight() float64 { return w.Weight }

// Available reports whether the wave can spawn at level.
func (w WaveBlueprint) Available(level int) bool {
	if w.MinLevel > 0 && level < w.MinLevel {
		return false
	}
	if w.MaxLevel > 0 && level > w.MaxLevel {
		return false
	}
	return true
}

// AreaBlueprint describes an area and the waves it spawns.
type AreaBlueprint struct {
	Specs     state.AreaSpecs `json:"specs" yaml:"specs"`
	Waves     []WaveBlueprint `json:"waves" yaml:"waves"`
	BossWaves []WaveBlueprint `json:"boss_waves" yaml:"boss_waves"`
}

// Catalog is the complete static game data.
type Catalog struct {
	Player   PlayerBlueprint         `json:"player" yaml:"player"`
	Skills   []state.SkillBase       `json:"skills" yaml:"skills"`
	Monsters []MonsterBlueprint      `json:"monsters" yaml:"monsters"`
	Areas    []AreaBlueprint         `json:"areas" yaml:"areas"`
	Items    []items.ItemBase        `json:"items" yaml:"items"`
	Affixes  []items.AffixBase       `json:"affixes" yaml:"affixes"`
	Rarity   items.RarityWeights     `json:"rarity" yaml:"rarity"`
	Passives state.PassivesTreeSpecs `json:"passives" yaml:"passives"`
	// Threat lists the effects monsters gain per threat level.
	Threat []state.StatEffect `json:"threat" yaml:"threat"`
}

// Skill returns the skill with the given id.
func (c *Catalog) Skill(id string) (state.SkillBase, bool) {
	if c == nil {
		return state.SkillBase{}, false
	}
	for _, skill := range c.Skills {
		if skill.ID == id {
			return skill.Clone(), true
		}
	}
	return state.SkillBase{}, false
}

// Shop returns the skills offered to the player in shop order.
func (c *Catalog) Shop() []state.SkillBase {
	if c == nil {
		return nil
	}
	out := make([]state.SkillBase, 0, len(c.Player.Shop))
	for _, id := range c.Player.Shop {
		if skill, ok := c.Skill(id); ok {
			out = append(out, skill)
		}
	}
	return out
}

// Monster returns the monster template with the given id.
func (c *Catalog) Monster(id string) (MonsterBlueprint, bool) {
	if c == nil {
		return MonsterBlueprint{}, false
	}
	for _, monster := range c.Monsters {
		if monster.ID == id {
			return monster, true
		}
	}
	return MonsterBlueprint{}, false
}

// Area returns the area with the given id. An empty id selects the first
// area.
func (c *Catalog) Area(id string) (AreaBlueprint, bool) {
	if c == nil || len(c.Areas) == 0 {
		return AreaBlueprint{}, false
	}
	if id == "" {
		return c.Areas[0], true
	}
	for _, area := range c.Areas {
		if area.Specs.ID == id {
			return area, true
		}
	}
	return AreaBlueprint{}, false
}

// Generator returns an item generator over the catalog's templates.
func (c *Catalog) Generator() *items.Generator {
	if c == nil {
		return nil
	}
	return &items.Generator{Bases: c.Items, Affixes: c.Affixes, Rarity: c.Rarity}
}
