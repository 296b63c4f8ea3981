package state

// MonsterSpecs holds the specs of one monster of the current wave.
type MonsterSpecs struct {
	ID        string         `json:"id"`
	Base      CharacterSpecs `json:"base"`
	Character CharacterSpecs `json:"character"`
	Rarity    MonsterRarity  `json:"rarity"`
	Skills    []SkillSpecs   `json:"skills"`

	InitiativeMin float64 `json:"initiative_min"`
	InitiativeMax float64 `json:"initiative_max"`

	GoldReward       float64 `json:"gold_reward"`
	ExperienceReward float64 `json:"experience_reward"`
	LootChance       float64 `json:"loot_chance"`
}

// MonsterState is the runtime state of one monster.
type MonsterState struct {
	Character  CharacterState `json:"character"`
	Skills     []SkillState   `json:"skills"`
	Initiative float64        `json:"initiative"`
}
