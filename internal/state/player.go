package state

// PlayerSpecs holds the effective specs of the player plus progression data.
type PlayerSpecs struct {
	Base      CharacterSpecs `json:"base"`
	Character CharacterSpecs `json:"character"`

	Level            int     `json:"level"`
	ExperienceNeeded float64 `json:"experience_needed"`
	MaxSkills        int     `json:"max_skills"`
	BuySkillCost     float64 `json:"buy_skill_cost"`
	GoldFind         float64 `json:"gold_find"`
	ThreatGain       float64 `json:"threat_gain"`

	Skills     []SkillSpecs `json:"skills"`
	AutoSkills []bool       `json:"auto_skills"`
}

// HasSkill reports whether a skill with the given blueprint id is owned.
func (p *PlayerSpecs) HasSkill(id string) bool {
	if p == nil {
		return false
	}
	for _, skill := range p.Skills {
		if skill.Base.ID == id {
			return true
		}
	}
	return false
}

// PlayerState is the runtime state of the player.
type PlayerState struct {
	Character     CharacterState `json:"character"`
	Skills        []SkillState   `json:"skills"`
	JustLeveledUp bool           `json:"just_leveled_up,omitempty"`
}

// PlayerResources holds the player's currencies.
type PlayerResources struct {
	Gold          float64 `json:"gold"`
	Experience    float64 `json:"experience"`
	PassivePoints int     `json:"passive_points"`
}
