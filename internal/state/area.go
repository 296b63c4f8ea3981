package state

// AreaSpecs is the static description of the area a quest runs in.
type AreaSpecs struct {
	ID                string  `json:"id" yaml:"id"`
	Name              string  `json:"name" yaml:"name"`
	StartingLevel     int     `json:"starting_level" yaml:"starting_level"`
	ItemLevelModifier int     `json:"item_level_modifier" yaml:"item_level_modifier"`
	GoldFactor        float64 `json:"gold_factor" yaml:"gold_factor"`
}

// AreaState tracks progression inside the area.
type AreaState struct {
	AreaLevel    int  `json:"area_level"`
	MaxAreaLevel int  `json:"max_area_level"`
	WavesDone    int  `json:"waves_done"`
	IsBoss       bool `json:"is_boss"`
	AutoProgress bool `json:"auto_progress"`
	GoingBack    int  `json:"going_back"`
	EndQuest     bool `json:"end_quest"`
}

// AreaThreat is the difficulty scalar that grows while the player fights.
type AreaThreat struct {
	ThreatLevel     int     `json:"threat_level"`
	Cooldown        float64 `json:"cooldown"`
	ElapsedCooldown float64 `json:"elapsed_cooldown"`
	JustIncreased   bool    `json:"just_increased,omitempty"`
}

// GameStats accumulates statistics over the whole run.
type GameStats struct {
	ElapsedTime      float64 `json:"elapsed_time"`
	MonstersKilled   int     `json:"monsters_killed"`
	PlayerDeaths     int     `json:"player_deaths"`
	ItemsLooted      int     `json:"items_looted"`
	ItemsSold        int     `json:"items_sold"`
	GoldCollected    float64 `json:"gold_collected"`
	HighestAreaLevel int     `json:"highest_area_level"`
}
