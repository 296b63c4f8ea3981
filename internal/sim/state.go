package sim

import (
	"grindfall/server/internal/combat"
	"grindfall/server/internal/items"
	"grindfall/server/internal/lazysync"
	"grindfall/server/internal/state"
)

const (
	// WavesPerAreaLevel is the number of waves cleared before the area level
	// is completed.
	WavesPerAreaLevel = 5
	// BossLevelInterval spawns a boss wave on every area level divisible by it.
	BossLevelInterval = 10
	// MaxMonstersPerRow bounds the width of each of the two battle rows.
	MaxMonstersPerRow = 3

	// ThreatCooldown is the seconds of fighting per threat level.
	ThreatCooldown = 20.0
	// ThreatBossCooldown replaces ThreatCooldown while a boss is up.
	ThreatBossCooldown = 60.0

	// RespawnDelay is the seconds the player stays dead.
	RespawnDelay = 5.0
	// WaveDelay is the seconds between a cleared wave and the next one.
	WaveDelay = 1.0

	// PlayerLifePerLevel is the base life gained per player level.
	PlayerLifePerLevel = 3.0
	// SkillBaseCost prices the first bought skill when the blueprint is free.
	SkillBaseCost = 100.0
	// SkillCostFactor multiplies the price of the next bought skill.
	SkillCostFactor = 1000.0
	// QuestRewardChoices is the number of items offered when the quest ends.
	QuestRewardChoices = 3
)

// State is the complete simulation state of one character's run. Cells hold
// the sub-states sent only when they change; the plain fields are sent on
// every update.
type State struct {
	CharacterID string `json:"character_id"`
	Seed        string `json:"seed"`
	Tick        uint64 `json:"tick"`

	Area       state.AreaSpecs                `json:"area"`
	AreaState  lazysync.Cell[state.AreaState] `json:"area_state"`
	AreaThreat state.AreaThreat               `json:"area_threat"`

	Passives lazysync.Cell[state.PassivesTreeState] `json:"passives"`

	PlayerSpecs lazysync.Cell[state.PlayerSpecs]     `json:"player_specs"`
	PlayerState state.PlayerState                    `json:"player_state"`
	Inventory   lazysync.Cell[state.Inventory]       `json:"inventory"`
	Resources   lazysync.Cell[state.PlayerResources] `json:"resources"`

	Monsters      lazysync.Cell[[]state.MonsterSpecs] `json:"monsters"`
	MonsterStates []state.MonsterState                `json:"monster_states"`

	Loot         lazysync.Cell[items.LootQueue]   `json:"loot"`
	QuestRewards lazysync.Cell[[]state.ItemSpecs] `json:"quest_rewards"`
	Stats        state.GameStats                  `json:"stats"`

	WaveCompleted bool    `json:"wave_completed,omitempty"`
	WaveDelay     float64 `json:"wave_delay"`
	RespawnDelay  float64 `json:"respawn_delay"`
	Terminated    bool    `json:"terminated,omitempty"`

	// queuedSkills holds the skill indexes requested by use_skill commands
	// this tick.
	queuedSkills []int
	// activeConditionals is the outcome of the player's conditional
	// modifiers at the last spec refresh.
	activeConditionals []bool
}

// QuestTerminated reports whether the run reached its terminal state and the
// instance should be persisted and dropped.
func (s *State) QuestTerminated() bool {
	return s != nil && s.Terminated
}

// MarkAllDirty forces every cell to be sent on the next sync.
func (s *State) MarkAllDirty() {
	if s == nil {
		return
	}
	s.AreaState.MarkDirty()
	s.Passives.MarkDirty()
	s.PlayerSpecs.MarkDirty()
	s.Inventory.MarkDirty()
	s.Resources.MarkDirty()
	s.Monsters.MarkDirty()
	s.Loot.MarkDirty()
	s.QuestRewards.MarkDirty()
}

// battle builds the combat view over the current state. The player's specs
// are a copy; combat only writes character states.
func (s *State) battle() *combat.Battle {
	specs := s.PlayerSpecs.Read()
	player := specs.Character
	battle := &combat.Battle{
		Player: combat.Combatant{Specs: &player, State: &s.PlayerState.Character},
	}
	monsters := s.Monsters.Read()
	n := min(len(monsters), len(s.MonsterStates))
	battle.Monsters = make([]combat.Combatant, n)
	for i := 0; i < n; i++ {
		battle.Monsters[i] = combat.Combatant{
			Specs: &monsters[i].Character,
			State: &s.MonsterStates[i].Character,
		}
	}
	return battle
}

func (s *State) resetJustFlags() {
	s.PlayerState.Character.ResetJustFlags()
	s.PlayerState.JustLeveledUp = false
	for i := range s.PlayerState.Skills {
		s.PlayerState.Skills[i].JustTriggered = false
	}
	for i := range s.MonsterStates {
		s.MonsterStates[i].Character.ResetJustFlags()
		for j := range s.MonsterStates[i].Skills {
			s.MonsterStates[i].Skills[j].JustTriggered = false
		}
	}
	s.AreaThreat.JustIncreased = false
}
