package sim

import (
	"errors"

	"grindfall/server/internal/blueprint"
	"grindfall/server/internal/gameerr"
	"grindfall/server/internal/items"
	"grindfall/server/internal/lazysync"
	"grindfall/server/internal/state"
	"grindfall/server/internal/stats"
)

// ErrMissingCatalog indicates a state was built without static game data.
var ErrMissingCatalog = errors.New("sim: catalog is nil")

// NewState builds a fresh run for characterID in the area areaID. An empty
// areaID selects the catalog's first area. The first tick spawns a wave.
func NewState(catalog *blueprint.Catalog, characterID, areaID, seed string) (*State, error) {
	if catalog == nil {
		return nil, gameerr.Infrastructure("new state", ErrMissingCatalog)
	}
	area, ok := catalog.Area(areaID)
	if !ok {
		return nil, gameerr.NotFound("area %q", areaID)
	}

	inventory := items.NewInventory(catalog.Player.BagSize)
	specs, err := newPlayerSpecs(catalog)
	if err != nil {
		return nil, err
	}
	specs = stats.ComputePlayer(specs, stats.PlayerInputs{
		Inventory: &inventory,
		Passives:  catalog.Passives,
	})

	level := max(area.Specs.StartingLevel, 1)
	s := &State{
		CharacterID: characterID,
		Seed:        seed,
		Area:        area.Specs,
		AreaState: lazysync.New(state.AreaState{
			AreaLevel:    level,
			MaxAreaLevel: level,
			WavesDone:    1,
			AutoProgress: true,
		}),
		Passives:     lazysync.New(state.PassivesTreeState{}),
		PlayerSpecs:  lazysync.New(specs),
		PlayerState:  newPlayerState(specs),
		Inventory:    lazysync.New(inventory),
		Resources:    lazysync.New(state.PlayerResources{}),
		Monsters:     lazysync.New([]state.MonsterSpecs(nil)),
		Loot:         lazysync.New(items.NewLootQueue(catalog.Player.LootQueue)),
		QuestRewards: lazysync.New([]state.ItemSpecs(nil)),
		Stats:        state.GameStats{HighestAreaLevel: level},
		RespawnDelay: RespawnDelay,
	}
	return s, nil
}

func newPlayerSpecs(catalog *blueprint.Catalog) (state.PlayerSpecs, error) {
	specs := state.PlayerSpecs{
		Base:             catalog.Player.Character.Clone(),
		Level:            1,
		ExperienceNeeded: stats.PlayerLevelUpCost(1),
		MaxSkills:        catalog.Player.MaxSkills,
		BuySkillCost:     catalog.Player.BuySkillCost,
	}
	for _, id := range catalog.Player.Skills {
		base, ok := catalog.Skill(id)
		if !ok {
			return state.PlayerSpecs{}, gameerr.NotFound("skill %q", id)
		}
		specs.Skills = append(specs.Skills, state.NewSkillSpecs(base))
		specs.AutoSkills = append(specs.AutoSkills, true)
	}
	if specs.MaxSkills < len(specs.Skills) {
		specs.MaxSkills = len(specs.Skills)
	}
	return specs, nil
}

func newPlayerState(specs state.PlayerSpecs) state.PlayerState {
	return state.PlayerState{
		Character: state.NewCharacterState(specs.Character),
		Skills:    make([]state.SkillState, len(specs.Skills)),
	}
}
