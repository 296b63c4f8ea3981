package sim

import (
	"context"
	"math"

	"grindfall/server/internal/combat"
	"grindfall/server/internal/items"
	"grindfall/server/internal/rng"
	"grindfall/server/internal/state"
	loggingeconomy "grindfall/server/logging/economy"
	logginglifecycle "grindfall/server/logging/lifecycle"
)

// resolveEvents pays out the events raised this tick and fires the
// triggers reacting to them.
func (i *Instance) resolveEvents() {
	events := i.resolver.Events.Drain()
	if len(events) == 0 {
		return
	}
	for _, event := range events {
		switch event.Kind {
		case combat.EventKill:
			i.handleKill(event.Target)
		case combat.EventWaveCompleted:
			i.handleWaveCompleted(event.AreaLevel)
		}
	}
	s := i.state
	i.resolver.ResolveTriggers(s.battle(), events, combat.TriggerContext{AreaLevel: s.AreaState.Read().AreaLevel})
}

func (i *Instance) handleKill(target state.CharacterRef) {
	s := i.state
	if target.Kind == state.KindPlayer {
		s.Stats.PlayerDeaths++
		logginglifecycle.PlayerDied(context.Background(), i.deps.Publisher, s.Tick, i.actor, nil)
		return
	}
	monsters := s.Monsters.Read()
	if target.Index < 0 || target.Index >= len(monsters) {
		return
	}
	monster := monsters[target.Index]
	s.Stats.MonstersKilled++

	specs := s.PlayerSpecs.Read()
	goldFactor := s.Area.GoldFactor
	if goldFactor <= 0 {
		goldFactor = 1
	}
	gold := math.Round(monster.GoldReward * specs.GoldFind / 100 * goldFactor)
	resources := s.Resources.Mutate()
	resources.Gold += gold
	resources.Experience += monster.ExperienceReward
	s.Stats.GoldCollected += gold
	loggingeconomy.Rewarded(context.Background(), i.deps.Publisher, s.Tick, i.actor, loggingeconomy.RewardedPayload{
		Gold:       gold,
		Experience: monster.ExperienceReward,
	}, map[string]any{"monster": monster.ID})

	if monster.LootChance > 0 && i.rng.Chance(monster.LootChance, rng.LuckOf(specs.Character.Luck)) {
		i.dropLoot(s.AreaState.Read().AreaLevel + s.Area.ItemLevelModifier)
	}
}

// handleWaveCompleted counts the wave and completes the area level after
// the last regular wave or a boss.
func (i *Instance) handleWaveCompleted(level int) {
	s := i.state
	area := s.AreaState.Mutate()
	if !area.IsBoss {
		area.WavesDone++
	}
	if !area.IsBoss && area.WavesDone <= WavesPerAreaLevel {
		return
	}

	boss := area.IsBoss
	area.WavesDone = 1
	from := area.AreaLevel
	if area.AutoProgress {
		area.AreaLevel++
	}
	area.MaxAreaLevel = max(area.MaxAreaLevel, area.AreaLevel)
	s.Stats.HighestAreaLevel = max(s.Stats.HighestAreaLevel, level)
	if from != area.AreaLevel {
		logginglifecycle.AreaLevelChanged(context.Background(), i.deps.Publisher, s.Tick, i.actor, logginglifecycle.AreaLevelPayload{
			From: from,
			To:   area.AreaLevel,
			Boss: boss,
		}, nil)
	}
	i.dropLoot(level + s.Area.ItemLevelModifier)
}

// dropLoot rolls an item into the loot queue. Entries pushed out of the
// queue are sold automatically.
func (i *Instance) dropLoot(level int) {
	s := i.state
	luck := rng.LuckOf(s.PlayerSpecs.Read().Character.Luck)
	item, ok := i.catalog.Generator().Roll(i.rng, max(level, 1), luck)
	if !ok {
		return
	}
	result := s.Loot.Mutate().Drop(item)
	s.Stats.ItemsLooted++
	if result.Kept {
		loggingeconomy.LootDropped(context.Background(), i.deps.Publisher, s.Tick, i.actor, lootPayload(result.Identifier, item), nil)
	}
	for _, evicted := range result.Evicted {
		price := items.SellPrice(evicted.Item)
		s.Resources.Mutate().Gold += price
		s.Stats.ItemsSold++
		loggingeconomy.LootEvicted(context.Background(), i.deps.Publisher, s.Tick, i.actor, lootPayload(evicted.Identifier, evicted.Item), map[string]any{"gold": price})
	}
}

func lootPayload(id uint32, item state.ItemSpecs) loggingeconomy.LootPayload {
	return loggingeconomy.LootPayload{
		Identifier: id,
		Item:       item.BaseID,
		Rarity:     string(item.Rarity),
		Level:      item.Level,
	}
}
