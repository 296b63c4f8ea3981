package sim

import (
	"context"
	"slices"

	"grindfall/server/internal/blueprint"
	"grindfall/server/internal/combat"
	"grindfall/server/internal/rng"
	"grindfall/server/internal/state"
	"grindfall/server/internal/stats"
	logginglifecycle "grindfall/server/logging/lifecycle"
)

// updateThreat advances the threat timer by the player's threat gain.
func (i *Instance) updateThreat(elapsed float64) {
	s := i.state
	threat := &s.AreaThreat
	threat.JustIncreased = false
	if threat.Cooldown <= 0 {
		return
	}
	gain := s.PlayerSpecs.Read().ThreatGain
	threat.ElapsedCooldown += elapsed * gain * 0.01 / threat.Cooldown
	if threat.ElapsedCooldown < 1 {
		return
	}
	threat.ElapsedCooldown--
	threat.ThreatLevel++
	threat.JustIncreased = true
	for idx := range s.MonsterStates {
		s.MonsterStates[idx].Character.DirtySpecs = true
	}
	i.resolver.Events.Push(combat.Event{
		Kind:        combat.EventThreatIncreased,
		AreaLevel:   s.AreaState.Read().AreaLevel,
		ThreatLevel: threat.ThreatLevel,
	})
}

// refreshSpecs recomputes the specs of every character whose inputs changed.
func (i *Instance) refreshSpecs() {
	s := i.state
	player := &s.PlayerState.Character
	inventory := s.Inventory.Read()
	active := stats.ActiveConditionals(inventory.Conditionals(), s.PlayerSpecs.Read().Character, *player)
	if !slices.Equal(active, s.activeConditionals) {
		s.activeConditionals = active
		player.DirtySpecs = true
	}
	if player.DirtySpecs || s.PlayerSpecs.Dirty() || s.Inventory.Dirty() || s.Passives.Dirty() {
		player.DirtySpecs = false
		specs := s.PlayerSpecs.Mutate()
		*specs = stats.ComputePlayer(*specs, stats.PlayerInputs{
			Inventory: &inventory,
			Passives:  i.catalog.Passives,
			Owned:     s.Passives.Read(),
			Statuses:  player.Status,
			Character: player,
		})
	}

	monsters := s.Monsters.Read()
	area := s.AreaState.Read()
	var updated []state.MonsterSpecs
	for idx := range s.MonsterStates {
		ms := &s.MonsterStates[idx]
		if !ms.Character.DirtySpecs || idx >= len(monsters) {
			continue
		}
		if updated == nil {
			updated = *s.Monsters.Mutate()
		}
		ms.Character.DirtySpecs = false
		updated[idx] = stats.ComputeMonster(updated[idx], stats.MonsterInputs{
			AreaLevel:    area.AreaLevel,
			ThreatLevel:  s.AreaThreat.ThreatLevel,
			ThreatEffect: i.catalog.Threat,
			Statuses:     ms.Character.Status,
		})
	}
}

// control decides what happens this tick: respawn, wave rotation or the
// actions of the player and the monsters.
func (i *Instance) control() {
	s := i.state
	if !s.PlayerState.Character.Alive {
		s.AreaThreat.Cooldown = 0
		s.WaveDelay = WaveDelay
		s.queuedSkills = nil
		if s.RespawnDelay <= 0 {
			i.respawn()
		}
		return
	}
	s.RespawnDelay = RespawnDelay

	battle := s.battle()
	i.controlPlayer(battle)

	area := s.AreaState.Read()
	cleared := !battle.MonstersAlive()
	if cleared || area.GoingBack > 0 {
		s.AreaThreat.Cooldown = 0
		if cleared && !s.WaveCompleted && len(s.MonsterStates) > 0 && area.GoingBack == 0 {
			s.WaveCompleted = true
			i.resolver.Events.Push(combat.Event{Kind: combat.EventWaveCompleted, AreaLevel: area.AreaLevel})
		}
		if s.WaveDelay <= 0 {
			if area.GoingBack > 0 {
				i.goBack(area.GoingBack)
			}
			i.spawnWave()
		}
		return
	}
	s.WaveDelay = WaveDelay
	i.controlMonsters(battle)
}

// controlPlayer fires the skills queued by the client, then every ready
// auto skill. Auto skills keep enough mana for the costliest manual skill.
func (i *Instance) controlPlayer(battle *combat.Battle) {
	s := i.state
	specs := s.PlayerSpecs.Read()
	skills := s.PlayerState.Skills
	player := state.PlayerRef()

	queued := s.queuedSkills
	s.queuedSkills = nil
	for _, idx := range queued {
		if idx < 0 || idx >= len(specs.Skills) || idx >= len(skills) {
			continue
		}
		i.resolver.UseSkill(battle, player, &specs.Skills[idx], &skills[idx])
	}

	reserve := 0.0
	if specs.Character.TakeFromMana <= 0 {
		for idx, skill := range specs.Skills {
			if idx < len(specs.AutoSkills) && !specs.AutoSkills[idx] {
				reserve = max(reserve, skill.ManaCost)
			}
		}
	}
	for idx := range specs.Skills {
		if idx >= len(specs.AutoSkills) || !specs.AutoSkills[idx] || idx >= len(skills) {
			continue
		}
		skill := &specs.Skills[idx]
		if skill.ManaCost > 0 && s.PlayerState.Character.Mana-skill.ManaCost < reserve {
			continue
		}
		i.resolver.UseSkill(battle, player, skill, &skills[idx])
	}
}

// controlMonsters lets every monster whose initiative elapsed use its first
// ready skill. Acting rolls a new initiative.
func (i *Instance) controlMonsters(battle *combat.Battle) {
	s := i.state
	monsters := s.Monsters.Read()
	for idx := range battle.Monsters {
		ms := &s.MonsterStates[idx]
		if !ms.Character.Alive || ms.Initiative > 0 || ms.Character.IsStunned() {
			continue
		}
		specs := &monsters[idx]
		ref := state.MonsterRef(idx)
		for j := range specs.Skills {
			if j >= len(ms.Skills) {
				break
			}
			if i.resolver.UseSkill(battle, ref, &specs.Skills[j], &ms.Skills[j]) {
				ms.Initiative = i.rng.Range(specs.InitiativeMin, specs.InitiativeMax, rng.Neutral)
				break
			}
		}
	}
}

// respawn revives the player on an empty battlefield. Under auto progress the
// area level drops by one.
func (i *Instance) respawn() {
	s := i.state
	s.Monsters.Set(nil)
	s.MonsterStates = nil
	s.WaveCompleted = false
	s.WaveDelay = 0

	s.PlayerState = newPlayerState(s.PlayerSpecs.Read())
	s.PlayerState.Character.DirtySpecs = true

	area := s.AreaState.Mutate()
	from := area.AreaLevel
	if area.AutoProgress {
		area.AreaLevel = max(area.AreaLevel-1, s.Area.StartingLevel, 1)
	}
	area.WavesDone = 1

	logginglifecycle.PlayerRespawned(context.Background(), i.deps.Publisher, s.Tick, i.actor, nil)
	if from != area.AreaLevel {
		logginglifecycle.AreaLevelChanged(context.Background(), i.deps.Publisher, s.Tick, i.actor, logginglifecycle.AreaLevelPayload{
			From: from,
			To:   area.AreaLevel,
		}, nil)
	}
}

// goBack lowers the area level, never below the area's starting level.
func (i *Instance) goBack(amount int) {
	s := i.state
	area := s.AreaState.Mutate()
	from := area.AreaLevel
	area.AreaLevel = max(area.AreaLevel-amount, s.Area.StartingLevel, 1)
	area.WavesDone = 1
	area.GoingBack = 0
	if from != area.AreaLevel {
		logginglifecycle.AreaLevelChanged(context.Background(), i.deps.Publisher, s.Tick, i.actor, logginglifecycle.AreaLevelPayload{
			From: from,
			To:   area.AreaLevel,
		}, nil)
	}
}

// spawnWave replaces the monsters with a new wave and resets the threat.
func (i *Instance) spawnWave() {
	s := i.state
	s.WaveCompleted = false
	s.Monsters.Set(nil)
	s.MonsterStates = nil

	blueprintArea, ok := i.catalog.Area(s.Area.ID)
	if !ok {
		i.deps.Logger.Printf("[sim] unknown area character=%s area=%s", s.CharacterID, s.Area.ID)
		s.WaveDelay = WaveDelay
		return
	}
	area := s.AreaState.Mutate()
	area.IsBoss = len(blueprintArea.BossWaves) > 0 &&
		area.AreaLevel%BossLevelInterval == 0 &&
		area.WavesDone >= WavesPerAreaLevel

	pool := blueprintArea.Waves
	if area.IsBoss {
		pool = blueprintArea.BossWaves
	}
	available := make([]blueprint.WaveBlueprint, 0, len(pool))
	for _, wave := range pool {
		if wave.Available(area.AreaLevel) {
			available = append(available, wave)
		}
	}
	wave, ok := rng.PickWeighted(i.rng, available)
	if !ok {
		i.deps.Logger.Printf("[sim] no wave available character=%s area=%s level=%d", s.CharacterID, s.Area.ID, area.AreaLevel)
		s.WaveDelay = WaveDelay
		return
	}

	monsters := i.layoutWave(wave, area.AreaLevel)
	states := make([]state.MonsterState, len(monsters))
	for idx, specs := range monsters {
		states[idx] = state.MonsterState{
			Character:  state.NewCharacterState(specs.Character),
			Skills:     make([]state.SkillState, len(specs.Skills)),
			Initiative: i.rng.Range(specs.InitiativeMin, specs.InitiativeMax, rng.Neutral),
		}
	}
	s.Monsters.Set(monsters)
	s.MonsterStates = states

	cooldown := ThreatCooldown
	if area.IsBoss {
		cooldown = ThreatBossCooldown
	}
	s.AreaThreat = state.AreaThreat{Cooldown: cooldown}
}

// layoutWave places the wave's monsters on two rows of MaxMonstersPerRow
// cells. Tall monsters take both rows; a monster that does not fit is
// skipped.
func (i *Instance) layoutWave(wave blueprint.WaveBlueprint, level int) []state.MonsterSpecs {
	top, bottom := MaxMonstersPerRow, MaxMonstersPerRow
	var out []state.MonsterSpecs
	for _, spawn := range wave.Spawns {
		template, ok := i.catalog.Monster(spawn.Monster)
		if !ok {
			continue
		}
		count := i.rng.IntRange(spawn.Min, spawn.Max, rng.Neutral)
		for n := 0; n < count; n++ {
			width, height := template.Character.Size.Footprint()
			useTop := height > 1 || top >= bottom
			space := bottom
			if useTop {
				space = top
			}
			x := MaxMonstersPerRow + 1 - space
			y := 2
			switch {
			case height > 1:
				if top < width || bottom < width {
					continue
				}
				top -= width
				bottom -= width
				y = 1
			case useTop:
				if top < width {
					continue
				}
				top -= width
				y = 1
			default:
				if bottom < width {
					continue
				}
				bottom -= width
			}

			specs := i.newMonster(template, level)
			specs.Base.X, specs.Base.Y = x, y
			specs = stats.ComputeMonster(specs, stats.MonsterInputs{
				AreaLevel:    level,
				ThreatEffect: i.catalog.Threat,
			})
			out = append(out, specs)
			if top == 0 && bottom == 0 {
				return out
			}
		}
	}
	return out
}

func (i *Instance) newMonster(template blueprint.MonsterBlueprint, level int) state.MonsterSpecs {
	base := template.Character.Clone()
	if base.Name == "" {
		base.Name = template.ID
	}
	skills := make([]state.SkillSpecs, 0, len(template.Skills))
	for _, id := range template.Skills {
		if skill, ok := i.catalog.Skill(id); ok {
			skills = append(skills, state.NewSkillSpecs(skill))
		}
	}
	factor := stats.Exponential(level, stats.MonsterIncreaseFactor)
	return state.MonsterSpecs{
		ID:               template.ID,
		Base:             base,
		Character:        base.Clone(),
		Rarity:           template.Rarity,
		Skills:           skills,
		InitiativeMin:    template.InitiativeMin,
		InitiativeMax:    template.InitiativeMax,
		GoldReward:       template.Gold * factor,
		ExperienceReward: template.Experience * factor,
		LootChance:       template.LootChance,
	}
}

// updateEntities advances timers, cooldowns, statuses and regeneration.
// Nothing but the delays moves while the player is dead or going back.
func (i *Instance) updateEntities(elapsed float64) {
	s := i.state
	s.RespawnDelay = max(s.RespawnDelay-elapsed, 0)
	s.WaveDelay = max(s.WaveDelay-elapsed, 0)
	if !s.PlayerState.Character.Alive || s.AreaState.Read().GoingBack > 0 {
		return
	}

	battle := s.battle()
	specs := s.PlayerSpecs.Read()
	i.resolver.TickStatuses(battle, state.PlayerRef(), elapsed)
	combat.TickCooldowns(specs.Skills, s.PlayerState.Skills, elapsed)
	combat.Regenerate(battle.Player, elapsed)

	monsters := s.Monsters.Read()
	for idx := range battle.Monsters {
		ms := &s.MonsterStates[idx]
		if !ms.Character.Alive {
			continue
		}
		ms.Initiative = max(ms.Initiative-elapsed, 0)
		if ms.Initiative > 0 {
			continue
		}
		i.resolver.TickStatuses(battle, state.MonsterRef(idx), elapsed)
		combat.TickCooldowns(monsters[idx].Skills, ms.Skills, elapsed)
		combat.Regenerate(battle.Monsters[idx], elapsed)
	}
}
