// Package combat resolves skills, damage, statuses and triggers between the
// player and the monsters of the current wave.
package combat

import "grindfall/server/internal/state"

// Rows of the battle grid. Monsters stand on either row, larger monsters span
// both.
const (
	FirstRow = 1
	LastRow  = 2
)

// Combatant pairs the specs and state of one character. Specs are only read
// during resolution.
type Combatant struct {
	Specs *state.CharacterSpecs
	State *state.CharacterState
}

// Battle is the view the resolver works on. Characters are addressed by
// CharacterRef and looked up on every access.
type Battle struct {
	Player   Combatant
	Monsters []Combatant
}

// Get resolves ref. It reports false for unknown refs or missing entries.
func (b *Battle) Get(ref state.CharacterRef) (Combatant, bool) {
	if b == nil {
		return Combatant{}, false
	}
	var c Combatant
	switch ref.Kind {
	case state.KindPlayer:
		c = b.Player
	case state.KindMonster:
		if ref.Index < 0 || ref.Index >= len(b.Monsters) {
			return Combatant{}, false
		}
		c = b.Monsters[ref.Index]
	default:
		return Combatant{}, false
	}
	if c.Specs == nil || c.State == nil {
		return Combatant{}, false
	}
	return c, true
}

// Refs lists every character of the battle, player first.
func (b *Battle) Refs() []state.CharacterRef {
	if b == nil {
		return nil
	}
	refs := make([]state.CharacterRef, 0, len(b.Monsters)+1)
	refs = append(refs, state.PlayerRef())
	for i := range b.Monsters {
		refs = append(refs, state.MonsterRef(i))
	}
	return refs
}

// Opponents lists the characters on the other side of actor.
func (b *Battle) Opponents(actor state.CharacterRef) []state.CharacterRef {
	if b == nil {
		return nil
	}
	if actor.Kind == state.KindMonster {
		return []state.CharacterRef{state.PlayerRef()}
	}
	refs := make([]state.CharacterRef, 0, len(b.Monsters))
	for i := range b.Monsters {
		refs = append(refs, state.MonsterRef(i))
	}
	return refs
}

// Allies lists the characters on the side of actor, excluding actor.
func (b *Battle) Allies(actor state.CharacterRef) []state.CharacterRef {
	if b == nil || actor.Kind != state.KindMonster {
		return nil
	}
	refs := make([]state.CharacterRef, 0, len(b.Monsters))
	for i := range b.Monsters {
		if i != actor.Index {
			refs = append(refs, state.MonsterRef(i))
		}
	}
	return refs
}

// MonstersAlive reports whether any monster still stands.
func (b *Battle) MonstersAlive() bool {
	if b == nil {
		return false
	}
	for _, m := range b.Monsters {
		if m.State != nil && m.State.Alive {
			return true
		}
	}
	return false
}
