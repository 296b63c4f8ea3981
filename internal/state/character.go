package state

// CharacterRef addresses a character inside a battle by index. Combat code
// resolves refs against the owning slices instead of holding pointers into
// them across an action.
type CharacterRef struct {
	Kind  CharacterKind `json:"kind"`
	Index int           `json:"index"`
}

// PlayerRef is the ref of the single player in an instance.
func PlayerRef() CharacterRef {
	return CharacterRef{Kind: KindPlayer}
}

// MonsterRef returns the ref of the monster at index.
func MonsterRef(index int) CharacterRef {
	return CharacterRef{Kind: KindMonster, Index: index}
}

// CharacterSpecs holds the derived, read-mostly combat numbers of a
// character.
type CharacterSpecs struct {
	Name string        `json:"name" yaml:"name"`
	Size CharacterSize `json:"size" yaml:"size"`
	X    int           `json:"x" yaml:"x"`
	Y    int           `json:"y" yaml:"y"`

	MaxLife   float64 `json:"max_life" yaml:"max_life"`
	LifeRegen float64 `json:"life_regen" yaml:"life_regen"`
	MaxMana   float64 `json:"max_mana" yaml:"max_mana"`
	ManaRegen float64 `json:"mana_regen" yaml:"mana_regen"`

	Armor      map[DamageType]float64 `json:"armor,omitempty" yaml:"armor,omitempty"`
	Resistance map[DamageType]float64 `json:"resistance,omitempty" yaml:"resistance,omitempty"`

	Block        float64 `json:"block" yaml:"block"`
	BlockSpell   float64 `json:"block_spell" yaml:"block_spell"`
	BlockDamage  float64 `json:"block_damage" yaml:"block_damage"`
	Evade        float64 `json:"evade" yaml:"evade"`
	TakeFromMana float64 `json:"take_from_mana" yaml:"take_from_mana"`
	Luck         float64 `json:"luck" yaml:"luck"`

	Triggers []TriggerSpecs `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Effects  []StatEffect   `json:"effects,omitempty" yaml:"-"`
}

// Clone returns a deep copy of the specs.
func (s CharacterSpecs) Clone() CharacterSpecs {
	cloned := s
	cloned.Armor = cloneDamageMap(s.Armor)
	cloned.Resistance = cloneDamageMap(s.Resistance)
	if len(s.Triggers) > 0 {
		cloned.Triggers = make([]TriggerSpecs, len(s.Triggers))
		for i, trigger := range s.Triggers {
			cloned.Triggers[i] = trigger.Clone()
		}
	}
	cloned.Effects = CloneEffects(s.Effects)
	return cloned
}

// Occupies reports whether the character footprint covers the cell.
func (s CharacterSpecs) Occupies(x, y int) bool {
	w, h := s.Size.Footprint()
	return x >= s.X && x < s.X+w && y >= s.Y && y < s.Y+h
}

// CharacterState is the fast-changing runtime state of a character.
type CharacterState struct {
	Life   float64          `json:"life"`
	Mana   float64          `json:"mana"`
	Alive  bool             `json:"alive"`
	Status []StatusInstance `json:"statuses,omitempty"`

	JustHurt     bool `json:"just_hurt,omitempty"`
	JustHurtCrit bool `json:"just_hurt_crit,omitempty"`
	JustBlocked  bool `json:"just_blocked,omitempty"`
	JustEvaded   bool `json:"just_evaded,omitempty"`

	DirtySpecs bool `json:"-"`
}

// NewCharacterState returns a full-life, full-mana state for specs.
func NewCharacterState(specs CharacterSpecs) CharacterState {
	return CharacterState{
		Life:  specs.MaxLife,
		Mana:  specs.MaxMana,
		Alive: true,
	}
}

// ResetJustFlags clears the per-tick feedback flags.
func (s *CharacterState) ResetJustFlags() {
	if s == nil {
		return
	}
	s.JustHurt = false
	s.JustHurtCrit = false
	s.JustBlocked = false
	s.JustEvaded = false
}

// IsStunned reports whether an active stun status prevents acting.
func (s *CharacterState) IsStunned() bool {
	if s == nil {
		return false
	}
	for _, status := range s.Status {
		if status.Specs.Kind == StatusStun {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the state.
func (s CharacterState) Clone() CharacterState {
	cloned := s
	if len(s.Status) > 0 {
		cloned.Status = make([]StatusInstance, len(s.Status))
		for i, status := range s.Status {
			cloned.Status[i] = status.Clone()
		}
	}
	return cloned
}

func cloneDamageMap(src map[DamageType]float64) map[DamageType]float64 {
	if len(src) == 0 {
		return nil
	}
	cloned := make(map[DamageType]float64, len(src))
	for k, v := range src {
		cloned[k] = v
	}
	return cloned
}
