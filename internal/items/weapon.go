package items

import "grindfall/server/internal/state"

// WeaponSkillID is the blueprint id of every skill granted by a weapon.
const WeaponSkillID = "weapon_swing"

// weaponSkillUpgradeCost is the first upgrade price of a weapon skill.
const weaponSkillUpgradeCost = 10

// WeaponSkill builds the attack skill granted by item. It reports false when
// the item carries no weapon specs.
func WeaponSkill(item state.ItemSpecs) (state.SkillBase, bool) {
	weapon := item.Weapon
	if weapon == nil {
		return state.SkillBase{}, false
	}
	maxDamage := max(weapon.MaxDamage, 0)
	minDamage := min(max(weapon.MinDamage, 0), maxDamage)
	shape := weapon.Shape
	if shape == "" {
		shape = state.ShapeSingle
	}
	name := item.Name
	if name == "" {
		name = "Weapon Attack"
	}
	return state.SkillBase{
		ID:          WeaponSkillID,
		Name:        name,
		SkillType:   state.SkillAttack,
		Cooldown:    max(weapon.Cooldown, 0),
		UpgradeCost: weaponSkillUpgradeCost,
		Targets: []state.TargetGroup{{
			Range:      weapon.Range,
			TargetType: state.TargetEnemy,
			Shape:      shape,
			Effects: []state.SkillEffect{{
				Kind: state.EffectDamage,
				Damage: map[state.DamageType]state.DamageRange{
					state.DamagePhysical: {Min: minDamage, Max: maxDamage},
				},
				CritChance: weapon.CritChance,
				CritDamage: weapon.CritDamage,
			}},
		}},
	}, true
}

// SyncWeaponSkill makes the player's skills match the item equipped in slot.
// Any skill granted by the slot is removed; when the slot now holds a weapon
// its fresh skill is inserted first and set to auto use. specs.Skills,
// specs.AutoSkills and skills stay index aligned.
func SyncWeaponSkill(specs *state.PlayerSpecs, skills *[]state.SkillState, inv *state.Inventory, slot state.ItemSlot) {
	if specs == nil || skills == nil {
		return
	}
	for idx := len(specs.Skills) - 1; idx >= 0; idx-- {
		if specs.Skills[idx].ItemSlot != slot {
			continue
		}
		specs.Skills = append(specs.Skills[:idx], specs.Skills[idx+1:]...)
		if idx < len(specs.AutoSkills) {
			specs.AutoSkills = append(specs.AutoSkills[:idx], specs.AutoSkills[idx+1:]...)
		}
		if idx < len(*skills) {
			*skills = append((*skills)[:idx], (*skills)[idx+1:]...)
		}
	}
	if inv == nil {
		return
	}
	item, ok := inv.Equipment.Get(slot)
	if !ok {
		return
	}
	base, ok := WeaponSkill(item)
	if !ok {
		return
	}
	skill := state.NewSkillSpecs(base)
	skill.ItemSlot = slot
	specs.Skills = append([]state.SkillSpecs{skill}, specs.Skills...)
	specs.AutoSkills = append([]bool{true}, specs.AutoSkills...)
	*skills = append([]state.SkillState{{}}, *skills...)
}
