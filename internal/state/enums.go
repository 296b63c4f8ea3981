package state

// DamageType enumerates the elements a hit can carry. The empty value matches
// any damage type when used as a stat or trigger filter.
type DamageType string

const (
	DamageAny      DamageType = ""
	DamagePhysical DamageType = "physical"
	DamageFire     DamageType = "fire"
	DamagePoison   DamageType = "poison"
)

// DamageTypes lists the concrete damage types in resolution order.
func DamageTypes() []DamageType {
	return []DamageType{DamagePhysical, DamageFire, DamagePoison}
}

// SkillType separates attacks from spells for block, speed and damage stats.
type SkillType string

const (
	SkillAny    SkillType = ""
	SkillAttack SkillType = "attack"
	SkillSpell  SkillType = "spell"
)

// Range selects how the primary target is chosen.
type Range string

const (
	RangeAny      Range = ""
	RangeMelee    Range = "melee"
	RangeDistance Range = "distance"
)

// TargetType selects which side of the fight an effect group applies to.
type TargetType string

const (
	TargetEnemy  TargetType = "enemy"
	TargetFriend TargetType = "friend"
	TargetSelf   TargetType = "self"
)

// Shape expands a primary target into the full set of affected cells.
type Shape string

const (
	ShapeSingle      Shape = "single"
	ShapeVertical2   Shape = "vertical2"
	ShapeHorizontal2 Shape = "horizontal2"
	ShapeHorizontal3 Shape = "horizontal3"
	ShapeSquare4     Shape = "square4"
	ShapeAll         Shape = "all"
)

// CharacterSize is the footprint a character occupies on the battle grid.
type CharacterSize string

const (
	SizeSmall      CharacterSize = "small"
	SizeLarge      CharacterSize = "large"
	SizeHuge       CharacterSize = "huge"
	SizeGargantuan CharacterSize = "gargantuan"
)

// Footprint returns the width and height of the size in grid cells.
func (s CharacterSize) Footprint() (int, int) {
	switch s {
	case SizeLarge:
		return 2, 1
	case SizeHuge:
		return 2, 2
	case SizeGargantuan:
		return 3, 2
	default:
		return 1, 1
	}
}

// Modifier is the stat pipeline pass a value contributes to.
type Modifier string

const (
	ModifierFlat      Modifier = "flat"
	ModifierIncreased Modifier = "increased"
	ModifierMore      Modifier = "more"
)

// Rarity ranks dropped items.
type Rarity string

const (
	RarityNormal Rarity = "normal"
	RarityMagic  Rarity = "magic"
	RarityRare   Rarity = "rare"
	RarityUnique Rarity = "unique"
)

// Tier orders rarities for loot scoring.
func (r Rarity) Tier() int {
	switch r {
	case RarityMagic:
		return 1
	case RarityRare:
		return 2
	case RarityUnique:
		return 3
	default:
		return 0
	}
}

// ItemSlot names an equipment slot.
type ItemSlot string

const (
	SlotWeapon ItemSlot = "weapon"
	SlotShield ItemSlot = "shield"
	SlotHelmet ItemSlot = "helmet"
	SlotBody   ItemSlot = "body"
	SlotGloves ItemSlot = "gloves"
	SlotBoots  ItemSlot = "boots"
	SlotAmulet ItemSlot = "amulet"
	SlotRing   ItemSlot = "ring"
	SlotRelic  ItemSlot = "relic"
)

// ItemCategory groups item bases for loot filtering.
type ItemCategory string

const (
	CategoryAny          ItemCategory = ""
	CategoryAttackWeapon ItemCategory = "attack_weapon"
	CategorySpellWeapon  ItemCategory = "spell_weapon"
	CategoryArmor        ItemCategory = "armor"
	CategoryShield       ItemCategory = "shield"
	CategoryAccessory    ItemCategory = "accessory"
)

// MonsterRarity scales rewards and marks boss waves.
type MonsterRarity string

const (
	MonsterNormal   MonsterRarity = "normal"
	MonsterChampion MonsterRarity = "champion"
	MonsterBoss     MonsterRarity = "boss"
)

// CharacterKind distinguishes the player from monsters in a CharacterRef.
type CharacterKind string

const (
	KindPlayer  CharacterKind = "player"
	KindMonster CharacterKind = "monster"
)

// IsKnownDamageType reports whether dt is a concrete damage type.
func IsKnownDamageType(dt DamageType) bool {
	switch dt {
	case DamagePhysical, DamageFire, DamagePoison:
		return true
	}
	return false
}

// IsKnownSlot reports whether slot names an equipment slot.
func IsKnownSlot(slot ItemSlot) bool {
	return EquipSlotRank(slot) < len(orderedItemSlots)
}
