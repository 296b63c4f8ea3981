package sim

import (
	"time"

	"grindfall/server/internal/state"
)

// CommandType enumerates the player commands an instance accepts.
type CommandType string

const (
	CommandHeartbeat       CommandType = "heartbeat"
	CommandUseSkill        CommandType = "use_skill"
	CommandSetAutoSkill    CommandType = "set_auto_skill"
	CommandLevelUpSkill    CommandType = "level_up_skill"
	CommandBuySkill        CommandType = "buy_skill"
	CommandLevelUpPlayer   CommandType = "level_up_player"
	CommandEquipItem       CommandType = "equip_item"
	CommandUnequipItem     CommandType = "unequip_item"
	CommandSellItem        CommandType = "sell_item"
	CommandSellItems       CommandType = "sell_items"
	CommandFilterLoot      CommandType = "filter_loot"
	CommandPickupLoot      CommandType = "pickup_loot"
	CommandSetAutoProgress CommandType = "set_auto_progress"
	CommandGoBack          CommandType = "go_back"
	CommandPurchasePassive CommandType = "purchase_passive"
	CommandEndQuest        CommandType = "end_quest"
	CommandTerminateQuest  CommandType = "terminate_quest"
)

// SkillCommand targets an owned skill by index.
type SkillCommand struct {
	Index   int  `json:"index"`
	Amount  int  `json:"amount,omitempty"`
	Enabled bool `json:"enabled,omitempty"`
}

// ItemCommand targets bag items or an equipment slot.
type ItemCommand struct {
	Indexes []int          `json:"indexes,omitempty"`
	Slot    state.ItemSlot `json:"slot,omitempty"`
}

// LootCommand targets a queued loot entry or the loot filter.
type LootCommand struct {
	Identifier uint32             `json:"identifier,omitempty"`
	Sell       bool               `json:"sell,omitempty"`
	Category   state.ItemCategory `json:"category,omitempty"`
}

// AreaCommand changes area progression.
type AreaCommand struct {
	AutoProgress bool `json:"auto_progress,omitempty"`
	Amount       int  `json:"amount,omitempty"`
}

// Command represents a player intent applied at the start of the next tick.
// Exactly the payload matching Type is set.
type Command struct {
	Type     CommandType `json:"type"`
	IssuedAt time.Time   `json:"issued_at"`

	Skill       *SkillCommand `json:"skill,omitempty"`
	SkillID     string        `json:"skill_id,omitempty"`
	Item        *ItemCommand  `json:"item,omitempty"`
	Loot        *LootCommand  `json:"loot,omitempty"`
	Area        *AreaCommand  `json:"area,omitempty"`
	Amount      int           `json:"amount,omitempty"`
	NodeID      string        `json:"node_id,omitempty"`
	RewardIndex *int          `json:"reward_index,omitempty"`
}
