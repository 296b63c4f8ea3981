// Package proto defines the binary websocket protocol spoken between the
// game client and the server. Frames are CBOR maps carrying a version, a
// type and the payload matching the type.
package proto

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"grindfall/server/internal/gameerr"
	"grindfall/server/internal/sim"
	"grindfall/server/internal/state"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	typeConnectAck = "connect_ack"
	typeInitGame   = "init_game"
	typeUpdateGame = "update_game"
	typeError      = "error"
	typeDisconnect = "disconnect"
	typeHeartbeat  = "heartbeat"
)

// Client message type identifiers. Every command type of the simulation is
// accepted under its own name as well.
const (
	TypeConnect   = "connect"
	TypeHeartbeat = typeHeartbeat
)

// Exported aliases for outbound message type identifiers.
const (
	TypeConnectAck = typeConnectAck
	TypeInitGame   = typeInitGame
	TypeUpdateGame = typeUpdateGame
	TypeError      = typeError
	TypeDisconnect = typeDisconnect
)

var (
	// ErrUnsupportedVersion reports a frame of another protocol revision.
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	// ErrUnknownType reports a frame type the receiver does not handle.
	ErrUnknownType = errors.New("unknown message type")
	// ErrMissingField reports a frame lacking a field its type requires.
	ErrMissingField = errors.New("missing field")
)

var (
	encMode = func() cbor.EncMode {
		mode, err := cbor.CoreDetEncOptions().EncMode()
		if err != nil {
			panic(fmt.Sprintf("proto: encoder: %v", err))
		}
		return mode
	}()
	decMode = func() cbor.DecMode {
		mode, err := cbor.DecOptions{
			DupMapKey:         cbor.DupMapKeyEnforcedAPF,
			ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		}.DecMode()
		if err != nil {
			panic(fmt.Sprintf("proto: decoder: %v", err))
		}
		return mode
	}()
)

// ClientMessage captures an inbound websocket message from the client. Only
// the fields used by Type are set.
type ClientMessage struct {
	Ver  int    `json:"ver,omitempty"`
	Type string `json:"type"`

	Token       string `json:"token,omitempty"`
	CharacterID string `json:"character_id,omitempty"`
	AreaID      string `json:"area_id,omitempty"`
	SentAt      int64  `json:"sent_at,omitempty"`

	SkillIndex   *int    `json:"skill_index,omitempty"`
	SkillID      string  `json:"skill_id,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty"`
	Amount       int     `json:"amount,omitempty"`
	ItemIndexes  []int   `json:"item_indexes,omitempty"`
	Slot         string  `json:"slot,omitempty"`
	LootID       *uint32 `json:"loot_id,omitempty"`
	Sell         bool    `json:"sell,omitempty"`
	Category     *string `json:"category,omitempty"`
	AutoProgress *bool   `json:"auto_progress,omitempty"`
	NodeID       string  `json:"node_id,omitempty"`
	RewardIndex  *int    `json:"reward_index,omitempty"`
}

// DecodeClientMessage converts raw websocket payloads into a structured
// message. Malformed frames are protocol errors.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := decMode.Unmarshal(payload, &msg); err != nil {
		return msg, gameerr.Protocol("decode client message", err)
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, gameerr.Protocol("decode client message", fmt.Errorf("%w %d", ErrUnsupportedVersion, msg.Ver))
	}
	if msg.Type == "" {
		return msg, gameerr.Protocol("decode client message", fmt.Errorf("%w: type", ErrMissingField))
	}
	return msg, nil
}

// EncodeClientMessage renders a client frame. Servers never send these; it
// exists for tools and tests driving the server.
func EncodeClientMessage(msg ClientMessage) ([]byte, error) {
	msg.Ver = Version
	return encMode.Marshal(msg)
}

func missing(msg ClientMessage, field string) error {
	return gameerr.Protocol(fmt.Sprintf("decode %s", msg.Type), fmt.Errorf("%w: %s", ErrMissingField, field))
}

// ClientCommand converts a gameplay message into the simulation command it
// carries. Connect frames and unknown types are protocol errors.
func ClientCommand(msg ClientMessage) (sim.Command, error) {
	cmd := sim.Command{Type: sim.CommandType(msg.Type)}
	switch cmd.Type {
	case sim.CommandHeartbeat, sim.CommandEndQuest:
	case sim.CommandUseSkill, sim.CommandLevelUpSkill:
		if msg.SkillIndex == nil {
			return sim.Command{}, missing(msg, "skill_index")
		}
		cmd.Skill = &sim.SkillCommand{Index: *msg.SkillIndex, Amount: msg.Amount}
	case sim.CommandSetAutoSkill:
		if msg.SkillIndex == nil {
			return sim.Command{}, missing(msg, "skill_index")
		}
		if msg.Enabled == nil {
			return sim.Command{}, missing(msg, "enabled")
		}
		cmd.Skill = &sim.SkillCommand{Index: *msg.SkillIndex, Enabled: *msg.Enabled}
	case sim.CommandBuySkill:
		if msg.SkillID == "" {
			return sim.Command{}, missing(msg, "skill_id")
		}
		cmd.SkillID = msg.SkillID
	case sim.CommandLevelUpPlayer:
		cmd.Amount = msg.Amount
	case sim.CommandEquipItem, sim.CommandSellItem, sim.CommandSellItems:
		if len(msg.ItemIndexes) == 0 {
			return sim.Command{}, missing(msg, "item_indexes")
		}
		cmd.Item = &sim.ItemCommand{Indexes: append([]int(nil), msg.ItemIndexes...)}
	case sim.CommandUnequipItem:
		if msg.Slot == "" {
			return sim.Command{}, missing(msg, "slot")
		}
		cmd.Item = &sim.ItemCommand{Slot: state.ItemSlot(msg.Slot)}
	case sim.CommandFilterLoot:
		if msg.Category == nil {
			return sim.Command{}, missing(msg, "category")
		}
		cmd.Loot = &sim.LootCommand{Category: state.ItemCategory(*msg.Category)}
	case sim.CommandPickupLoot:
		if msg.LootID == nil {
			return sim.Command{}, missing(msg, "loot_id")
		}
		cmd.Loot = &sim.LootCommand{Identifier: *msg.LootID, Sell: msg.Sell}
	case sim.CommandSetAutoProgress:
		if msg.AutoProgress == nil {
			return sim.Command{}, missing(msg, "auto_progress")
		}
		cmd.Area = &sim.AreaCommand{AutoProgress: *msg.AutoProgress}
	case sim.CommandGoBack:
		cmd.Area = &sim.AreaCommand{Amount: msg.Amount}
	case sim.CommandPurchasePassive:
		if msg.NodeID == "" {
			return sim.Command{}, missing(msg, "node_id")
		}
		cmd.NodeID = msg.NodeID
	case sim.CommandTerminateQuest:
		if msg.RewardIndex != nil {
			idx := *msg.RewardIndex
			cmd.RewardIndex = &idx
		}
	default:
		return sim.Command{}, gameerr.Protocol("decode client message", fmt.Errorf("%w %q", ErrUnknownType, msg.Type))
	}
	return cmd, nil
}

// ConnectAck confirms an accepted connection.
type ConnectAck struct {
	ConnectionID string `json:"connection_id"`
	CharacterID  string `json:"character_id"`
}

// Heartbeat echoes timing metadata back to the client.
type Heartbeat struct {
	ServerTime int64 `json:"server_time"`
	ClientTime int64 `json:"client_time"`
}

// ServerMessage is one outbound frame. Exactly the payload matching Type is
// set.
type ServerMessage struct {
	Ver        int              `json:"ver"`
	Type       string           `json:"type"`
	Tick       uint64           `json:"t,omitempty"`
	ConnectAck *ConnectAck      `json:"connect_ack,omitempty"`
	InitGame   *sim.InitGame    `json:"init_game,omitempty"`
	UpdateGame *sim.UpdateGame  `json:"update_game,omitempty"`
	Error      *sim.ErrorNotice `json:"error,omitempty"`
	Disconnect *sim.Disconnect  `json:"disconnect,omitempty"`
	Heartbeat  *Heartbeat       `json:"heartbeat,omitempty"`
}

// EncodeServerMessage renders a versioned outbound frame.
func EncodeServerMessage(msg ServerMessage) ([]byte, error) {
	msg.Ver = Version
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: type", ErrMissingField)
	}
	return encMode.Marshal(msg)
}

// DecodeServerMessage parses an outbound frame. Unknown fields are tolerated
// so older clients keep working against newer servers.
func DecodeServerMessage(payload []byte) (ServerMessage, error) {
	var msg ServerMessage
	if err := cbor.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("%w %d", ErrUnsupportedVersion, msg.Ver)
	}
	return msg, nil
}

// EncodeConnectAck renders a connect acknowledgement.
func EncodeConnectAck(msg ConnectAck) ([]byte, error) {
	return EncodeServerMessage(ServerMessage{Type: typeConnectAck, ConnectAck: &msg})
}

// EncodeInitGame renders the full snapshot frame.
func EncodeInitGame(tick uint64, msg sim.InitGame) ([]byte, error) {
	return EncodeServerMessage(ServerMessage{Type: typeInitGame, Tick: tick, InitGame: &msg})
}

// EncodeUpdateGame renders a per-tick delta frame.
func EncodeUpdateGame(tick uint64, msg sim.UpdateGame) ([]byte, error) {
	return EncodeServerMessage(ServerMessage{Type: typeUpdateGame, Tick: tick, UpdateGame: &msg})
}

// EncodeError renders an error notice.
func EncodeError(msg sim.ErrorNotice) ([]byte, error) {
	return EncodeServerMessage(ServerMessage{Type: typeError, Error: &msg})
}

// EncodeDisconnect renders the final frame of a session.
func EncodeDisconnect(msg sim.Disconnect) ([]byte, error) {
	return EncodeServerMessage(ServerMessage{Type: typeDisconnect, Disconnect: &msg})
}

// EncodeHeartbeat renders a heartbeat acknowledgement.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	return EncodeServerMessage(ServerMessage{Type: typeHeartbeat, Heartbeat: &msg})
}
