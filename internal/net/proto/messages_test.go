package proto

import (
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"grindfall/server/internal/gameerr"
	"grindfall/server/internal/sim"
	"grindfall/server/internal/state"
)

func intPtr(v int) *int { return &v }

func TestClientCommand(t *testing.T) {
	t.Run("use skill", func(t *testing.T) {
		cmd, err := ClientCommand(ClientMessage{Type: string(sim.CommandUseSkill), SkillIndex: intPtr(1)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd.Type != sim.CommandUseSkill || cmd.Skill == nil || cmd.Skill.Index != 1 {
			t.Fatalf("unexpected command: %+v", cmd)
		}
	})

	t.Run("set auto skill requires enabled", func(t *testing.T) {
		_, err := ClientCommand(ClientMessage{Type: string(sim.CommandSetAutoSkill), SkillIndex: intPtr(0)})
		if !errors.Is(err, ErrMissingField) || !gameerr.MustDisconnect(err) {
			t.Fatalf("expected missing field protocol error, got %v", err)
		}
	})

	t.Run("pickup loot", func(t *testing.T) {
		id := uint32(7)
		cmd, err := ClientCommand(ClientMessage{Type: string(sim.CommandPickupLoot), LootID: &id, Sell: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd.Loot == nil || cmd.Loot.Identifier != 7 || !cmd.Loot.Sell {
			t.Fatalf("unexpected loot payload: %+v", cmd.Loot)
		}
	})

	t.Run("filter loot accepts any category", func(t *testing.T) {
		category := ""
		cmd, err := ClientCommand(ClientMessage{Type: string(sim.CommandFilterLoot), Category: &category})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd.Loot == nil || cmd.Loot.Category != state.CategoryAny {
			t.Fatalf("unexpected loot payload: %+v", cmd.Loot)
		}
	})

	t.Run("sell items copies indexes", func(t *testing.T) {
		indexes := []int{2, 0}
		cmd, err := ClientCommand(ClientMessage{Type: string(sim.CommandSellItems), ItemIndexes: indexes})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		indexes[0] = 9
		if cmd.Item.Indexes[0] != 2 {
			t.Fatalf("command shares the message slice")
		}
	})

	t.Run("terminate quest without reward", func(t *testing.T) {
		cmd, err := ClientCommand(ClientMessage{Type: string(sim.CommandTerminateQuest)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd.RewardIndex != nil {
			t.Fatalf("expected no reward index")
		}
	})

	t.Run("connect is not a command", func(t *testing.T) {
		_, err := ClientCommand(ClientMessage{Type: TypeConnect})
		if !errors.Is(err, ErrUnknownType) {
			t.Fatalf("expected unknown type, got %v", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := ClientCommand(ClientMessage{Type: "fly"})
		if !errors.Is(err, ErrUnknownType) || !gameerr.MustDisconnect(err) {
			t.Fatalf("expected unknown type protocol error, got %v", err)
		}
	})
}

func TestClientMessageRoundTrip(t *testing.T) {
	enabled := false
	raw, err := EncodeClientMessage(ClientMessage{
		Type:       string(sim.CommandSetAutoSkill),
		SkillIndex: intPtr(0),
		Enabled:    &enabled,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg, err := DecodeClientMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cmd, err := ClientCommand(msg)
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	if cmd.Skill == nil || cmd.Skill.Index != 0 || cmd.Skill.Enabled {
		t.Fatalf("unexpected skill payload: %+v", cmd.Skill)
	}
}

func TestDecodeClientMessageRejectsMalformedFrames(t *testing.T) {
	cases := map[string]any{
		"unknown field":  map[string]any{"type": "heartbeat", "bogus": 1},
		"missing type":   map[string]any{"ver": 1},
		"future version": map[string]any{"ver": 2, "type": "heartbeat"},
		"not a map":      []int{1, 2, 3},
	}
	for name, frame := range cases {
		t.Run(name, func(t *testing.T) {
			raw, err := cbor.Marshal(frame)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if _, err := DecodeClientMessage(raw); !gameerr.MustDisconnect(err) {
				t.Fatalf("expected a protocol error, got %v", err)
			}
		})
	}

	raw, _ := cbor.Marshal(map[string]any{"ver": 2, "type": "heartbeat"})
	if _, err := DecodeClientMessage(raw); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected unsupported version, got %v", err)
	}
}

func TestEncodeUpdateGameOmitsCleanCells(t *testing.T) {
	resources := state.PlayerResources{Gold: 12}
	raw, err := EncodeUpdateGame(42, sim.UpdateGame{
		Resources: &resources,
		Stats:     state.GameStats{MonstersKilled: 3},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	msg, err := DecodeServerMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != TypeUpdateGame || msg.Tick != 42 || msg.UpdateGame == nil {
		t.Fatalf("unexpected frame: %+v", msg)
	}
	if msg.UpdateGame.Resources == nil || msg.UpdateGame.Resources.Gold != 12 {
		t.Fatalf("resources lost: %+v", msg.UpdateGame.Resources)
	}
	if msg.UpdateGame.Stats.MonstersKilled != 3 {
		t.Fatalf("stats lost: %+v", msg.UpdateGame.Stats)
	}

	var generic map[string]any
	if err := cbor.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("generic decode: %v", err)
	}
	update, ok := generic["update_game"].(map[any]any)
	if !ok {
		t.Fatalf("expected an update_game map, got %T", generic["update_game"])
	}
	for _, key := range []string{"area_state", "player_specs", "inventory", "monsters", "loot"} {
		if _, present := update[key]; present {
			t.Fatalf("clean cell %q must not be encoded", key)
		}
	}
	if _, present := update["resources"]; !present {
		t.Fatalf("dirty cell resources must be encoded")
	}
	if _, present := generic["init_game"]; present {
		t.Fatalf("unrelated payloads must not be encoded")
	}
}

func TestEncodeErrorAndDisconnect(t *testing.T) {
	raw, err := EncodeError(sim.ErrorNotice{Kind: sim.ErrorGame, Message: "not enough gold"})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	msg, err := DecodeServerMessage(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if msg.Type != TypeError || msg.Error == nil || msg.Error.Message != "not enough gold" {
		t.Fatalf("unexpected error frame: %+v", msg)
	}

	raw, err = EncodeDisconnect(sim.Disconnect{Reason: "quest terminated", EndQuest: true})
	if err != nil {
		t.Fatalf("encode disconnect: %v", err)
	}
	msg, err = DecodeServerMessage(raw)
	if err != nil {
		t.Fatalf("decode disconnect: %v", err)
	}
	if msg.Disconnect == nil || !msg.Disconnect.EndQuest {
		t.Fatalf("unexpected disconnect frame: %+v", msg)
	}

	if _, err := EncodeServerMessage(ServerMessage{}); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing type, got %v", err)
	}
}
