package sim

import (
	"testing"

	"grindfall/server/internal/telemetry"
	"grindfall/server/logging"
)

func TestCommandBufferWraparound(t *testing.T) {
	buffer := NewCommandBuffer(3, nil)
	cmds := []Command{
		{Type: CommandHeartbeat},
		{Type: CommandUseSkill},
		{Type: CommandEndQuest},
	}
	for _, cmd := range cmds {
		if !buffer.Push(cmd) {
			t.Fatalf("expected push to succeed for %+v", cmd)
		}
	}
	if buffer.Push(Command{Type: CommandGoBack}) {
		t.Fatalf("expected push to fail when buffer full")
	}
	drained := buffer.Drain()
	if len(drained) != len(cmds) {
		t.Fatalf("expected %d commands, got %d", len(cmds), len(drained))
	}
	for i, cmd := range drained {
		if cmd.Type != cmds[i].Type {
			t.Fatalf("expected drain order %v, got %v", cmds[i].Type, cmd.Type)
		}
	}
	for _, cmd := range []Command{{Type: CommandBuySkill}, {Type: CommandSellItems}} {
		if !buffer.Push(cmd) {
			t.Fatalf("expected push to succeed after drain for %+v", cmd)
		}
	}
	wrapped := buffer.Drain()
	if len(wrapped) != 2 {
		t.Fatalf("expected 2 commands after wraparound, got %d", len(wrapped))
	}
	if wrapped[0].Type != CommandBuySkill || wrapped[1].Type != CommandSellItems {
		t.Fatalf("unexpected order after wraparound: %+v", wrapped)
	}
}

func TestCommandBufferDrainNLeavesRemainder(t *testing.T) {
	metrics := &logging.Metrics{}
	buffer := NewCommandBuffer(4, telemetry.WrapMetrics(metrics))
	for i := 0; i < 4; i++ {
		buffer.Push(Command{Type: CommandLevelUpPlayer, Amount: i})
	}
	first := buffer.DrainN(3)
	if len(first) != 3 || first[2].Amount != 2 {
		t.Fatalf("expected the three oldest commands, got %+v", first)
	}
	if buffer.Len() != 1 {
		t.Fatalf("expected one command left, got %d", buffer.Len())
	}
	if got := metrics.Snapshot()[commandBufferOccupancyMetricKey]; got != 1 {
		t.Fatalf("expected occupancy gauge 1, got %d", got)
	}
	buffer.Push(Command{Type: CommandLevelUpPlayer, Amount: 4})
	rest := buffer.DrainN(10)
	if len(rest) != 2 || rest[0].Amount != 3 || rest[1].Amount != 4 {
		t.Fatalf("unexpected remainder %+v", rest)
	}
}

func TestCommandBufferOverflow(t *testing.T) {
	metrics := &logging.Metrics{}
	buffer := NewCommandBuffer(1, telemetry.WrapMetrics(metrics))
	if !buffer.Push(Command{Type: CommandHeartbeat}) {
		t.Fatalf("expected initial push to succeed")
	}
	if buffer.Push(Command{Type: CommandUseSkill}) {
		t.Fatalf("expected push to fail when capacity exceeded")
	}
	if got := metrics.Snapshot()[commandBufferOverflowMetricKey]; got != 1 {
		t.Fatalf("expected one overflow, got %d", got)
	}
	drained := buffer.Drain()
	if len(drained) != 1 || drained[0].Type != CommandHeartbeat {
		t.Fatalf("unexpected drained commands: %+v", drained)
	}
}
