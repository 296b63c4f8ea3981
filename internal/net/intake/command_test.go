package intake

import (
	"errors"
	"testing"
	"time"

	"grindfall/server/internal/gameerr"
	"grindfall/server/internal/net/proto"
	"grindfall/server/internal/sim"
)

type fakeInstance struct {
	accept   bool
	commands []sim.Command
}

func (f *fakeInstance) Enqueue(cmd sim.Command) bool {
	f.commands = append(f.commands, cmd)
	return f.accept
}

func TestStageClientCommandAcceptsBuySkill(t *testing.T) {
	instance := &fakeInstance{accept: true}
	issuedAt := time.Unix(100, 0)
	ctx := CommandContext{
		Instance: instance,
		Now:      func() time.Time { return issuedAt },
	}

	cmd, err := StageClientCommand(ctx, proto.ClientMessage{Type: string(sim.CommandBuySkill), SkillID: "cleave"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Type != sim.CommandBuySkill || cmd.SkillID != "cleave" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if !cmd.IssuedAt.Equal(issuedAt) {
		t.Fatalf("expected issued at %v, got %v", issuedAt, cmd.IssuedAt)
	}
	if len(instance.commands) != 1 {
		t.Fatalf("expected command to be enqueued, got %d", len(instance.commands))
	}
}

func TestStageClientCommandRejectsMalformedFrames(t *testing.T) {
	instance := &fakeInstance{accept: true}
	_, err := StageClientCommand(CommandContext{Instance: instance}, proto.ClientMessage{Type: string(sim.CommandUseSkill)})
	if !gameerr.MustDisconnect(err) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if len(instance.commands) != 0 {
		t.Fatalf("malformed frames must not be enqueued")
	}
}

func TestStageClientCommandReportsFullQueue(t *testing.T) {
	instance := &fakeInstance{accept: false}
	_, err := StageClientCommand(CommandContext{Instance: instance}, proto.ClientMessage{Type: proto.TypeHeartbeat})
	if !errors.Is(err, ErrQueueFull) || !gameerr.IsUserFacing(err) {
		t.Fatalf("expected queue full user error, got %v", err)
	}
}

func TestStageClientCommandWithoutInstance(t *testing.T) {
	_, err := StageClientCommand(CommandContext{}, proto.ClientMessage{Type: proto.TypeHeartbeat})
	if !errors.Is(err, ErrNoInstance) || !gameerr.MustDisconnect(err) {
		t.Fatalf("expected no instance protocol error, got %v", err)
	}
}
