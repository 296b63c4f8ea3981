package gameerr

import (
	"errors"
	"fmt"
	"testing"
)

var errBagFull = errors.New("inventory is full")

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("pickup loot: %w", User(errBagFull))
	if KindOf(err) != KindUser {
		t.Fatalf("expected user kind, got %q", KindOf(err))
	}
	if !errors.Is(err, errBagFull) {
		t.Fatalf("expected the sentinel to stay reachable")
	}
	if !IsUserFacing(err) || MustDisconnect(err) {
		t.Fatalf("user errors are reported without disconnecting")
	}
}

func TestProtocolErrorsDisconnect(t *testing.T) {
	err := Protocol("decode client message", errors.New("unexpected EOF"))
	if !MustDisconnect(err) {
		t.Fatalf("protocol errors must disconnect")
	}
	if err.Error() != "decode client message: unexpected EOF" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestUnclassifiedErrors(t *testing.T) {
	if KindOf(errors.New("boom")) != KindUnknown {
		t.Fatalf("plain errors have no kind")
	}
	if Is(nil, KindUser) {
		t.Fatalf("nil is never classified")
	}
	if User(nil) != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
	if !IsUserFacing(NotFound("skill %d", 3)) {
		t.Fatalf("not found errors are shown to the player")
	}
}
