package lazysync

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
)

type area struct {
	Level int `json:"level"`
}

func TestSyncTwiceReturnsValueOnce(t *testing.T) {
	cell := New(area{Level: 3})

	value, ok := cell.Sync()
	if !ok || value.Level != 3 {
		t.Fatalf("expected first sync to return the value, got %+v ok=%v", value, ok)
	}
	if _, ok := cell.Sync(); ok {
		t.Fatalf("expected second sync without mutation to be absent")
	}
}

func TestReadDoesNotClearDirty(t *testing.T) {
	cell := New(area{Level: 1})
	_ = cell.Read()
	if !cell.Dirty() {
		t.Fatalf("read must not clear the dirty flag")
	}
}

func TestMutateMarksDirty(t *testing.T) {
	cell := New(area{})
	cell.Sync()

	cell.Mutate().Level = 7
	value, ok := cell.Sync()
	if !ok || value.Level != 7 {
		t.Fatalf("expected mutated value to sync, got %+v ok=%v", value, ok)
	}
}

func TestZeroCellIsClean(t *testing.T) {
	var cell Cell[area]
	if _, ok := cell.Sync(); ok {
		t.Fatalf("zero cell should not sync")
	}
	cell.MarkDirty()
	if _, ok := cell.Sync(); !ok {
		t.Fatalf("MarkDirty should force a sync")
	}
}

func TestCBORRoundTripMarksDirty(t *testing.T) {
	type holder struct {
		Area Cell[area] `json:"area"`
	}
	src := holder{Area: New(area{Level: 4})}
	src.Area.Sync()

	data, err := cbor.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var dst holder
	if err := cbor.Unmarshal(data, &dst); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	value, ok := dst.Area.Sync()
	if !ok || value.Level != 4 {
		t.Fatalf("expected restored cell to be dirty with level 4, got %+v ok=%v", value, ok)
	}
}
