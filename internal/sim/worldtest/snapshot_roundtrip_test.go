package worldtest

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"settle.ai/internal/persistence/snapshot"
	world "settle.ai/internal/sim/world"
)

func TestSnapshotRoundTrip_ResumeMatchesUninterrupted(t *testing.T) {
	text := LoadFixture(t, "large.txt")

	straight := NewHarness(t, text)
	want := straight.StepUntilStable(100)
	wantFinal := straight.Sorted()

	first := NewHarness(t, text)
	first.StepN(7)
	path := filepath.Join(t.TempDir(), "mid.snap.zst")
	if err := snapshot.WriteSnapshot(path, first.W.ExportSnapshot("run-1", false)); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "test"}, nil)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	if err := w.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if w.Digest() != first.W.Digest() {
		t.Fatalf("digest after import=%s want %s", w.Digest(), first.W.Digest())
	}

	resumed := &Harness{T: t, W: w}
	if got := resumed.StepUntilStable(100); got != want {
		t.Fatalf("resumed fixed point=%d want %d", got, want)
	}
	if diff := cmp.Diff(wantFinal, resumed.Sorted()); diff != "" {
		t.Fatalf("final positions (-want +got):\n%s", diff)
	}
}
