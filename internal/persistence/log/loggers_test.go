package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"settle.ai/internal/sim/world"
)

func readLines(t *testing.T, path string) []world.RunReport {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var out []world.RunReport
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var r world.RunReport
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestRunLogger_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	empty := 25

	l := NewRunLogger(dir)
	if err := l.WriteRun(world.RunReport{RunID: "a", Agents: 5, Stable: true, FixedPointRound: 4, EmptyTiles: &empty}); err != nil {
		t.Fatalf("WriteRun: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A second process appends a new zstd frame to the same hourly file.
	l2 := NewRunLogger(dir)
	if err := l2.WriteRun(world.RunReport{RunID: "b", Agents: 1, Stable: true, FixedPointRound: 1}); err != nil {
		t.Fatalf("WriteRun: %v", err)
	}
	if err := l2.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "runs", "runs-*.jsonl.zst"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no journal files: %v", err)
	}
	sort.Strings(files)
	var got []world.RunReport
	for _, f := range files {
		got = append(got, readLines(t, f)...)
	}
	if len(got) != 2 || got[0].RunID != "a" || got[1].RunID != "b" {
		t.Fatalf("unexpected journal: %+v", got)
	}
	if got[0].EmptyTiles == nil || *got[0].EmptyTiles != 25 {
		t.Fatalf("empty tiles lost: %+v", got[0])
	}
	if got[1].EmptyTiles != nil {
		t.Fatalf("unset metric should be omitted")
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	clock := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{"x-2024-05-01-10.jsonl.zst", "x-2024-05-01-11.jsonl.zst"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}
