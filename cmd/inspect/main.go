package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	"settle.ai/internal/persistence/indexdb"
	"settle.ai/internal/persistence/snapshot"
	"settle.ai/internal/sim/layout"
	"settle.ai/internal/sim/world"
)

func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .snap.zst")
		render    = flag.Bool("render", false, "print the snapshot positions as a layout")
		runsDir   = flag.String("runs", "", "run journal dir containing runs-*.jsonl.zst (optional)")
		indexPath = flag.String("index", "", "sqlite run index to query (optional)")
		limit     = flag.Int("limit", 10, "max runs listed from the index")
		sameInput = flag.Bool("same_input", false, "list only indexed runs whose input digest matches the snapshot's run")
	)
	flag.Parse()

	if *snapPath == "" && *runsDir == "" && *indexPath == "" {
		fmt.Fprintln(os.Stderr, "need at least one of -snapshot, -runs, -index")
		os.Exit(2)
	}

	var snap *snapshot.SnapshotV1
	if *snapPath != "" {
		s, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		snap = &s
		if err := printSnapshot(os.Stdout, *snapPath, s, *render); err != nil {
			fmt.Fprintln(os.Stderr, "snapshot:", err)
			os.Exit(1)
		}
	}

	var journal []world.RunReport
	if *runsDir != "" {
		var err error
		journal, err = readJournal(*runsDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "journal:", err)
			os.Exit(1)
		}
		fmt.Printf("journal: %d runs\n", len(journal))
		if snap != nil {
			if err := verifySnapshot(*snap, journal); err != nil {
				fmt.Fprintln(os.Stderr, "verify:", err)
				os.Exit(1)
			}
			fmt.Printf("verify ok: run=%s digest=%s\n", snap.Header.RunID, snap.Digest)
		}
	}

	if *indexPath != "" {
		digest := ""
		if *sameInput && snap != nil {
			for _, r := range journal {
				if r.RunID == snap.Header.RunID {
					digest = r.InputDigest
				}
			}
		}
		if err := listIndexedRuns(os.Stdout, *indexPath, digest, *limit); err != nil {
			fmt.Fprintln(os.Stderr, "index:", err)
			os.Exit(1)
		}
	}
}

func printSnapshot(out io.Writer, path string, snap snapshot.SnapshotV1, render bool) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "snapshot v%d world=%s run=%s round=%d agents=%d grid=%dx%d origin=(%d,%d) stable=%v size=%s\n",
		snap.Header.Version, snap.Header.WorldID, snap.Header.RunID, snap.Header.Round, snap.Agents,
		snap.Width, snap.Height, snap.Origin[0], snap.Origin[1], snap.Stable, humanize.Bytes(uint64(st.Size())))

	positions, err := world.PositionsFromSnapshot(snap)
	if err != nil {
		return err
	}
	if got := world.StateDigest(snap.Header.Round, positions); got != snap.Digest {
		return fmt.Errorf("digest mismatch: got=%s want=%s", got, snap.Digest)
	}
	if empty, ok := world.EmptyTiles(positions); ok {
		fmt.Fprintf(out, "empty tiles: %s\n", humanize.Comma(int64(empty)))
	}
	if render {
		fmt.Fprint(out, layout.Render(positions, layout.DefaultSymbols()))
	}
	return nil
}

// verifySnapshot checks that the journal recorded the snapshot's final state.
func verifySnapshot(snap snapshot.SnapshotV1, runs []world.RunReport) error {
	for _, r := range runs {
		if r.RunID != snap.Header.RunID {
			continue
		}
		if r.FinalDigest != snap.Digest {
			return fmt.Errorf("run %s: journal digest=%s snapshot digest=%s", r.RunID, r.FinalDigest, snap.Digest)
		}
		if r.StartRound+r.Rounds != snap.Header.Round {
			return fmt.Errorf("run %s: journal ends at round %d, snapshot at %d", r.RunID, r.StartRound+r.Rounds, snap.Header.Round)
		}
		return nil
	}
	return fmt.Errorf("run %s not found in journal", snap.Header.RunID)
}

func listJournalFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "runs-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func readJournal(dir string) ([]world.RunReport, error) {
	files, err := listJournalFiles(dir)
	if err != nil {
		return nil, err
	}
	var out []world.RunReport
	for _, path := range files {
		runs, err := readJournalFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, runs...)
	}
	return out, nil
}

func readJournalFile(path string) ([]world.RunReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var out []world.RunReport
	for sc.Scan() {
		var rep world.RunReport
		if err := json.Unmarshal(sc.Bytes(), &rep); err != nil {
			return nil, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		out = append(out, rep)
	}
	return out, sc.Err()
}

func listIndexedRuns(out io.Writer, path, inputDigest string, limit int) error {
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := idx.RecentRuns(ctx, inputDigest, limit)
	if err != nil {
		return err
	}
	for _, r := range rows {
		when := r.FinishedAt
		if t, err := time.Parse(time.RFC3339Nano, r.FinishedAt); err == nil {
			when = humanize.Time(t)
		}
		outcome := "capped"
		if r.Stable {
			outcome = fmt.Sprintf("fixed point round %d", r.FixedPointRound)
		}
		empty := "-"
		if r.EmptyTiles.Valid {
			empty = humanize.Comma(r.EmptyTiles.Int64)
		}
		fmt.Fprintf(out, "%s  %s  agents=%d rounds=%d %s empty=%s (%s)\n",
			r.RunID, r.WorldID, r.Agents, r.Rounds, outcome, empty, when)
	}
	return nil
}
