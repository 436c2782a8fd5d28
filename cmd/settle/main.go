package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"settle.ai/internal/persistence/indexdb"
	persistlog "settle.ai/internal/persistence/log"
	"settle.ai/internal/persistence/snapshot"
	"settle.ai/internal/sim/layout"
	"settle.ai/internal/sim/tuning"
	"settle.ai/internal/sim/world"
	"settle.ai/internal/transport/observer"
)

type options struct {
	Input       string
	WorldID     string
	ConfigDir   string
	TuningPath  string
	DataDir     string
	DisableDB   bool
	ObserveAddr string
	SnapIn      string
	SnapOut     string

	// Negative means "take the value from tuning.yaml".
	MaxRounds       int
	MetricRounds    int
	RoundsPerSecond int
}

func main() {
	var opts options
	flag.StringVar(&opts.Input, "input", "-", "layout file ('-' reads stdin)")
	flag.StringVar(&opts.WorldID, "world", "settle", "world id")
	flag.StringVar(&opts.ConfigDir, "configs", "./configs", "config directory")
	flag.StringVar(&opts.TuningPath, "tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	flag.StringVar(&opts.DataDir, "data", "./data", "runtime data directory (empty disables the run journal and index)")
	flag.BoolVar(&opts.DisableDB, "disable_db", false, "disable the sqlite run index")
	flag.StringVar(&opts.ObserveAddr, "observe", "", "observer http listen address, e.g. 127.0.0.1:8081 (empty to disable)")
	flag.StringVar(&opts.SnapIn, "snapshot", "", "resume from this result snapshot instead of reading a layout")
	flag.StringVar(&opts.SnapOut, "snapshot_out", "", "write the final positions to this snapshot path")
	flag.IntVar(&opts.MaxRounds, "max_rounds", -1, "round cap, 0 for none (default from tuning)")
	flag.IntVar(&opts.MetricRounds, "metric_rounds", -1, "sample the empty-tile metric after this many rounds, 0 disables (default from tuning)")
	flag.IntVar(&opts.RoundsPerSecond, "rounds_per_second", -1, "pace rounds for observers, 0 for unpaced (default from tuning)")
	flag.Parse()

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(flag.Args(), " "))
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "[settle] ", log.LstdFlags|log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdin, os.Stdout, logger); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer, logger *log.Logger) error {
	tune, err := loadTuning(opts, logger)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	cfg := world.WorldConfig{ID: opts.WorldID, RoundsPerSecond: tune.RoundsPerSecond}

	w, err := buildWorld(cfg, opts, tune, stdin)
	if err != nil {
		return err
	}
	logger.Printf("run=%s world=%s agents=%d start_round=%d", runID, w.ID(), w.AgentCount(), w.CurrentRound())

	var journal *persistlog.RunLogger
	var idx *indexdb.SQLiteIndex
	if opts.DataDir != "" {
		journal = persistlog.NewRunLogger(opts.DataDir)
		defer journal.Close()

		if !opts.DisableDB {
			idx, err = indexdb.OpenSQLite(filepath.Join(opts.DataDir, "index", "settle.sqlite"))
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer idx.Close()
			if err := idx.UpsertTuning(tune); err != nil {
				logger.Printf("index: upsert tuning: %v", err)
			}
		}
	}

	var obs *observer.Server
	if opts.ObserveAddr != "" {
		obs = observer.NewServer(runID, tune.Observer.SessionBuf, logger)
		mux := http.NewServeMux()
		obs.Register(mux)
		srv := &http.Server{Addr: opts.ObserveAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Printf("observer listening on %s", opts.ObserveAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("observer: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		w.SetObserver(obs)
	}

	rep := world.RunReport{
		RunID:       runID,
		StartedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		InputDigest: w.Digest(),
		StartRound:  w.CurrentRound(),
	}

	res, runErr := w.Run(ctx, world.RunOptions{
		MaxRounds:    tune.MaxRounds,
		MetricRounds: tune.MetricRounds,
	})

	if res.Stable {
		fmt.Fprintf(stdout, "No agents moved in round %d\n", res.FixedPointRound)
	}
	if res.EmptyTilesOK {
		fmt.Fprintf(stdout, "Empty ground tiles after %d rounds: %d\n", res.MetricRound, res.EmptyTiles)
	}

	out := w.Report(res, runErr)
	out.RunID = rep.RunID
	out.StartedAt = rep.StartedAt
	out.InputDigest = rep.InputDigest
	out.StartRound = rep.StartRound
	out.FinishedAt = time.Now().UTC().Format(time.RFC3339Nano)

	if opts.SnapOut != "" {
		snap := w.ExportSnapshot(runID, res.Stable)
		if err := snapshot.WriteSnapshot(opts.SnapOut, snap); err != nil {
			logger.Printf("snapshot: %v", err)
		} else {
			idx.RecordSnapshot(opts.SnapOut, snap)
			logger.Printf("snapshot written: %s round=%d", opts.SnapOut, snap.Header.Round)
		}
	}
	if journal != nil {
		if err := journal.WriteRun(out); err != nil {
			logger.Printf("journal: %v", err)
		}
	}
	idx.RecordRun(out)

	if obs != nil {
		obs.Finish(out)
		linger(ctx, time.Duration(tune.Observer.LingerMs)*time.Millisecond)
	}

	if runErr != nil {
		return fmt.Errorf("run %s: %w", runID, runErr)
	}
	return nil
}

func loadTuning(opts options, logger *log.Logger) (tuning.Tuning, error) {
	tp := strings.TrimSpace(opts.TuningPath)
	if tp == "" {
		tp = filepath.Join(opts.ConfigDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return tune, fmt.Errorf("load tuning: %w", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	if opts.MaxRounds >= 0 {
		tune.MaxRounds = opts.MaxRounds
	}
	if opts.MetricRounds >= 0 {
		tune.MetricRounds = opts.MetricRounds
	}
	if opts.RoundsPerSecond >= 0 {
		tune.RoundsPerSecond = opts.RoundsPerSecond
	}
	if err := tune.Validate(); err != nil {
		return tune, fmt.Errorf("tuning: %w", err)
	}
	return tune, nil
}

func buildWorld(cfg world.WorldConfig, opts options, tune tuning.Tuning, stdin io.Reader) (*world.World, error) {
	if opts.SnapIn != "" {
		snap, err := snapshot.ReadSnapshot(opts.SnapIn)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		w, err := world.New(cfg, nil)
		if err != nil {
			return nil, err
		}
		if err := w.ImportSnapshot(snap); err != nil {
			return nil, fmt.Errorf("import snapshot: %w", err)
		}
		return w, nil
	}

	r := stdin
	if opts.Input != "-" {
		f, err := os.Open(opts.Input)
		if err != nil {
			return nil, fmt.Errorf("open layout: %w", err)
		}
		defer f.Close()
		r = f
	}
	agent, empty := tune.Symbols()
	positions, err := layout.Parse(r, layout.Symbols{Agent: agent, Empty: empty})
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return world.New(cfg, positions)
}

func linger(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
