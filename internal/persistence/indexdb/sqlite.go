package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"settle.ai/internal/persistence/snapshot"
	"settle.ai/internal/sim/tuning"
	"settle.ai/internal/sim/world"
)

// SQLiteIndex is a queryable read model over finished runs. Writes go through
// a single goroutine; the run journal stays the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	run      world.RunReport
	snapshot snapshotRow
}

type snapshotRow struct {
	Path   string
	RunID  string
	Round  uint64
	Agents int
	Width  int
	Height int
	Digest string
	Stable bool
}

// RunRow is a run as stored in the index.
type RunRow struct {
	RunID           string
	WorldID         string
	InputDigest     string
	Agents          int
	StartRound      uint64
	Rounds          uint64
	Stable          bool
	FixedPointRound uint64
	EmptyTiles      sql.NullInt64
	FinalDigest     string
	FinishedAt      string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 1024),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			world_id TEXT NOT NULL,
			input_digest TEXT NOT NULL,
			agents INTEGER NOT NULL,
			start_round INTEGER NOT NULL,
			rounds INTEGER NOT NULL,
			stable INTEGER NOT NULL,
			fixed_point_round INTEGER NOT NULL,
			metric_round INTEGER NOT NULL,
			empty_tiles INTEGER,
			final_digest TEXT NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input_digest, finished_at);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			path TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			digest TEXT NOT NULL,
			stable INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains pending writes and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped counts writes discarded because the writer fell behind.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) RecordRun(rep world.RunReport) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqRun, run: rep}:
	default:
		s.dropped.Add(1)
	}
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Path:   path,
		RunID:  snap.Header.RunID,
		Round:  snap.Header.Round,
		Agents: snap.Agents,
		Width:  snap.Width,
		Height: snap.Height,
		Digest: snap.Digest,
		Stable: snap.Stable,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropped.Add(1)
	}
}

// UpsertTuning stores the effective tuning so runs can be traced to it.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('tuning',?)`, string(b)); err != nil {
		return err
	}
	return tx.Commit()
}

// RecentRuns returns up to limit runs, newest first. An empty inputDigest
// matches every input.
func (s *SQLiteIndex) RecentRuns(ctx context.Context, inputDigest string, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT run_id,world_id,input_digest,agents,start_round,rounds,stable,fixed_point_round,empty_tiles,final_digest,finished_at
		FROM runs`
	args := []any{}
	if inputDigest != "" {
		q += ` WHERE input_digest = ?`
		args = append(args, inputDigest)
	}
	q += ` ORDER BY finished_at DESC, run_id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var stable int
		var startRound, rounds, fixed int64
		if err := rows.Scan(&r.RunID, &r.WorldID, &r.InputDigest, &r.Agents, &startRound, &rounds, &stable, &fixed, &r.EmptyTiles, &r.FinalDigest, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.StartRound = uint64(startRound)
		r.Rounds = uint64(rounds)
		r.FixedPointRound = uint64(fixed)
		r.Stable = stable != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,world_id,input_digest,agents,start_round,rounds,stable,fixed_point_round,metric_round,empty_tiles,final_digest,error,started_at,finished_at,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(path,run_id,round,agents,width,height,digest,stable) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 64
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			s.dropped.Add(1)
			continue
		}
		switch r.kind {
		case reqRun:
			rep := r.run
			raw, _ := json.Marshal(rep)
			var empty any
			if rep.EmptyTiles != nil {
				empty = *rep.EmptyTiles
			}
			if insertRun != nil {
				if _, err := tx.Stmt(insertRun).Exec(
					rep.RunID,
					rep.WorldID,
					rep.InputDigest,
					rep.Agents,
					int64(rep.StartRound),
					int64(rep.Rounds),
					boolInt(rep.Stable),
					int64(rep.FixedPointRound),
					int64(rep.MetricRound),
					empty,
					rep.FinalDigest,
					rep.Error,
					rep.StartedAt,
					rep.FinishedAt,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					sn.Path,
					sn.RunID,
					int64(sn.Round),
					sn.Agents,
					sn.Width,
					sn.Height,
					sn.Digest,
					boolInt(sn.Stable),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		// Readers share the single connection, so never sit on an open tx
		// while the queue is idle.
		if len(s.ch) == 0 || opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
