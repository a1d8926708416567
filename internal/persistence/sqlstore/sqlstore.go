package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/katacr/go-oneblock/internal/progress"
	"github.com/katacr/go-oneblock/internal/world"
)

// Store keeps owned blocks and player progress in a sqlite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

type StoreOpt func(*Store)

// WithClock sets the clock used for generation timestamps.
func WithClock(now func() time.Time) StoreOpt {
	return func(s *Store) {
		s.now = now
	}
}

func Open(path string, opts ...StoreOpt) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	err = initPragmas(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	err = initSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		_, err := db.Exec(p)
		if err != nil {
			return fmt.Errorf("setting %s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS generated_blocks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id TEXT NOT NULL,
			player_name TEXT NOT NULL,
			world TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			block_type TEXT NOT NULL,
			generated_at INTEGER NOT NULL,
			UNIQUE(world, x, y, z)
		);`,
		`CREATE INDEX IF NOT EXISTS generated_blocks_player ON generated_blocks(player_id, world);`,
		`CREATE TABLE IF NOT EXISTS player_progress (
			player_id TEXT PRIMARY KEY,
			stage TEXT NOT NULL,
			blocks_broken INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		if err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const ownedBlockColumns = `id, player_id, player_name, world, x, y, z, block_type, generated_at`

func scanOwnedBlock(row *sql.Row) (world.OwnedBlock, bool, error) {
	var (
		b  world.OwnedBlock
		ts int64
	)
	err := row.Scan(&b.ID, &b.OwnerID, &b.OwnerName, &b.Pos.World, &b.Pos.X, &b.Pos.Y, &b.Pos.Z, &b.BlockType, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return world.OwnedBlock{}, false, nil
	}
	if err != nil {
		return world.OwnedBlock{}, false, err
	}
	b.GeneratedAt = time.UnixMilli(ts).UTC()
	return b, true, nil
}

// FindOwnedBlock returns the generated block at pos.
func (s *Store) FindOwnedBlock(ctx context.Context, pos world.Position) (world.OwnedBlock, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ownedBlockColumns+` FROM generated_blocks WHERE world=? AND x=? AND y=? AND z=?`,
		pos.World, pos.X, pos.Y, pos.Z)
	b, ok, err := scanOwnedBlock(row)
	if err != nil {
		return b, false, fmt.Errorf("finding block at %s: %w", pos, err)
	}
	return b, ok, nil
}

// FindOwnedBlockByPlayer returns the player's generated block in a world.
func (s *Store) FindOwnedBlockByPlayer(ctx context.Context, playerID, worldName string) (world.OwnedBlock, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ownedBlockColumns+` FROM generated_blocks WHERE player_id=? AND world=? ORDER BY id LIMIT 1`,
		playerID, worldName)
	b, ok, err := scanOwnedBlock(row)
	if err != nil {
		return b, false, fmt.Errorf("finding block of %s in %s: %w", playerID, worldName, err)
	}
	return b, ok, nil
}

// UpsertOwnedBlock records a generated block, replacing the owner's record
// at the same position. It returns the record id, or world.ErrPositionOwned
// when another player owns the position.
func (s *Store) UpsertOwnedBlock(ctx context.Context, b world.OwnedBlock) (int64, error) {
	at := b.GeneratedAt
	if at.IsZero() {
		at = s.now()
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO generated_blocks (player_id, player_name, world, x, y, z, block_type, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(world, x, y, z) DO UPDATE SET
			player_id=excluded.player_id,
			player_name=excluded.player_name,
			block_type=excluded.block_type,
			generated_at=excluded.generated_at
		WHERE generated_blocks.player_id=excluded.player_id
		RETURNING id`,
		b.OwnerID, b.OwnerName, b.Pos.World, b.Pos.X, b.Pos.Y, b.Pos.Z, b.BlockType, at.UnixMilli(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("saving block at %s: %w", b.Pos, world.ErrPositionOwned)
	}
	if err != nil {
		return 0, fmt.Errorf("saving block at %s: %w", b.Pos, err)
	}
	return id, nil
}

// UpdateBlockType changes the recorded type of the block at pos. Unknown
// positions are left alone.
func (s *Store) UpdateBlockType(ctx context.Context, pos world.Position, blockType string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE generated_blocks SET block_type=? WHERE world=? AND x=? AND y=? AND z=?`,
		blockType, pos.World, pos.X, pos.Y, pos.Z)
	if err != nil {
		return fmt.Errorf("updating block at %s: %w", pos, err)
	}
	return nil
}

// DeleteOwnedBlock removes the player's records in a world. It reports
// whether anything was removed.
func (s *Store) DeleteOwnedBlock(ctx context.Context, playerID, worldName string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM generated_blocks WHERE player_id=? AND world=?`, playerID, worldName)
	if err != nil {
		return false, fmt.Errorf("deleting block of %s in %s: %w", playerID, worldName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) LoadProgress(ctx context.Context, playerID string) (progress.Progress, bool, error) {
	p := progress.Progress{PlayerID: playerID}
	err := s.db.QueryRowContext(ctx,
		`SELECT stage, blocks_broken FROM player_progress WHERE player_id=?`, playerID,
	).Scan(&p.StageID, &p.BlocksBroken)
	if errors.Is(err, sql.ErrNoRows) {
		return progress.Progress{}, false, nil
	}
	if err != nil {
		return progress.Progress{}, false, fmt.Errorf("loading progress of %s: %w", playerID, err)
	}
	return p, true, nil
}

func (s *Store) LoadAllProgress(ctx context.Context) ([]progress.Progress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, stage, blocks_broken FROM player_progress ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	defer rows.Close()

	var out []progress.Progress
	for rows.Next() {
		var p progress.Progress
		err := rows.Scan(&p.PlayerID, &p.StageID, &p.BlocksBroken)
		if err != nil {
			return nil, fmt.Errorf("scanning progress: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SaveProgress(ctx context.Context, p progress.Progress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_progress (player_id, stage, blocks_broken) VALUES (?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET stage=excluded.stage, blocks_broken=excluded.blocks_broken`,
		p.PlayerID, p.StageID, p.BlocksBroken)
	if err != nil {
		return fmt.Errorf("saving progress of %s: %w", p.PlayerID, err)
	}
	return nil
}

func (s *Store) DeleteProgress(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM player_progress WHERE player_id=?`, playerID)
	if err != nil {
		return fmt.Errorf("deleting progress of %s: %w", playerID, err)
	}
	return nil
}
