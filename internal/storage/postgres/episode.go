package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/monksim/internal/game/combat"
	"github.com/cory-johannsen/monksim/internal/game/episode"
)

// ErrEpisodeNotFound is returned when an episode lookup yields no results.
var ErrEpisodeNotFound = errors.New("episode not found")

// ErrBatchNotFound is returned when a batch lookup yields no results.
var ErrBatchNotFound = errors.New("batch not found")

// ErrDuplicateRun is returned when a batch or episode id is already stored.
var ErrDuplicateRun = errors.New("run already stored")

// EpisodeRecord is a stored episode with its per-source damage and per-action casts.
type EpisodeRecord struct {
	ID        uuid.UUID
	BatchID   *uuid.UUID
	Index     int
	Seed      int64
	Scenario  int
	Mode      string
	Total     float64
	DPS       float64
	Steps     int
	Unknown   []string
	Damage    []combat.Entry
	Casts     map[string]int
	CreatedAt time.Time
}

// BatchRecord is a stored batch summary.
type BatchRecord struct {
	ID        uuid.UUID
	Seed      int64
	Episodes  int
	Mode      string
	Mean      float64
	StdDev    float64
	Min       float64
	Max       float64
	Duration  time.Duration
	CreatedAt time.Time
}

// EpisodeRepository provides episode result persistence operations.
type EpisodeRepository struct {
	db *pgxpool.Pool
}

// NewEpisodeRepository creates an EpisodeRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEpisodeRepository(db *pgxpool.Pool) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

// SaveBatch stores the batch summary and every episode in one transaction.
//
// Precondition: b must be non-nil with a non-nil ID.
// Postcondition: all rows are stored or none are; ErrDuplicateRun if the batch
// id already exists.
func (r *EpisodeRepository) SaveBatch(ctx context.Context, b *episode.BatchResult, mode combat.Mode) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO batches (id, seed, episodes, mode, mean, stddev, min_total, max_total, duration_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.ID, b.Seed, len(b.Results), mode.String(), b.Mean, b.StdDev, b.Min, b.Max, b.Duration.Milliseconds(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateRun
		}
		return fmt.Errorf("inserting batch: %w", err)
	}
	batchID := b.ID
	for _, res := range b.Results {
		if err := insertEpisode(ctx, tx, &batchID, res, mode); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// Save stores a single episode outside any batch.
//
// Postcondition: ErrDuplicateRun if the episode id already exists.
func (r *EpisodeRepository) Save(ctx context.Context, res episode.Result, mode combat.Mode) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning episode transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := insertEpisode(ctx, tx, nil, res, mode); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing episode: %w", err)
	}
	return nil
}

func insertEpisode(ctx context.Context, tx pgx.Tx, batchID *uuid.UUID, res episode.Result, mode combat.Mode) error {
	unknown := res.Unknown
	if unknown == nil {
		unknown = []string{}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO episodes (id, batch_id, idx, seed, scenario, mode, total, dps, steps, unknown_talents)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		res.ID, batchID, res.Index, res.Seed, int(res.Scenario), mode.String(),
		res.Total, res.DPS, res.Steps, unknown,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateRun
		}
		return fmt.Errorf("inserting episode %s: %w", res.ID, err)
	}

	batch := &pgx.Batch{}
	for _, e := range res.Meter.Sorted() {
		batch.Queue(`INSERT INTO episode_damage (episode_id, source, damage) VALUES ($1,$2,$3)`,
			res.ID, e.Label, e.Damage)
	}
	actions := make([]string, 0, len(res.Casts))
	for a := range res.Casts {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	for _, a := range actions {
		batch.Queue(`INSERT INTO episode_casts (episode_id, action, casts) VALUES ($1,$2,$3)`,
			res.ID, a, res.Casts[a])
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting breakdown for episode %s: %w", res.ID, err)
	}
	return nil
}

// Get retrieves an episode with its breakdown.
//
// Postcondition: Returns the record or ErrEpisodeNotFound.
func (r *EpisodeRepository) Get(ctx context.Context, id uuid.UUID) (*EpisodeRecord, error) {
	var rec EpisodeRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, batch_id, idx, seed, scenario, mode, total, dps, steps, unknown_talents, created_at
		FROM episodes WHERE id = $1`,
		id,
	).Scan(
		&rec.ID, &rec.BatchID, &rec.Index, &rec.Seed, &rec.Scenario, &rec.Mode,
		&rec.Total, &rec.DPS, &rec.Steps, &rec.Unknown, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEpisodeNotFound
		}
		return nil, fmt.Errorf("querying episode %s: %w", id, err)
	}
	if err := r.loadBreakdown(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *EpisodeRepository) loadBreakdown(ctx context.Context, rec *EpisodeRecord) error {
	rows, err := r.db.Query(ctx, `
		SELECT source, damage FROM episode_damage
		WHERE episode_id = $1 ORDER BY damage DESC, source ASC`,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("querying damage for episode %s: %w", rec.ID, err)
	}
	rec.Damage, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (combat.Entry, error) {
		var e combat.Entry
		err := row.Scan(&e.Label, &e.Damage)
		return e, err
	})
	if err != nil {
		return fmt.Errorf("scanning damage row: %w", err)
	}

	rows, err = r.db.Query(ctx, `SELECT action, casts FROM episode_casts WHERE episode_id = $1`, rec.ID)
	if err != nil {
		return fmt.Errorf("querying casts for episode %s: %w", rec.ID, err)
	}
	defer rows.Close()
	rec.Casts = make(map[string]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return fmt.Errorf("scanning cast row: %w", err)
		}
		rec.Casts[action] = n
	}
	return rows.Err()
}

// GetBatch retrieves a batch summary.
//
// Postcondition: Returns the record or ErrBatchNotFound.
func (r *EpisodeRepository) GetBatch(ctx context.Context, id uuid.UUID) (*BatchRecord, error) {
	var rec BatchRecord
	var ms int64
	err := r.db.QueryRow(ctx, `
		SELECT id, seed, episodes, mode, mean, stddev, min_total, max_total, duration_ms, created_at
		FROM batches WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Seed, &rec.Episodes, &rec.Mode, &rec.Mean, &rec.StdDev, &rec.Min, &rec.Max, &ms, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("querying batch %s: %w", id, err)
	}
	rec.Duration = time.Duration(ms) * time.Millisecond
	return &rec, nil
}

// ListByBatch returns the ids of a batch's episodes ordered by index.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *EpisodeRepository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM episodes WHERE batch_id = $1 ORDER BY idx ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("listing episodes: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scanning episode id: %w", err)
	}
	return ids, nil
}

// Delete removes an episode and its breakdown rows.
//
// Postcondition: Returns ErrEpisodeNotFound if no row was deleted.
func (r *EpisodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM episodes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting episode %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEpisodeNotFound
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
