package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/tilestitch/internal/model"
	"github.com/banshee-data/tilestitch/internal/optimizer"
	"github.com/banshee-data/tilestitch/internal/tilegraph"
	"github.com/banshee-data/tilestitch/internal/timeutil"
	"github.com/google/uuid"
)

// ErrRunNotFound is returned for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// Run is a persisted optimisation run without its transforms.
type Run struct {
	RunID       string
	Label       string
	Status      string
	Diagnostics optimizer.Diagnostics
	CreatedAt   time.Time
}

// RunStore persists optimisation results.
type RunStore struct {
	db    *DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore. A nil clock uses the wall clock.
func NewRunStore(db *DB, clock timeutil.Clock) *RunStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &RunStore{db: db, clock: clock}
}

// SaveRun stores a result with its transforms and error history in one
// transaction and returns the new run ID.
func (s *RunStore) SaveRun(ctx context.Context, label string, res *optimizer.Result) (string, error) {
	runID := uuid.New().String()
	d := res.Diagnostics

	graphSizes, err := json.Marshal(d.GraphSizes)
	if err != nil {
		return "", fmt.Errorf("encode graph sizes: %w", err)
	}
	lost, err := json.Marshal(d.LostTiles)
	if err != nil {
		return "", fmt.Errorf("encode lost tiles: %w", err)
	}

	err = retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO optimization_runs (
				run_id, label, status, pairs_total, pairs_added,
				remaining_graph_size, remaining_pairs,
				avg_displacement, max_displacement, max_pairwise_displacement,
				replaced_tiles_translation, replaced_tiles_similarity,
				fixed_tile, translation_only, prealigned, iterations, elapsed_ns,
				graph_sizes_json, lost_tiles_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, label, res.Status.String(), d.PairsTotal, d.PairsAdded,
			d.RemainingGraphSize, d.RemainingPairs,
			d.AvgDisplacement, d.MaxDisplacement, d.MaxPairwiseDisplacement,
			d.ReplacedTilesTranslation, d.ReplacedTilesSimilarity,
			int64(d.FixedTile), d.TranslationOnly, d.Prealigned, d.Iterations, d.Elapsed.Nanoseconds(),
			string(graphSizes), string(lost), s.clock.Now().UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, st := range res.Tiles {
			matrix, err := json.Marshal(st.Transform.M)
			if err != nil {
				return fmt.Errorf("encode transform of %s: %w", st.Ref, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO tile_transforms (run_id, tile_id, time_point, name, model, kind, dim, matrix_json, mean_residual)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, int64(st.Ref.ID), st.Ref.TimePoint, st.Ref.Name, st.Model, st.Kind.String(), st.Transform.D, string(matrix), st.MeanResidual,
			)
			if err != nil {
				return fmt.Errorf("insert transform of %s: %w", st.Ref, err)
			}
		}

		for i, e := range d.ErrorHistory {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO run_error_history (run_id, iteration, avg_error) VALUES (?, ?, ?)`,
				runID, i, e)
			if err != nil {
				return fmt.Errorf("insert error history: %w", err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return runID, nil
}

const runColumns = `
	run_id, label, status, pairs_total, pairs_added,
	remaining_graph_size, remaining_pairs,
	avg_displacement, max_displacement, max_pairwise_displacement,
	replaced_tiles_translation, replaced_tiles_similarity,
	fixed_tile, translation_only, prealigned, iterations, elapsed_ns,
	graph_sizes_json, lost_tiles_json, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r                      Run
		fixed, elapsed, nanos  int64
		graphSizes, lostTiles  sql.NullString
		translationOnly, preal bool
	)
	d := &r.Diagnostics
	err := row.Scan(
		&r.RunID, &r.Label, &r.Status, &d.PairsTotal, &d.PairsAdded,
		&d.RemainingGraphSize, &d.RemainingPairs,
		&d.AvgDisplacement, &d.MaxDisplacement, &d.MaxPairwiseDisplacement,
		&d.ReplacedTilesTranslation, &d.ReplacedTilesSimilarity,
		&fixed, &translationOnly, &preal, &d.Iterations, &elapsed,
		&graphSizes, &lostTiles, &nanos,
	)
	if err != nil {
		return nil, err
	}
	d.FixedTile = tilegraph.TileID(fixed)
	d.TranslationOnly = translationOnly
	d.Prealigned = preal
	d.Elapsed = time.Duration(elapsed)
	r.CreatedAt = time.Unix(0, nanos).UTC()

	if graphSizes.Valid && graphSizes.String != "null" {
		if err := json.Unmarshal([]byte(graphSizes.String), &d.GraphSizes); err != nil {
			return nil, fmt.Errorf("decode graph sizes: %w", err)
		}
	}
	if lostTiles.Valid && lostTiles.String != "null" {
		if err := json.Unmarshal([]byte(lostTiles.String), &d.LostTiles); err != nil {
			return nil, fmt.Errorf("decode lost tiles: %w", err)
		}
	}
	return &r, nil
}

// GetRun returns a run and its error history.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM optimization_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT avg_error FROM run_error_history
		WHERE run_id = ?
		ORDER BY iteration`, runID)
	if err != nil {
		return nil, fmt.Errorf("query error history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e float64
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scan error history: %w", err)
		}
		r.Diagnostics.ErrorHistory = append(r.Diagnostics.ErrorHistory, e)
	}
	return r, rows.Err()
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM optimization_runs
		ORDER BY created_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListTransforms returns the solved tiles of a run ordered by tile ID.
func (s *RunStore) ListTransforms(ctx context.Context, runID string) ([]optimizer.SolvedTile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tile_id, time_point, name, model, kind, dim, matrix_json, mean_residual
		FROM tile_transforms
		WHERE run_id = ?
		ORDER BY tile_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query transforms: %w", err)
	}
	defer rows.Close()

	var out []optimizer.SolvedTile
	for rows.Next() {
		var (
			st     optimizer.SolvedTile
			id     int64
			kind   string
			matrix string
		)
		if err := rows.Scan(&id, &st.Ref.TimePoint, &st.Ref.Name, &st.Model, &kind, &st.Transform.D, &matrix, &st.MeanResidual); err != nil {
			return nil, fmt.Errorf("scan transform: %w", err)
		}
		st.Ref.ID = tilegraph.TileID(id)
		if st.Kind, err = model.ParseKind(kind); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(matrix), &st.Transform.M); err != nil {
			return nil, fmt.Errorf("decode transform of %s: %w", st.Ref, err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and, through the foreign keys, its transforms and
// history.
func (s *RunStore) DeleteRun(ctx context.Context, runID string) error {
	return retryOnBusy(func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM optimization_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}
