package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS topsis_evaluations (
	evaluation_id    UUID PRIMARY KEY,
	filename         TEXT NOT NULL,
	weights          TEXT NOT NULL,
	impacts          TEXT NOT NULL,
	email            TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	error_kind       TEXT,
	error            TEXT,
	columns          TEXT[],
	labels           TEXT[],
	criteria         INT NOT NULL DEFAULT 0,
	scores           DOUBLE PRECISION[],
	ranks            BIGINT[],
	best_alternative TEXT,
	frontier         TEXT[],
	result           BYTEA,
	delivered        BOOLEAN NOT NULL DEFAULT FALSE,
	delivery_error   TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS topsis_evaluations_created_at_idx ON topsis_evaluations (created_at DESC);
`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const evaluationColumns = `evaluation_id, filename, weights, impacts, email,
	status, error_kind, error,
	columns, labels, criteria, scores, ranks, best_alternative, frontier,
	result, delivered, delivery_error, created_at`

func (s *PostgresStore) CreateEvaluation(ctx context.Context, e *Evaluation) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO topsis_evaluations (`+evaluationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		e.ID, e.Filename, e.Weights, e.Impacts, e.Email,
		e.Status, nullString(e.ErrorKind), nullString(e.Error),
		e.Columns, e.Labels, e.Criteria, e.Scores, e.Ranks, nullString(e.BestAlternative), e.Frontier,
		e.Result, e.Delivered, nullString(e.DeliveryError), e.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetEvaluation(ctx context.Context, id uuid.UUID) (*Evaluation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+evaluationColumns+`
		FROM topsis_evaluations WHERE evaluation_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	evals, err := scanEvaluations(rows)
	if err != nil {
		return nil, err
	}
	if len(evals) == 0 {
		return nil, nil
	}
	return evals[0], nil
}

func (s *PostgresStore) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]*Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM topsis_evaluations WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.Email != "" {
		n++
		query += fmt.Sprintf(" AND email = $%d", n)
		args = append(args, filter.Email)
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvaluations(rows)
}

func (s *PostgresStore) UpdateDelivery(ctx context.Context, id uuid.UUID, delivered bool, deliveryErr string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE topsis_evaluations SET delivered = $2, delivery_error = $3
		WHERE evaluation_id = $1`,
		id, delivered, nullString(deliveryErr),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("evaluation %s not found", id)
	}
	return nil
}

func (s *PostgresStore) GetStats(ctx context.Context) (*EvaluationStats, error) {
	stats := &EvaluationStats{FailuresByKind: make(map[string]int)}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN delivered THEN 1 ELSE 0 END), 0)
		FROM topsis_evaluations`,
	).Scan(&stats.TotalCompleted, &stats.TotalFailed, &stats.TotalDelivered)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(error_kind, ''), COUNT(*)
		FROM topsis_evaluations WHERE status = 'failed'
		GROUP BY error_kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.FailuresByKind[kind] = count
	}
	return stats, rows.Err()
}

func scanEvaluations(rows pgx.Rows) ([]*Evaluation, error) {
	var evals []*Evaluation
	for rows.Next() {
		e := &Evaluation{}
		var errorKind, evalError, best, deliveryErr sql.NullString
		if err := rows.Scan(
			&e.ID, &e.Filename, &e.Weights, &e.Impacts, &e.Email,
			&e.Status, &errorKind, &evalError,
			&e.Columns, &e.Labels, &e.Criteria, &e.Scores, &e.Ranks, &best, &e.Frontier,
			&e.Result, &e.Delivered, &deliveryErr, &e.CreatedAt,
		); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, err
		}
		e.ErrorKind = errorKind.String
		e.Error = evalError.String
		e.BestAlternative = best.String
		e.DeliveryError = deliveryErr.String
		evals = append(evals, e)
	}
	return evals, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
