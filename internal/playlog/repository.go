package playlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/Cheese-scratch-card/internal/domain"
)

var ErrDuplicateRound = errors.New("round already archived")

// Repository archives finished rounds.
type Repository interface {
	Insert(ctx context.Context, round *domain.RoundResult) (int64, error)
	Recent(ctx context.Context, owner string, limit int) ([]*domain.RoundResult, error)
}

type pgRepository struct {
	db *sql.DB
}

// Open connects to Postgres and makes sure the table exists.
func Open(ctx context.Context, databaseURL string) (Repository, func() error, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if _, err := db.ExecContext(pingCtx, schema); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure scratch_rounds: %w", err)
	}
	return NewRepository(db), db.Close, nil
}

func NewRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS scratch_rounds (
		id          BIGSERIAL PRIMARY KEY,
		owner       TEXT        NOT NULL,
		session_id  TEXT        NOT NULL UNIQUE,
		score       INTEGER     NOT NULL,
		revealed    JSONB       NOT NULL,
		kind        TEXT        NOT NULL DEFAULT '',
		started_at  TIMESTAMPTZ NOT NULL,
		ended_at    TIMESTAMPTZ NOT NULL,
		duration_ms BIGINT      NOT NULL
	);
	CREATE INDEX IF NOT EXISTS scratch_rounds_owner_ended ON scratch_rounds (owner, ended_at DESC)`

func (r *pgRepository) Insert(ctx context.Context, round *domain.RoundResult) (int64, error) {
	if round == nil {
		return 0, fmt.Errorf("nil round payload")
	}
	revealed, err := json.Marshal(nonNil(round.Revealed))
	if err != nil {
		return 0, fmt.Errorf("marshal revealed: %w", err)
	}

	const query = `
		INSERT INTO scratch_rounds (
			owner,
			session_id,
			score,
			revealed,
			kind,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		round.Owner,
		round.SessionID,
		round.Score,
		revealed,
		round.Kind,
		round.StartedAt,
		round.EndedAt,
		round.Duration.Milliseconds(),
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateRound
	}
	if err != nil {
		return 0, fmt.Errorf("insert scratch round: %w", err)
	}
	return id.Int64, nil
}

func (r *pgRepository) Recent(ctx context.Context, owner string, limit int) ([]*domain.RoundResult, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT
			id,
			owner,
			session_id,
			score,
			revealed,
			kind,
			started_at,
			ended_at,
			duration_ms
		FROM scratch_rounds
		WHERE owner = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("select scratch rounds: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.RoundResult, 0, limit)
	for rows.Next() {
		var (
			round      domain.RoundResult
			revealed   []byte
			durationMS sql.NullInt64
		)
		if err := rows.Scan(
			&round.ID,
			&round.Owner,
			&round.SessionID,
			&round.Score,
			&revealed,
			&round.Kind,
			&round.StartedAt,
			&round.EndedAt,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan scratch round: %w", err)
		}
		if durationMS.Valid {
			round.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		}
		if err := json.Unmarshal(revealed, &round.Revealed); err != nil {
			return nil, fmt.Errorf("unmarshal revealed: %w", err)
		}
		out = append(out, &round)
	}
	return out, rows.Err()
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
