package cyclelog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, user_id, date, flow, symptoms, mood, notes, created_at`

func (r *repoPG) Create(ctx context.Context, l *CycleLog) error {
	l.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cycle_log (id, user_id, date, flow, symptoms, mood, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		l.ID, l.UserID, l.Date, l.Flow, l.Symptoms, l.Mood, l.Notes,
	)
	return err
}

func (r *repoPG) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*CycleLog, error) {
	l, err := scanLog(r.pool.QueryRow(ctx,
		`SELECT `+cols+` FROM cycle_log WHERE user_id = $1 AND date::date = $2::date`,
		userID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

func (r *repoPG) Update(ctx context.Context, l *CycleLog) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE cycle_log SET flow=$2, symptoms=$3, mood=$4, notes=$5
		WHERE id = $1`,
		l.ID, l.Flow, l.Symptoms, l.Mood, l.Notes,
	)
	return err
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*CycleLog, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cycle_log WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+cols+` FROM cycle_log WHERE user_id = $1 ORDER BY date DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*CycleLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, l)
	}
	return result, total, rows.Err()
}

func scanLog(row pgx.Row) (*CycleLog, error) {
	var l CycleLog
	err := row.Scan(&l.ID, &l.UserID, &l.Date, &l.Flow, &l.Symptoms, &l.Mood, &l.Notes, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
