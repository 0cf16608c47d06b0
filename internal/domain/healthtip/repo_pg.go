package healthtip

import (
	"context"
	"fmt"

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

const cols = `id, title, content, category, language, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, tip *HealthTip) error {
	tip.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO health_tip (id, title, content, category, language)
		VALUES ($1,$2,$3,$4,$5)`,
		tip.ID, tip.Title, tip.Content, tip.Category, tip.Language,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*HealthTip, error) {
	return scanTip(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM health_tip WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, tip *HealthTip) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE health_tip SET title=$2, content=$3, category=$4, language=$5, updated_at=NOW()
		WHERE id = $1`,
		tip.ID, tip.Title, tip.Content, tip.Category, tip.Language,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("health tip not found")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM health_tip WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("health tip not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter Filter, limit, offset int) ([]*HealthTip, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if filter.Language != "" {
		args = append(args, filter.Language)
		where += fmt.Sprintf(" AND language = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM health_tip`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT `+cols+` FROM health_tip`+where+` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*HealthTip
	for rows.Next() {
		tip, err := scanTip(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, tip)
	}
	return result, total, rows.Err()
}

func scanTip(row pgx.Row) (*HealthTip, error) {
	var t HealthTip
	err := row.Scan(&t.ID, &t.Title, &t.Content, &t.Category, &t.Language, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
