package homevisit

import (
	"context"

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

const cols = `id, patient_id, doctor_id, status, scheduled_at, address, latitude, longitude, directions, reason, cost, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, v *HomeVisit) error {
	v.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO home_visit (id, patient_id, doctor_id, status, scheduled_at, address, latitude, longitude, directions, reason, cost)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		v.ID, v.PatientID, v.DoctorID, v.Status, v.ScheduledAt, v.Address,
		v.Latitude, v.Longitude, v.Directions, v.Reason, v.Cost,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*HomeVisit, error) {
	return scanVisit(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM home_visit WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, v *HomeVisit) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE home_visit SET
			doctor_id=$2, status=$3, scheduled_at=$4, address=$5, latitude=$6,
			longitude=$7, directions=$8, reason=$9, cost=$10, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.DoctorID, v.Status, v.ScheduledAt, v.Address, v.Latitude,
		v.Longitude, v.Directions, v.Reason, v.Cost,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*HomeVisit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM home_visit`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+cols+` FROM home_visit ORDER BY scheduled_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectVisits(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*HomeVisit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM home_visit WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+cols+` FROM home_visit WHERE patient_id = $1 ORDER BY scheduled_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectVisits(rows, total)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*HomeVisit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM home_visit WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+cols+` FROM home_visit WHERE doctor_id = $1 ORDER BY scheduled_at DESC LIMIT $2 OFFSET $3`,
		doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectVisits(rows, total)
}

func scanVisit(row pgx.Row) (*HomeVisit, error) {
	var v HomeVisit
	err := row.Scan(&v.ID, &v.PatientID, &v.DoctorID, &v.Status, &v.ScheduledAt,
		&v.Address, &v.Latitude, &v.Longitude, &v.Directions, &v.Reason, &v.Cost,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVisits(rows pgx.Rows, total int) ([]*HomeVisit, int, error) {
	var result []*HomeVisit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, v)
	}
	return result, total, rows.Err()
}
