// Package admin serves the back-office: platform statistics and the doctor
// verification queue.
package admin

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stats is a snapshot of platform-wide counts.
type Stats struct {
	Patients       int `json:"patients"`
	Doctors        int `json:"doctors"`
	PendingDoctors int `json:"pending_doctors"`
	Consultations  int `json:"consultations"`
	Prescriptions  int `json:"prescriptions"`
	HomeVisits     int `json:"home_visits"`
}

// StatsRepository reads aggregate counts.
type StatsRepository interface {
	Counts(ctx context.Context) (*Stats, error)
}

type statsRepoPG struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) StatsRepository {
	return &statsRepoPG{pool: pool}
}

func (r *statsRepoPG) Counts(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patient),
			(SELECT COUNT(*) FROM doctor WHERE verified),
			(SELECT COUNT(*) FROM doctor WHERE NOT verified),
			(SELECT COUNT(*) FROM consultation),
			(SELECT COUNT(*) FROM prescription),
			(SELECT COUNT(*) FROM home_visit)`,
	).Scan(&s.Patients, &s.Doctors, &s.PendingDoctors, &s.Consultations, &s.Prescriptions, &s.HomeVisits)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
