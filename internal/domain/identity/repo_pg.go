package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, external_id, name, email, phone, date_of_birth, gender,
	emergency_contact, medical_history, preferred_language, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	if p.PreferredLanguage == "" {
		p.PreferredLanguage = "en"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (id, external_id, name, email, phone, date_of_birth, gender,
			emergency_contact, medical_history, preferred_language)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.ExternalID, p.Name, p.Email, p.Phone, p.DateOfBirth, p.Gender,
		p.EmergencyContact, p.MedicalHistory, p.PreferredLanguage,
	)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE external_id = $1`, externalID))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE patient SET
			name=$2, email=$3, phone=$4, date_of_birth=$5, gender=$6,
			emergency_contact=$7, medical_history=$8, preferred_language=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Phone, p.DateOfBirth, p.Gender,
		p.EmergencyContact, p.MedicalHistory, p.PreferredLanguage,
	)
	return err
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.ExternalID, &p.Name, &p.Email, &p.Phone, &p.DateOfBirth,
		&p.Gender, &p.EmergencyContact, &p.MedicalHistory, &p.PreferredLanguage,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorCols = `id, external_id, name, email, phone, specialty, category, hospital, bio,
	license_number, rating, is_online, verified, created_at, updated_at`

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctor (id, external_id, name, email, phone, specialty, category,
			hospital, bio, license_number, rating, is_online, verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		d.ID, d.ExternalID, d.Name, d.Email, d.Phone, d.Specialty, d.Category,
		d.Hospital, d.Bio, d.LicenseNumber, d.Rating, d.IsOnline, d.Verified,
	)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE external_id = $1`, externalID))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE doctor SET
			name=$2, email=$3, phone=$4, specialty=$5, category=$6, hospital=$7,
			bio=$8, license_number=$9, rating=$10, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Email, d.Phone, d.Specialty, d.Category, d.Hospital,
		d.Bio, d.LicenseNumber, d.Rating,
	)
	return err
}

func (r *doctorRepoPG) List(ctx context.Context, filter DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	where := `WHERE verified = TRUE`
	args := []interface{}{}
	n := 0

	if filter.Category != "" {
		n++
		where += fmt.Sprintf(` AND category = $%d`, n)
		args = append(args, filter.Category)
	}
	if filter.OnlineOnly {
		where += ` AND is_online = TRUE`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctor `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+doctorCols+` FROM doctor %s ORDER BY rating DESC, name LIMIT $%d OFFSET $%d`,
		where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDoctors(rows, total)
}

func (r *doctorRepoPG) SetOnline(ctx context.Context, id uuid.UUID, online bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE doctor SET is_online = $2, updated_at = NOW() WHERE id = $1`, id, online)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("doctor not found")
	}
	return nil
}

func (r *doctorRepoPG) ListUnverified(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctor WHERE verified = FALSE`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE verified = FALSE ORDER BY created_at LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDoctors(rows, total)
}

func (r *doctorRepoPG) SetVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE doctor SET verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("doctor not found")
	}
	return nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.ExternalID, &d.Name, &d.Email, &d.Phone, &d.Specialty,
		&d.Category, &d.Hospital, &d.Bio, &d.LicenseNumber, &d.Rating,
		&d.IsOnline, &d.Verified, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDoctors(rows pgx.Rows, total int) ([]*Doctor, int, error) {
	var result []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, d)
	}
	return result, total, rows.Err()
}

type adminRepoPG struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) AdminRepository {
	return &adminRepoPG{pool: pool}
}

func (r *adminRepoPG) Create(ctx context.Context, a *Admin) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_user (id, email, name, password_hash)
		VALUES ($1,$2,$3,$4)`,
		a.ID, a.Email, a.Name, a.PasswordHash,
	)
	return err
}

func (r *adminRepoPG) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM admin_user WHERE email = $1`, email).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
