package consultation

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

const consCols = `id, patient_id, doctor_id, status, type, symptoms, diagnosis, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, cons *Consultation) error {
	cons.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO consultation (id, patient_id, doctor_id, status, type, symptoms, diagnosis)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		cons.ID, cons.PatientID, cons.DoctorID, cons.Status, cons.Type, cons.Symptoms, cons.Diagnosis,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanCons(r.pool.QueryRow(ctx, `SELECT `+consCols+` FROM consultation WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, cons *Consultation) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE consultation SET
			status=$2, type=$3, symptoms=$4, diagnosis=$5, updated_at=NOW()
		WHERE id = $1`,
		cons.ID, cons.Status, cons.Type, cons.Symptoms, cons.Diagnosis,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM consultation`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+consCols+` FROM consultation ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCons(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM consultation WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+consCols+` FROM consultation WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCons(rows, total)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM consultation WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+consCols+` FROM consultation WHERE doctor_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCons(rows, total)
}

func scanCons(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.PatientID, &c.DoctorID, &c.Status, &c.Type,
		&c.Symptoms, &c.Diagnosis, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCons(rows pgx.Rows, total int) ([]*Consultation, int, error) {
	var result []*Consultation
	for rows.Next() {
		cons, err := scanCons(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, cons)
	}
	return result, total, rows.Err()
}

const msgCols = `id, consultation_id, sender_id, sender_role, content, content_type, status, created_at`

func (r *repoPG) CreateMessage(ctx context.Context, msg *Message) error {
	msg.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO message (id, consultation_id, sender_id, sender_role, content, content_type, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		msg.ID, msg.ConsultationID, msg.SenderID, msg.SenderRole, msg.Content, msg.ContentType, msg.Status,
	)
	return err
}

func (r *repoPG) GetMessage(ctx context.Context, id uuid.UUID) (*Message, error) {
	return scanMsg(r.pool.QueryRow(ctx, `SELECT `+msgCols+` FROM message WHERE id = $1`, id))
}

func (r *repoPG) UpdateMessageStatus(ctx context.Context, id uuid.UUID, status DeliveryStatus) error {
	_, err := r.pool.Exec(ctx, `UPDATE message SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) ListMessages(ctx context.Context, consultationID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM message WHERE consultation_id = $1`, consultationID).Scan(&total); err != nil {
		return nil, 0, err
	}
	// Ascending order: transcripts render oldest first.
	rows, err := r.pool.Query(ctx,
		`SELECT `+msgCols+` FROM message WHERE consultation_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`,
		consultationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Message
	for rows.Next() {
		msg, err := scanMsg(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, msg)
	}
	return result, total, rows.Err()
}

func scanMsg(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ConsultationID, &m.SenderID, &m.SenderRole,
		&m.Content, &m.ContentType, &m.Status, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
