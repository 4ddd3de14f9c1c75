package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPatientRepository is the pgx-backed patient store
type PostgresPatientRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPatientRepository(pool *pgxpool.Pool) *PostgresPatientRepository {
	return &PostgresPatientRepository{pool: pool}
}

func (r *PostgresPatientRepository) Create(ctx context.Context, p *models.Patient) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	query := `
		INSERT INTO patients (id, first_name, last_name, date_of_birth, care_notes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	_, err := r.pool.Exec(ctx, query, p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.CareNotes, p.IsActive, now)
	if err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (r *PostgresPatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	query := `
		SELECT id, first_name, last_name, date_of_birth, care_notes, is_active, created_at, updated_at
		FROM patients WHERE id = $1
	`
	p := &models.Patient{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.CareNotes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *PostgresPatientRepository) List(ctx context.Context, page Page) ([]*models.Patient, int, error) {
	query := `
		SELECT id, first_name, last_name, date_of_birth, care_notes, is_active, created_at, updated_at
		FROM patients
		ORDER BY last_name, first_name
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*models.Patient
	for rows.Next() {
		p := &models.Patient{}
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.CareNotes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}
	return patients, total, nil
}

func (r *PostgresPatientRepository) Update(ctx context.Context, p *models.Patient) error {
	p.UpdatedAt = time.Now()
	query := `
		UPDATE patients
		SET first_name = $2, last_name = $3, date_of_birth = $4, care_notes = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.CareNotes, p.IsActive, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresShiftRepository is the pgx-backed shift store
type PostgresShiftRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresShiftRepository(pool *pgxpool.Pool) *PostgresShiftRepository {
	return &PostgresShiftRepository{pool: pool}
}

func (r *PostgresShiftRepository) Create(ctx context.Context, s *models.Shift) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	query := `
		INSERT INTO shifts (id, patient_id, caregiver_id, start_time, end_time, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	_, err := r.pool.Exec(ctx, query, s.ID, s.PatientID, s.CaregiverID, s.StartTime, s.EndTime, s.Status, s.Notes, now)
	if err != nil {
		return fmt.Errorf("create shift: %w", err)
	}
	return nil
}

func (r *PostgresShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	query := `
		SELECT id, patient_id, caregiver_id, start_time, end_time, status, notes, created_at, updated_at
		FROM shifts WHERE id = $1
	`
	s := &models.Shift{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.PatientID, &s.CaregiverID, &s.StartTime, &s.EndTime, &s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get shift: %w", err)
	}
	return s, nil
}

func (r *PostgresShiftRepository) List(ctx context.Context, page Page) ([]*models.Shift, int, error) {
	query := `
		SELECT id, patient_id, caregiver_id, start_time, end_time, status, notes, created_at, updated_at
		FROM shifts
		ORDER BY start_time DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []*models.Shift
	for rows.Next() {
		s := &models.Shift{}
		if err := rows.Scan(&s.ID, &s.PatientID, &s.CaregiverID, &s.StartTime, &s.EndTime, &s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list shifts: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shifts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shifts: %w", err)
	}
	return shifts, total, nil
}

func (r *PostgresShiftRepository) Update(ctx context.Context, s *models.Shift) error {
	s.UpdatedAt = time.Now()
	query := `
		UPDATE shifts
		SET patient_id = $2, caregiver_id = $3, start_time = $4, end_time = $5, status = $6, notes = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, s.ID, s.PatientID, s.CaregiverID, s.StartTime, s.EndTime, s.Status, s.Notes, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresMedicationRepository is the pgx-backed medication store
type PostgresMedicationRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMedicationRepository(pool *pgxpool.Pool) *PostgresMedicationRepository {
	return &PostgresMedicationRepository{pool: pool}
}

func (r *PostgresMedicationRepository) Create(ctx context.Context, m *models.Medication) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	query := `
		INSERT INTO medications (id, patient_id, name, dosage, schedule, instructions, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	_, err := r.pool.Exec(ctx, query, m.ID, m.PatientID, m.Name, m.Dosage, m.Schedule, m.Instructions, m.IsActive, now)
	if err != nil {
		return fmt.Errorf("create medication: %w", err)
	}
	return nil
}

func (r *PostgresMedicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Medication, error) {
	query := `
		SELECT id, patient_id, name, dosage, schedule, instructions, is_active, created_at, updated_at
		FROM medications WHERE id = $1
	`
	m := &models.Medication{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Schedule, &m.Instructions, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return m, nil
}

func (r *PostgresMedicationRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, page Page) ([]*models.Medication, int, error) {
	query := `
		SELECT id, patient_id, name, dosage, schedule, instructions, is_active, created_at, updated_at
		FROM medications
		WHERE patient_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, patientID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var medications []*models.Medication
	for rows.Next() {
		m := &models.Medication{}
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Schedule, &m.Instructions, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan medication: %w", err)
		}
		medications = append(medications, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list medications: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medications WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medications: %w", err)
	}
	return medications, total, nil
}

func (r *PostgresMedicationRepository) Update(ctx context.Context, m *models.Medication) error {
	m.UpdatedAt = time.Now()
	query := `
		UPDATE medications
		SET name = $2, dosage = $3, schedule = $4, instructions = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, m.ID, m.Name, m.Dosage, m.Schedule, m.Instructions, m.IsActive, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresMedicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresHandoverNoteRepository is the pgx-backed handover note store
type PostgresHandoverNoteRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresHandoverNoteRepository(pool *pgxpool.Pool) *PostgresHandoverNoteRepository {
	return &PostgresHandoverNoteRepository{pool: pool}
}

func (r *PostgresHandoverNoteRepository) Create(ctx context.Context, n *models.HandoverNote) error {
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now
	query := `
		INSERT INTO handover_notes (id, patient_id, author_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	_, err := r.pool.Exec(ctx, query, n.ID, n.PatientID, n.AuthorID, n.Body, now)
	if err != nil {
		return fmt.Errorf("create handover note: %w", err)
	}
	return nil
}

func (r *PostgresHandoverNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.HandoverNote, error) {
	query := `
		SELECT id, patient_id, author_id, body, created_at, updated_at
		FROM handover_notes WHERE id = $1
	`
	n := &models.HandoverNote{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.PatientID, &n.AuthorID, &n.Body, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get handover note: %w", err)
	}
	return n, nil
}

func (r *PostgresHandoverNoteRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, page Page) ([]*models.HandoverNote, int, error) {
	query := `
		SELECT id, patient_id, author_id, body, created_at, updated_at
		FROM handover_notes
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, patientID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list handover notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.HandoverNote
	for rows.Next() {
		n := &models.HandoverNote{}
		if err := rows.Scan(&n.ID, &n.PatientID, &n.AuthorID, &n.Body, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan handover note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list handover notes: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM handover_notes WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count handover notes: %w", err)
	}
	return notes, total, nil
}

func (r *PostgresHandoverNoteRepository) Update(ctx context.Context, n *models.HandoverNote) error {
	n.UpdatedAt = time.Now()
	query := `UPDATE handover_notes SET body = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, n.ID, n.Body, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update handover note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresHandoverNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM handover_notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete handover note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
