package sos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const columns = `id, requester_id, lat, lng, blood_type, status, ambulance_id, hospital_id, hospital_name,
	hospital_lat, hospital_lng, ambulance_lat, ambulance_lng, eta, ghs_score, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, ext sqlx.ExtContext, c *Case) error
	GetByID(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Case, error)
	Update(ctx context.Context, ext sqlx.ExtContext, c *Case) error
	ListByRequester(ctx context.Context, ext sqlx.ExtContext, requesterID string) ([]*Case, error)
	ListActiveByHospital(ctx context.Context, ext sqlx.ExtContext, hospitalID string) ([]*Case, error)
	GetActiveByAmbulance(ctx context.Context, ext sqlx.ExtContext, ambulanceID string) (*Case, error)
	ListAll(ctx context.Context, ext sqlx.ExtContext, status *Status, page, limit int) ([]*Case, int, error)
}

type caseRepository struct{}

func NewRepository() Repository {
	return &caseRepository{}
}

func (r *caseRepository) Create(ctx context.Context, ext sqlx.ExtContext, c *Case) error {
	const query = `INSERT INTO sos_cases (id, requester_id, lat, lng, blood_type, status, ambulance_id, hospital_id, hospital_name,
			hospital_lat, hospital_lng, ambulance_lat, ambulance_lng, eta, ghs_score, created_at, updated_at)
		VALUES (:id, :requester_id, :lat, :lng, :blood_type, :status, :ambulance_id, :hospital_id, :hospital_name,
			:hospital_lat, :hospital_lng, :ambulance_lat, :ambulance_lng, :eta, :ghs_score, :created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, ext, query, c)
	return err
}

func (r *caseRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Case, error) {
	var c Case
	query := fmt.Sprintf(`SELECT %s FROM sos_cases WHERE id = $1`, columns)
	if err := sqlx.GetContext(ctx, ext, &c, query, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) Update(ctx context.Context, ext sqlx.ExtContext, c *Case) error {
	const query = `UPDATE sos_cases SET blood_type = :blood_type, status = :status, ambulance_id = :ambulance_id,
		hospital_id = :hospital_id, hospital_name = :hospital_name, hospital_lat = :hospital_lat, hospital_lng = :hospital_lng,
		ambulance_lat = :ambulance_lat, ambulance_lng = :ambulance_lng, eta = :eta, ghs_score = :ghs_score, updated_at = :updated_at
		WHERE id = :id`
	_, err := sqlx.NamedExecContext(ctx, ext, query, c)
	return err
}

func (r *caseRepository) ListByRequester(ctx context.Context, ext sqlx.ExtContext, requesterID string) ([]*Case, error) {
	var cases []*Case
	query := fmt.Sprintf(`SELECT %s FROM sos_cases WHERE requester_id = $1 ORDER BY created_at DESC`, columns)
	if err := sqlx.SelectContext(ctx, ext, &cases, query, requesterID); err != nil {
		return nil, err
	}
	return cases, nil
}

func (r *caseRepository) ListActiveByHospital(ctx context.Context, ext sqlx.ExtContext, hospitalID string) ([]*Case, error) {
	var cases []*Case
	query := fmt.Sprintf(`SELECT %s FROM sos_cases
		WHERE hospital_id = $1 AND status <> 'reached' ORDER BY created_at DESC`, columns)
	if err := sqlx.SelectContext(ctx, ext, &cases, query, hospitalID); err != nil {
		return nil, err
	}
	return cases, nil
}

func (r *caseRepository) GetActiveByAmbulance(ctx context.Context, ext sqlx.ExtContext, ambulanceID string) (*Case, error) {
	var c Case
	query := fmt.Sprintf(`SELECT %s FROM sos_cases
		WHERE ambulance_id = $1 AND status <> 'reached'
		ORDER BY created_at DESC LIMIT 1`, columns)
	if err := sqlx.GetContext(ctx, ext, &c, query, ambulanceID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) ListAll(ctx context.Context, ext sqlx.ExtContext, status *Status, page, limit int) ([]*Case, int, error) {
	offset := (page - 1) * limit
	args := []any{}
	argIdx := 1

	where := ""
	if status != nil {
		where = fmt.Sprintf(" WHERE status = $%d", argIdx)
		args = append(args, *status)
		argIdx++
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM sos_cases%s`, where)
	if err := sqlx.GetContext(ctx, ext, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM sos_cases%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, columns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	var cases []*Case
	if err := sqlx.SelectContext(ctx, ext, &cases, dataQuery, args...); err != nil {
		return nil, 0, err
	}

	return cases, total, nil
}
