package ambulance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const columns = `id, driver_id, status, latitude, longitude, assigned_case_id, last_update, created_at, updated_at`

type Repository interface {
	Upsert(ctx context.Context, ext sqlx.ExtContext, a *Ambulance) error
	GetByID(ctx context.Context, ext sqlx.ExtContext, id string) (*Ambulance, error)
	GetByDriverID(ctx context.Context, ext sqlx.ExtContext, driverID string) (*Ambulance, error)
	Update(ctx context.Context, ext sqlx.ExtContext, a *Ambulance) error
	ListAvailable(ctx context.Context, ext sqlx.ExtContext) ([]*Ambulance, error)
	ListAll(ctx context.Context, ext sqlx.ExtContext, status *Status, page, limit int) ([]*Ambulance, int, error)
	Reserve(ctx context.Context, ext sqlx.ExtContext, id string) (bool, error)
	LinkCase(ctx context.Context, ext sqlx.ExtContext, id string, caseID uuid.UUID) error
	Release(ctx context.Context, ext sqlx.ExtContext, id string) error
	ListDanglingAssigned(ctx context.Context, ext sqlx.ExtContext) ([]*Ambulance, error)
}

type ambulanceRepository struct{}

func NewRepository() Repository {
	return &ambulanceRepository{}
}

func (r *ambulanceRepository) Upsert(ctx context.Context, ext sqlx.ExtContext, a *Ambulance) error {
	const query = `INSERT INTO ambulances (id, driver_id, status, latitude, longitude, assigned_case_id, last_update, created_at, updated_at)
		VALUES (:id, :driver_id, :status, :latitude, :longitude, :assigned_case_id, :last_update, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			driver_id = EXCLUDED.driver_id,
			status = EXCLUDED.status,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			assigned_case_id = EXCLUDED.assigned_case_id,
			last_update = EXCLUDED.last_update,
			updated_at = EXCLUDED.updated_at`

	_, err := sqlx.NamedExecContext(ctx, ext, query, a)
	return err
}

func (r *ambulanceRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id string) (*Ambulance, error) {
	var a Ambulance
	query := fmt.Sprintf(`SELECT %s FROM ambulances WHERE id = $1`, columns)
	if err := sqlx.GetContext(ctx, ext, &a, query, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ambulanceRepository) GetByDriverID(ctx context.Context, ext sqlx.ExtContext, driverID string) (*Ambulance, error) {
	var a Ambulance
	query := fmt.Sprintf(`SELECT %s FROM ambulances WHERE driver_id = $1`, columns)
	if err := sqlx.GetContext(ctx, ext, &a, query, driverID); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ambulanceRepository) Update(ctx context.Context, ext sqlx.ExtContext, a *Ambulance) error {
	const query = `UPDATE ambulances SET status = :status, latitude = :latitude, longitude = :longitude,
		assigned_case_id = :assigned_case_id, last_update = :last_update, updated_at = :updated_at
		WHERE id = :id`
	_, err := sqlx.NamedExecContext(ctx, ext, query, a)
	return err
}

func (r *ambulanceRepository) ListAvailable(ctx context.Context, ext sqlx.ExtContext) ([]*Ambulance, error) {
	var ambulances []*Ambulance
	query := fmt.Sprintf(`SELECT %s FROM ambulances
		WHERE status = 'available' AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY id`, columns)
	if err := sqlx.SelectContext(ctx, ext, &ambulances, query); err != nil {
		return nil, err
	}
	return ambulances, nil
}

func (r *ambulanceRepository) ListAll(ctx context.Context, ext sqlx.ExtContext, status *Status, page, limit int) ([]*Ambulance, int, error) {
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
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM ambulances%s`, where)
	if err := sqlx.GetContext(ctx, ext, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM ambulances%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, columns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	var ambulances []*Ambulance
	if err := sqlx.SelectContext(ctx, ext, &ambulances, dataQuery, args...); err != nil {
		return nil, 0, err
	}

	return ambulances, total, nil
}

// Reserve flips an available unit to assigned in a single status-guarded
// UPDATE. Returns false when another dispatch won the race.
func (r *ambulanceRepository) Reserve(ctx context.Context, ext sqlx.ExtContext, id string) (bool, error) {
	const query = `UPDATE ambulances SET status = 'assigned', updated_at = NOW()
		WHERE id = $1 AND status = 'available'`
	res, err := ext.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *ambulanceRepository) LinkCase(ctx context.Context, ext sqlx.ExtContext, id string, caseID uuid.UUID) error {
	const query = `UPDATE ambulances SET assigned_case_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'assigned'`
	res, err := ext.ExecContext(ctx, query, id, caseID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ambulance %s is not reserved", id)
	}
	return nil
}

func (r *ambulanceRepository) Release(ctx context.Context, ext sqlx.ExtContext, id string) error {
	const query = `UPDATE ambulances SET status = 'available', assigned_case_id = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'assigned'`
	_, err := ext.ExecContext(ctx, query, id)
	return err
}

// ListDanglingAssigned finds units stuck assigned with no linked case, or
// linked to a case that is already closed — the crash window between
// reservation and case creation.
func (r *ambulanceRepository) ListDanglingAssigned(ctx context.Context, ext sqlx.ExtContext) ([]*Ambulance, error) {
	var ambulances []*Ambulance
	query := fmt.Sprintf(`SELECT %s FROM ambulances a
		WHERE a.status = 'assigned' AND (
			a.assigned_case_id IS NULL
			OR NOT EXISTS (
				SELECT 1 FROM sos_cases c
				WHERE c.id = a.assigned_case_id AND c.status <> 'reached'
			)
		)`, columns)
	if err := sqlx.SelectContext(ctx, ext, &ambulances, query); err != nil {
		return nil, err
	}
	return ambulances, nil
}
