package hospital

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const columns = `id, name, latitude, longitude, icu_beds, blood_stock, specialization, created_at, updated_at`

type Repository interface {
	Upsert(ctx context.Context, ext sqlx.ExtContext, h *Hospital) error
	GetByID(ctx context.Context, ext sqlx.ExtContext, id string) (*Hospital, error)
	Update(ctx context.Context, ext sqlx.ExtContext, h *Hospital) error
	ListWithCoordinates(ctx context.Context, ext sqlx.ExtContext) ([]*Hospital, error)
	ListAll(ctx context.Context, ext sqlx.ExtContext) ([]*Hospital, error)
}

type hospitalRepository struct{}

func NewRepository() Repository {
	return &hospitalRepository{}
}

func (r *hospitalRepository) Upsert(ctx context.Context, ext sqlx.ExtContext, h *Hospital) error {
	const query = `INSERT INTO hospitals (id, name, latitude, longitude, icu_beds, blood_stock, specialization, created_at, updated_at)
		VALUES (:id, :name, :latitude, :longitude, :icu_beds, :blood_stock, :specialization, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			icu_beds = EXCLUDED.icu_beds,
			blood_stock = EXCLUDED.blood_stock,
			specialization = EXCLUDED.specialization,
			updated_at = EXCLUDED.updated_at`

	_, err := sqlx.NamedExecContext(ctx, ext, query, h)
	return err
}

func (r *hospitalRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id string) (*Hospital, error) {
	var h Hospital
	query := fmt.Sprintf(`SELECT %s FROM hospitals WHERE id = $1`, columns)
	if err := sqlx.GetContext(ctx, ext, &h, query, id); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hospitalRepository) Update(ctx context.Context, ext sqlx.ExtContext, h *Hospital) error {
	const query = `UPDATE hospitals SET name = :name, latitude = :latitude, longitude = :longitude,
		icu_beds = :icu_beds, blood_stock = :blood_stock, specialization = :specialization, updated_at = :updated_at
		WHERE id = :id`
	_, err := sqlx.NamedExecContext(ctx, ext, query, h)
	return err
}

func (r *hospitalRepository) ListWithCoordinates(ctx context.Context, ext sqlx.ExtContext) ([]*Hospital, error) {
	var hospitals []*Hospital
	query := fmt.Sprintf(`SELECT %s FROM hospitals
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY id`, columns)
	if err := sqlx.SelectContext(ctx, ext, &hospitals, query); err != nil {
		return nil, err
	}
	return hospitals, nil
}

func (r *hospitalRepository) ListAll(ctx context.Context, ext sqlx.ExtContext) ([]*Hospital, error) {
	var hospitals []*Hospital
	query := fmt.Sprintf(`SELECT %s FROM hospitals ORDER BY name`, columns)
	if err := sqlx.SelectContext(ctx, ext, &hospitals, query); err != nil {
		return nil, err
	}
	return hospitals, nil
}
