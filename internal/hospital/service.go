package hospital

import (
	"context"

	"github.com/jmoiron/sqlx"

	"lifeline/internal/blood"
	"lifeline/internal/common"
	domainerrors "lifeline/internal/errors"
)

type Service interface {
	GetByID(ctx context.Context, id string) (*Hospital, error)
	ListWithCoordinates(ctx context.Context) ([]*Hospital, error)
	ListAll(ctx context.Context) ([]*Hospital, error)
	Onboard(ctx context.Context, id, name string, lat, lng *float64, specialization []string) (*Hospital, error)
	UpdateCapacity(ctx context.Context, id string, icuBeds *int, stock blood.Stock) (*Hospital, error)
}

type service struct {
	repo Repository
	db   *sqlx.DB
}

func NewService(repo Repository, db *sqlx.DB) Service {
	return &service{repo: repo, db: db}
}

func (s *service) GetByID(ctx context.Context, id string) (*Hospital, error) {
	h, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, domainerrors.HospitalNotFound(id)
	}
	return h, nil
}

func (s *service) ListWithCoordinates(ctx context.Context) ([]*Hospital, error) {
	return s.repo.ListWithCoordinates(ctx, s.db)
}

func (s *service) ListAll(ctx context.Context) ([]*Hospital, error) {
	return s.repo.ListAll(ctx, s.db)
}

// Onboard registers a facility with zero stock and beds; staff raise
// capacity afterwards.
func (s *service) Onboard(ctx context.Context, id, name string, lat, lng *float64, specialization []string) (*Hospital, error) {
	if name == "" {
		return nil, domainerrors.NewValidation("hospital name is required")
	}
	if (lat == nil) != (lng == nil) {
		return nil, domainerrors.NewValidation("latitude and longitude must be set together")
	}
	if lat != nil {
		if err := common.ValidateLatLng(*lat, *lng); err != nil {
			return nil, domainerrors.NewValidation(err.Error())
		}
	}

	h := New(id, name)
	h.Latitude = lat
	h.Longitude = lng
	h.Specialization = specialization

	if err := s.repo.Upsert(ctx, s.db, h); err != nil {
		return nil, domainerrors.NewInternal("failed to onboard hospital", err)
	}
	return h, nil
}

func (s *service) UpdateCapacity(ctx context.Context, id string, icuBeds *int, stock blood.Stock) (*Hospital, error) {
	h, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if icuBeds != nil {
		if *icuBeds < 0 {
			return nil, domainerrors.NewValidation("icu_beds must be non-negative")
		}
		h.ICUBeds = *icuBeds
	}
	if stock != nil {
		for t, n := range stock {
			if !blood.IsValidType(t) {
				return nil, domainerrors.NewValidation("unknown blood type " + t)
			}
			if n < 0 {
				return nil, domainerrors.NewValidation("blood unit counts must be non-negative")
			}
		}
		merged := h.BloodStock.Normalized()
		for t, n := range stock {
			merged[t] = n
		}
		h.BloodStock = merged
	}

	if err := s.repo.Update(ctx, s.db, h); err != nil {
		return nil, domainerrors.NewInternal("failed to update hospital capacity", err)
	}
	return h, nil
}
