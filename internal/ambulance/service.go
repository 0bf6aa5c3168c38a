package ambulance

import (
	"context"

	"github.com/jmoiron/sqlx"

	"lifeline/internal/common"
	domainerrors "lifeline/internal/errors"
	"lifeline/internal/redis"
)

type Service interface {
	EnsureExists(ctx context.Context, driverID string) (*Ambulance, error)
	GetByID(ctx context.Context, id string) (*Ambulance, error)
	GetByDriver(ctx context.Context, driverID string) (*Ambulance, error)
	Heartbeat(ctx context.Context, driverID string, lat, lng float64) (*Ambulance, error)
	SetShiftStatus(ctx context.Context, driverID string, status Status) (*Ambulance, error)
	GetLocation(ctx context.Context, ambulanceID string) (*common.Location, error)
	ListAll(ctx context.Context, status *Status, page, limit int) ([]*Ambulance, int, error)
}

type service struct {
	repo  Repository
	db    *sqlx.DB
	cache *redis.AmbulanceLocationCache
}

func NewService(repo Repository, db *sqlx.DB, cache *redis.AmbulanceLocationCache) Service {
	return &service{repo: repo, db: db, cache: cache}
}

// EnsureExists registers the driver's unit on first contact. New units are
// available with no coordinates until the first heartbeat lands.
func (s *service) EnsureExists(ctx context.Context, driverID string) (*Ambulance, error) {
	a, err := s.repo.GetByDriverID(ctx, s.db, driverID)
	if err != nil {
		a = New(driverID, driverID)
		if err := s.repo.Upsert(ctx, s.db, a); err != nil {
			return nil, domainerrors.NewInternal("failed to create ambulance", err)
		}
	}
	return a, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Ambulance, error) {
	a, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, domainerrors.AmbulanceNotFound(id)
	}
	return a, nil
}

func (s *service) GetByDriver(ctx context.Context, driverID string) (*Ambulance, error) {
	a, err := s.repo.GetByDriverID(ctx, s.db, driverID)
	if err != nil {
		return nil, domainerrors.AmbulanceNotFound(driverID)
	}
	return a, nil
}

func (s *service) Heartbeat(ctx context.Context, driverID string, lat, lng float64) (*Ambulance, error) {
	if err := common.ValidateLatLng(lat, lng); err != nil {
		return nil, domainerrors.NewValidation(err.Error())
	}

	a, err := s.EnsureExists(ctx, driverID)
	if err != nil {
		return nil, err
	}

	a.UpdateLocation(lat, lng)
	if err := s.repo.Update(ctx, s.db, a); err != nil {
		return nil, domainerrors.NewInternal("failed to update ambulance location", err)
	}

	_ = s.cache.Set(ctx, a.ID, common.NewLocation(lat, lng))

	return a, nil
}

func (s *service) SetShiftStatus(ctx context.Context, driverID string, status Status) (*Ambulance, error) {
	a, err := s.GetByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	switch status {
	case StatusOffline:
		err = a.GoOffline()
	case StatusAvailable:
		err = a.GoOnline()
	default:
		err = domainerrors.NewValidation("status must be 'available' or 'offline'")
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, s.db, a); err != nil {
		return nil, domainerrors.NewInternal("failed to update ambulance status", err)
	}
	return a, nil
}

func (s *service) GetLocation(ctx context.Context, ambulanceID string) (*common.Location, error) {
	cached, err := s.cache.Get(ctx, ambulanceID)
	if err == nil && cached != nil {
		loc := common.NewLocation(cached.Lat, cached.Lng)
		return &loc, nil
	}

	a, err := s.repo.GetByID(ctx, s.db, ambulanceID)
	if err != nil {
		return nil, domainerrors.AmbulanceNotFound(ambulanceID)
	}
	loc, ok := a.Location()
	if !ok {
		return nil, nil
	}

	_ = s.cache.Set(ctx, ambulanceID, loc)

	return &loc, nil
}

func (s *service) ListAll(ctx context.Context, status *Status, page, limit int) ([]*Ambulance, int, error) {
	return s.repo.ListAll(ctx, s.db, status, page, limit)
}
