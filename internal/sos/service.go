package sos

import (
	"context"

	"github.com/jmoiron/sqlx"

	domainerrors "lifeline/internal/errors"
)

// Service covers the read side of cases; mutations go through the
// dispatch orchestrator.
type Service interface {
	ListByRequester(ctx context.Context, requesterID string) ([]*Case, error)
	GetActiveByAmbulance(ctx context.Context, ambulanceID string) (*Case, error)
	ListActiveByHospital(ctx context.Context, hospitalID string) ([]*Case, error)
	ListAll(ctx context.Context, status *Status, page, limit int) ([]*Case, int, error)
}

type service struct {
	repo Repository
	db   *sqlx.DB
}

func NewService(repo Repository, db *sqlx.DB) Service {
	return &service{repo: repo, db: db}
}

func (s *service) ListByRequester(ctx context.Context, requesterID string) ([]*Case, error) {
	return s.repo.ListByRequester(ctx, s.db, requesterID)
}

func (s *service) GetActiveByAmbulance(ctx context.Context, ambulanceID string) (*Case, error) {
	c, err := s.repo.GetActiveByAmbulance(ctx, s.db, ambulanceID)
	if err != nil {
		return nil, domainerrors.NewNotFound("case", "assigned to ambulance "+ambulanceID)
	}
	return c, nil
}

func (s *service) ListActiveByHospital(ctx context.Context, hospitalID string) ([]*Case, error) {
	return s.repo.ListActiveByHospital(ctx, s.db, hospitalID)
}

func (s *service) ListAll(ctx context.Context, status *Status, page, limit int) ([]*Case, int, error) {
	return s.repo.ListAll(ctx, s.db, status, page, limit)
}
