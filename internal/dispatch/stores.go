package dispatch

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"lifeline/internal/ambulance"
	"lifeline/internal/hospital"
	"lifeline/internal/redis"
	"lifeline/internal/sos"
)

// The orchestrator talks to the document store and the event fan-out
// through these seams. Production wires the sqlx repositories and the
// Redis bus; unit tests wire in-memory fakes.

type CaseStore interface {
	Create(ctx context.Context, c *sos.Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*sos.Case, error)
	Update(ctx context.Context, c *sos.Case) error
}

type AmbulanceStore interface {
	ListAvailable(ctx context.Context) ([]*ambulance.Ambulance, error)
	GetByID(ctx context.Context, id string) (*ambulance.Ambulance, error)
	Reserve(ctx context.Context, id string) (bool, error)
	LinkCase(ctx context.Context, id string, caseID uuid.UUID) error
	Release(ctx context.Context, id string) error
	ListDanglingAssigned(ctx context.Context) ([]*ambulance.Ambulance, error)
}

type HospitalStore interface {
	ListWithCoordinates(ctx context.Context) ([]*hospital.Hospital, error)
}

type EventBus interface {
	Publish(ctx context.Context, caseID string, snapshot []byte) error
	Subscribe(ctx context.Context, caseID string, onChange func(snapshot []byte)) (func(), error)
}

// --- production adapters ---

type caseStore struct {
	repo sos.Repository
	db   *sqlx.DB
}

func NewCaseStore(repo sos.Repository, db *sqlx.DB) CaseStore {
	return &caseStore{repo: repo, db: db}
}

func (s *caseStore) Create(ctx context.Context, c *sos.Case) error {
	return s.repo.Create(ctx, s.db, c)
}

func (s *caseStore) GetByID(ctx context.Context, id uuid.UUID) (*sos.Case, error) {
	return s.repo.GetByID(ctx, s.db, id)
}

func (s *caseStore) Update(ctx context.Context, c *sos.Case) error {
	return s.repo.Update(ctx, s.db, c)
}

type ambulanceStore struct {
	repo ambulance.Repository
	db   *sqlx.DB
}

func NewAmbulanceStore(repo ambulance.Repository, db *sqlx.DB) AmbulanceStore {
	return &ambulanceStore{repo: repo, db: db}
}

func (s *ambulanceStore) ListAvailable(ctx context.Context) ([]*ambulance.Ambulance, error) {
	return s.repo.ListAvailable(ctx, s.db)
}

func (s *ambulanceStore) GetByID(ctx context.Context, id string) (*ambulance.Ambulance, error) {
	return s.repo.GetByID(ctx, s.db, id)
}

func (s *ambulanceStore) Reserve(ctx context.Context, id string) (bool, error) {
	return s.repo.Reserve(ctx, s.db, id)
}

func (s *ambulanceStore) LinkCase(ctx context.Context, id string, caseID uuid.UUID) error {
	return s.repo.LinkCase(ctx, s.db, id, caseID)
}

func (s *ambulanceStore) Release(ctx context.Context, id string) error {
	return s.repo.Release(ctx, s.db, id)
}

func (s *ambulanceStore) ListDanglingAssigned(ctx context.Context) ([]*ambulance.Ambulance, error) {
	return s.repo.ListDanglingAssigned(ctx, s.db)
}

type hospitalStore struct {
	repo hospital.Repository
	db   *sqlx.DB
}

func NewHospitalStore(repo hospital.Repository, db *sqlx.DB) HospitalStore {
	return &hospitalStore{repo: repo, db: db}
}

func (s *hospitalStore) ListWithCoordinates(ctx context.Context) ([]*hospital.Hospital, error) {
	return s.repo.ListWithCoordinates(ctx, s.db)
}

var _ EventBus = (*redis.CaseEventBus)(nil)
