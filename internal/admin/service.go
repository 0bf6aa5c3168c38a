package admin

import (
	"context"

	"lifeline/internal/ambulance"
	"lifeline/internal/hospital"
	"lifeline/internal/sos"
	"lifeline/internal/triage"
)

// Reconciler is the dispatch orchestrator's consistency sweep, kept as a
// local interface to avoid importing the dispatch package.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

type Service interface {
	ListCases(ctx context.Context, status *sos.Status, page, limit int) ([]*sos.Case, int, error)
	ListAmbulances(ctx context.Context, status *ambulance.Status, page, limit int) ([]*ambulance.Ambulance, int, error)
	ListHospitals(ctx context.Context) ([]*hospital.Hospital, error)
	OnboardHospital(ctx context.Context, id, name string, lat, lng *float64, specialization []string) (*hospital.Hospital, error)
	Reconcile(ctx context.Context) (int, error)
	ForecastBloodDemand(ctx context.Context, accidentsPerMonth int, festivals []string, weather string, population int) map[string]int
}

type service struct {
	caseService      sos.Service
	ambulanceService ambulance.Service
	hospitalService  hospital.Service
	reconciler       Reconciler
	forecaster       *triage.DemandForecaster
}

func NewService(caseService sos.Service, ambulanceService ambulance.Service, hospitalService hospital.Service, reconciler Reconciler, forecaster *triage.DemandForecaster) Service {
	return &service{
		caseService:      caseService,
		ambulanceService: ambulanceService,
		hospitalService:  hospitalService,
		reconciler:       reconciler,
		forecaster:       forecaster,
	}
}

func (s *service) ListCases(ctx context.Context, status *sos.Status, page, limit int) ([]*sos.Case, int, error) {
	return s.caseService.ListAll(ctx, status, page, limit)
}

func (s *service) ListAmbulances(ctx context.Context, status *ambulance.Status, page, limit int) ([]*ambulance.Ambulance, int, error) {
	return s.ambulanceService.ListAll(ctx, status, page, limit)
}

func (s *service) ListHospitals(ctx context.Context) ([]*hospital.Hospital, error) {
	return s.hospitalService.ListAll(ctx)
}

func (s *service) OnboardHospital(ctx context.Context, id, name string, lat, lng *float64, specialization []string) (*hospital.Hospital, error) {
	return s.hospitalService.Onboard(ctx, id, name, lat, lng, specialization)
}

func (s *service) Reconcile(ctx context.Context) (int, error) {
	return s.reconciler.Reconcile(ctx)
}

func (s *service) ForecastBloodDemand(ctx context.Context, accidentsPerMonth int, festivals []string, weather string, population int) map[string]int {
	return s.forecaster.Forecast(ctx, accidentsPerMonth, festivals, weather, population)
}
