package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"lifeline/internal/ambulance"
	"lifeline/internal/blood"
	"lifeline/internal/common"
	domainerrors "lifeline/internal/errors"
	"lifeline/internal/hospital"
	"lifeline/internal/sos"
	"lifeline/internal/triage"
)

// scoringDefaultBloodType is assumed when a distress signal carries no
// blood type; it only affects the advisory blood-availability input to
// scoring, never hospital eligibility.
const scoringDefaultBloodType = "O+"

type Config struct {
	EtaMinutesPerKM float64
	ReserveRetries  int
}

// Service is the dispatch orchestrator: it turns a distress signal into a
// dispatched case, owns status transitions, and feeds the live case
// subscriptions.
type Service struct {
	cases      CaseStore
	ambulances AmbulanceStore
	hospitals  HospitalStore
	events     EventBus
	selector   *hospital.Selector
	scorer     *triage.Scorer
	cfg        Config
}

func NewService(cases CaseStore, ambulances AmbulanceStore, hospitals HospitalStore, events EventBus, selector *hospital.Selector, scorer *triage.Scorer, cfg Config) *Service {
	if cfg.EtaMinutesPerKM <= 0 {
		cfg.EtaMinutesPerKM = 2
	}
	if cfg.ReserveRetries <= 0 {
		cfg.ReserveRetries = 3
	}
	return &Service{
		cases:      cases,
		ambulances: ambulances,
		hospitals:  hospitals,
		events:     events,
		selector:   selector,
		scorer:     scorer,
		cfg:        cfg,
	}
}

// CreateCase runs the full dispatch flow: nearest available ambulance,
// receiving hospital, ETA, GHS score, then the case record. The ambulance
// is reserved with a status-guarded update before anything else is
// written; every failure path after that reservation releases it so a
// retry never finds the unit stranded.
func (s *Service) CreateCase(ctx context.Context, requesterID string, location common.Location, bloodType *string) (*sos.Case, error) {
	if err := common.ValidateLatLng(location.Lat, location.Lng); err != nil {
		return nil, domainerrors.NewValidation(err.Error())
	}
	if bloodType != nil && !blood.IsValidType(*bloodType) {
		return nil, domainerrors.NewValidation("unknown blood type " + *bloodType)
	}

	unit, distanceKM, err := s.reserveNearest(ctx, location)
	if err != nil {
		return nil, err
	}

	c, err := s.dispatchReserved(ctx, requesterID, location, bloodType, unit, distanceKM)
	if err != nil {
		if relErr := s.ambulances.Release(ctx, unit.ID); relErr != nil {
			slog.ErrorContext(ctx, "failed to release ambulance after dispatch failure",
				slog.String("ambulance_id", unit.ID),
				slog.String("error", relErr.Error()),
			)
		}
		return nil, err
	}

	s.publish(ctx, c)
	return c, nil
}

// reserveNearest picks the closest available unit and flips it to
// assigned. Losing the conditional update to a concurrent dispatch
// re-runs the selection against a fresh listing.
func (s *Service) reserveNearest(ctx context.Context, location common.Location) (*ambulance.Ambulance, float64, error) {
	for attempt := 0; attempt < s.cfg.ReserveRetries; attempt++ {
		available, err := s.ambulances.ListAvailable(ctx)
		if err != nil {
			return nil, 0, domainerrors.NewInternal("failed to list ambulances", err)
		}

		unit, distanceKM, err := ambulance.Nearest(available, location)
		if err != nil {
			return nil, 0, err
		}

		reserved, err := s.ambulances.Reserve(ctx, unit.ID)
		if err != nil {
			return nil, 0, domainerrors.NewInternal("failed to reserve ambulance", err)
		}
		if reserved {
			return unit, distanceKM, nil
		}
	}
	return nil, 0, domainerrors.NoAmbulanceAvailable()
}

func (s *Service) dispatchReserved(ctx context.Context, requesterID string, location common.Location, bloodType *string, unit *ambulance.Ambulance, distanceKM float64) (*sos.Case, error) {
	all, err := s.hospitals.ListWithCoordinates(ctx)
	if err != nil {
		return nil, domainerrors.NewInternal("failed to list hospitals", err)
	}

	required := scoringDefaultBloodType
	if bloodType != nil {
		required = *bloodType
	}

	chosen, err := s.selector.Select(ctx, hospital.Candidates(all, location), required)
	if err != nil {
		return nil, err
	}

	etaMinutes := int(math.Ceil(distanceKM * s.cfg.EtaMinutesPerKM))
	eta := fmt.Sprintf("%d minutes", etaMinutes)

	result := s.scorer.Score(ctx, etaMinutes, chosen.BloodStock.Has(required), chosen.ICUReady(), chosen.Distance)

	c := sos.NewCase(requesterID, location, bloodType)
	unitLoc, _ := unit.Location()
	if err := c.Bind(unit.ID, unitLoc, chosen.ID, chosen.Name, chosen.Location, eta, result.Score); err != nil {
		return nil, err
	}

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, domainerrors.NewInternal("failed to create case", err)
	}

	if err := s.ambulances.LinkCase(ctx, unit.ID, c.ID); err != nil {
		return nil, domainerrors.NewInternal("failed to link ambulance to case", err)
	}

	return c, nil
}

// UpdateStatus applies a monotonic status transition and merges optional
// extra fields. When actorAmbulanceID is non-empty the case must be bound
// to that unit. Reaching the terminal status releases the ambulance back
// to the available pool.
func (s *Service) UpdateStatus(ctx context.Context, caseID uuid.UUID, newStatus string, labBloodType *string, actorAmbulanceID string) (*sos.Case, error) {
	status, ok := sos.ParseStatus(newStatus)
	if !ok {
		return nil, domainerrors.UnknownStatus(newStatus)
	}

	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, domainerrors.CaseNotFound(caseID.String())
	}

	if actorAmbulanceID != "" && (c.AmbulanceID == nil || *c.AmbulanceID != actorAmbulanceID) {
		return nil, domainerrors.NewForbidden("case is not assigned to this ambulance")
	}

	changed, err := c.TransitionTo(status)
	if err != nil {
		return nil, err
	}

	if labBloodType != nil {
		if !blood.IsValidType(*labBloodType) {
			return nil, domainerrors.NewValidation("unknown blood type " + *labBloodType)
		}
		if err := c.SetBloodType(*labBloodType); err != nil {
			return nil, err
		}
		changed = true
	}

	if !changed {
		return c, nil
	}

	if err := s.cases.Update(ctx, c); err != nil {
		return nil, domainerrors.NewInternal("failed to update case", err)
	}

	if c.Status.IsTerminal() && c.AmbulanceID != nil {
		if err := s.ambulances.Release(ctx, *c.AmbulanceID); err != nil {
			slog.ErrorContext(ctx, "failed to release ambulance on case close",
				slog.String("case_id", c.ID.String()),
				slog.String("ambulance_id", *c.AmbulanceID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.publish(ctx, c)
	return c, nil
}

// GetCase loads one case. When requesterID is non-empty the case must
// belong to that requester.
func (s *Service) GetCase(ctx context.Context, caseID uuid.UUID, requesterID string) (*sos.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, domainerrors.CaseNotFound(caseID.String())
	}
	if requesterID != "" && c.RequesterID != requesterID {
		return nil, domainerrors.NewForbidden("you do not own this case")
	}
	return c, nil
}

// Subscribe delivers the current snapshot (when the case already exists)
// and then every subsequent change until the returned unsubscribe func is
// called. Subscribing to a case that does not exist yet is valid; the
// callback stays silent until the first published snapshot.
func (s *Service) Subscribe(ctx context.Context, caseID uuid.UUID, onChange func(*sos.Case)) (func(), error) {
	// mu serializes deliveries so the catch-up read below can never land
	// after a fresher live event.
	var mu sync.Mutex
	live := false

	unsubscribe, err := s.events.Subscribe(ctx, caseID.String(), func(snapshot []byte) {
		var c sos.Case
		if err := json.Unmarshal(snapshot, &c); err != nil {
			slog.WarnContext(ctx, "dropping malformed case snapshot",
				slog.String("case_id", caseID.String()),
				slog.String("error", err.Error()),
			)
			return
		}
		mu.Lock()
		live = true
		onChange(&c)
		mu.Unlock()
	})
	if err != nil {
		return nil, domainerrors.NewInternal("failed to subscribe to case", err)
	}

	mu.Lock()
	if !live {
		if c, err := s.cases.GetByID(ctx, caseID); err == nil {
			onChange(c)
		}
	}
	mu.Unlock()

	return unsubscribe, nil
}

// Reconcile releases ambulances stranded in assigned with no live case —
// the window left by a crash between reservation and case creation.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	dangling, err := s.ambulances.ListDanglingAssigned(ctx)
	if err != nil {
		return 0, domainerrors.NewInternal("failed to list dangling ambulances", err)
	}

	released := 0
	for _, a := range dangling {
		if err := s.ambulances.Release(ctx, a.ID); err != nil {
			slog.ErrorContext(ctx, "failed to release dangling ambulance",
				slog.String("ambulance_id", a.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		released++
	}

	if released > 0 {
		slog.InfoContext(ctx, "released dangling ambulances", slog.Int("count", released))
	}
	return released, nil
}

func (s *Service) publish(ctx context.Context, c *sos.Case) {
	snapshot, err := json.Marshal(c)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal case snapshot",
			slog.String("case_id", c.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.events.Publish(ctx, c.ID.String(), snapshot); err != nil {
		slog.WarnContext(ctx, "failed to publish case event",
			slog.String("case_id", c.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
