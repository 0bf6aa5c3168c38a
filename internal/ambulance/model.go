package ambulance

import (
	"time"

	"github.com/google/uuid"

	"lifeline/internal/common"
	domainerrors "lifeline/internal/errors"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusAssigned  Status = "assigned"
	StatusOffline   Status = "offline"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusAvailable, StatusAssigned, StatusOffline:
		return Status(s), true
	}
	return "", false
}

// Ambulance is one dispatchable vehicle/driver pairing. Coordinates are
// null until the driver's position feed delivers the first fix.
type Ambulance struct {
	ID             string     `db:"id" json:"id"`
	DriverID       string     `db:"driver_id" json:"driver_id"`
	Status         Status     `db:"status" json:"status"`
	Latitude       *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude      *float64   `db:"longitude" json:"longitude,omitempty"`
	AssignedCaseID *uuid.UUID `db:"assigned_case_id" json:"assigned_case_id,omitempty"`
	LastUpdate     *time.Time `db:"last_update" json:"last_update,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

func New(id, driverID string) *Ambulance {
	now := time.Now()
	return &Ambulance{
		ID:        id,
		DriverID:  driverID,
		Status:    StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (a *Ambulance) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

func (a *Ambulance) Location() (common.Location, bool) {
	if !a.HasLocation() {
		return common.Location{}, false
	}
	return common.NewLocation(*a.Latitude, *a.Longitude), true
}

// Assign binds the ambulance to a case. Only an available unit may be
// assigned; at most one active case at a time.
func (a *Ambulance) Assign(caseID uuid.UUID) error {
	if a.Status != StatusAvailable {
		return domainerrors.AmbulanceNotAvailable(a.ID)
	}
	a.Status = StatusAssigned
	a.AssignedCaseID = &caseID
	a.UpdatedAt = time.Now()
	return nil
}

// Release returns the ambulance to the available pool and clears the case
// link. Safe to call on an already-available unit.
func (a *Ambulance) Release() {
	a.Status = StatusAvailable
	a.AssignedCaseID = nil
	a.UpdatedAt = time.Now()
}

// GoOffline takes the unit off shift. An assigned unit must be released
// first.
func (a *Ambulance) GoOffline() error {
	if a.Status == StatusAssigned {
		return domainerrors.NewConflict("ambulance has an active case")
	}
	a.Status = StatusOffline
	a.AssignedCaseID = nil
	a.UpdatedAt = time.Now()
	return nil
}

// GoOnline brings an offline unit back. A no-op for an available unit.
func (a *Ambulance) GoOnline() error {
	if a.Status == StatusAssigned {
		return domainerrors.NewConflict("ambulance has an active case")
	}
	a.Status = StatusAvailable
	a.UpdatedAt = time.Now()
	return nil
}

// UpdateLocation records a position fix. It never changes availability.
func (a *Ambulance) UpdateLocation(lat, lng float64) {
	a.Latitude = &lat
	a.Longitude = &lng
	now := time.Now()
	a.LastUpdate = &now
	a.UpdatedAt = now
}
