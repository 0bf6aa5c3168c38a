package sos

import (
	"time"

	"github.com/google/uuid"

	"lifeline/internal/common"
	domainerrors "lifeline/internal/errors"
)

type Status string

// Case lifecycle, in order. A new case is created already dispatched: an
// ambulance and hospital are bound before the record exists, and creation
// fails outright when no ambulance is available. The pending value is kept
// as the notional pre-dispatch state so the ordering is explicit.
const (
	StatusPending    Status = "pending"
	StatusDispatched Status = "dispatched"
	StatusArriving   Status = "arriving"
	StatusPicked     Status = "picked"
	StatusReached    Status = "reached"
)

var statusRank = map[Status]int{
	StatusPending:    0,
	StatusDispatched: 1,
	StatusArriving:   2,
	StatusPicked:     3,
	StatusReached:    4,
}

func ParseStatus(s string) (Status, bool) {
	_, ok := statusRank[Status(s)]
	return Status(s), ok
}

func (s Status) IsTerminal() bool {
	return s == StatusReached
}

// Case is one SOS dispatch record tracking a patient, ambulance, hospital,
// and status through to completion.
type Case struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RequesterID  string    `db:"requester_id" json:"requester_id"`
	Lat          float64   `db:"lat" json:"lat"`
	Lng          float64   `db:"lng" json:"lng"`
	BloodType    *string   `db:"blood_type" json:"blood_type,omitempty"`
	Status       Status    `db:"status" json:"status"`
	AmbulanceID  *string   `db:"ambulance_id" json:"ambulance_id,omitempty"`
	HospitalID   *string   `db:"hospital_id" json:"hospital_id,omitempty"`
	HospitalName *string   `db:"hospital_name" json:"hospital_name,omitempty"`
	HospitalLat  *float64  `db:"hospital_lat" json:"hospital_lat,omitempty"`
	HospitalLng  *float64  `db:"hospital_lng" json:"hospital_lng,omitempty"`
	AmbulanceLat *float64  `db:"ambulance_lat" json:"ambulance_lat,omitempty"`
	AmbulanceLng *float64  `db:"ambulance_lng" json:"ambulance_lng,omitempty"`
	ETA          *string   `db:"eta" json:"eta,omitempty"`
	GHSScore     int       `db:"ghs_score" json:"ghs_score"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func NewCase(requesterID string, location common.Location, bloodType *string) *Case {
	now := time.Now()
	return &Case{
		ID:          uuid.New(),
		RequesterID: requesterID,
		Lat:         location.Lat,
		Lng:         location.Lng,
		BloodType:   bloodType,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (c *Case) Location() common.Location {
	return common.NewLocation(c.Lat, c.Lng)
}

// Bind attaches the dispatch outcome and moves the case to dispatched.
func (c *Case) Bind(ambulanceID string, ambulanceLoc common.Location, hospitalID, hospitalName string, hospitalLoc common.Location, eta string, score int) error {
	if c.Status != StatusPending {
		return domainerrors.NewInvalidTransition(string(c.Status), string(StatusDispatched))
	}
	c.AmbulanceID = &ambulanceID
	c.AmbulanceLat = &ambulanceLoc.Lat
	c.AmbulanceLng = &ambulanceLoc.Lng
	c.HospitalID = &hospitalID
	c.HospitalName = &hospitalName
	c.HospitalLat = &hospitalLoc.Lat
	c.HospitalLng = &hospitalLoc.Lng
	c.ETA = &eta
	c.GHSScore = clampScore(score)
	c.Status = StatusDispatched
	c.UpdatedAt = time.Now()
	return nil
}

// TransitionTo enforces the monotonic status order. Resubmitting the
// current status is a success no-op (changed=false); a backward or
// unrecognized status fails with INVALID_TRANSITION. Once reached, the
// case is closed and only the no-op resubmission is accepted.
func (c *Case) TransitionTo(next Status) (changed bool, err error) {
	nextRank, ok := statusRank[next]
	if !ok {
		return false, domainerrors.UnknownStatus(string(next))
	}
	currentRank := statusRank[c.Status]
	if nextRank == currentRank {
		return false, nil
	}
	if nextRank < currentRank {
		return false, domainerrors.NewInvalidTransition(string(c.Status), string(next))
	}
	c.Status = next
	c.UpdatedAt = time.Now()
	return true, nil
}

// SetBloodType merges a lab-determined blood type into an open case.
func (c *Case) SetBloodType(bloodType string) error {
	if c.Status.IsTerminal() {
		return domainerrors.CaseClosed(c.ID.String())
	}
	c.BloodType = &bloodType
	c.UpdatedAt = time.Now()
	return nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
