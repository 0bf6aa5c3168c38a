package hospital

import (
	"time"

	"github.com/lib/pq"

	"lifeline/internal/blood"
	"lifeline/internal/common"
)

// Hospital is a receiving facility and its capacity snapshot. The dispatch
// core reads it; capacity mutations come from hospital staff.
type Hospital struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Latitude       *float64       `db:"latitude" json:"latitude,omitempty"`
	Longitude      *float64       `db:"longitude" json:"longitude,omitempty"`
	ICUBeds        int            `db:"icu_beds" json:"icu_beds"`
	BloodStock     blood.Stock    `db:"blood_stock" json:"blood_stock"`
	Specialization pq.StringArray `db:"specialization" json:"specialization"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

func New(id, name string) *Hospital {
	now := time.Now()
	return &Hospital{
		ID:         id,
		Name:       name,
		ICUBeds:    0,
		BloodStock: blood.Stock{}.Normalized(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (h *Hospital) HasLocation() bool {
	return h.Latitude != nil && h.Longitude != nil
}

func (h *Hospital) Location() (common.Location, bool) {
	if !h.HasLocation() {
		return common.Location{}, false
	}
	return common.NewLocation(*h.Latitude, *h.Longitude), true
}

func (h *Hospital) ICUReady() bool {
	return h.ICUBeds > 0
}

// Candidate is a hospital snapshot annotated with its distance to one
// request coordinate, the unit the selector ranks on.
type Candidate struct {
	ID             string
	Name           string
	Distance       float64
	ICUBeds        int
	BloodStock     blood.Stock
	Specialization []string
	Location       common.Location
}

func (c Candidate) ICUReady() bool {
	return c.ICUBeds > 0
}

// Candidates builds the candidate set for a request coordinate, skipping
// hospitals without known coordinates.
func Candidates(hospitals []*Hospital, request common.Location) []Candidate {
	out := make([]Candidate, 0, len(hospitals))
	for _, h := range hospitals {
		loc, ok := h.Location()
		if !ok {
			continue
		}
		out = append(out, Candidate{
			ID:             h.ID,
			Name:           h.Name,
			Distance:       common.HaversineDistance(request, loc),
			ICUBeds:        h.ICUBeds,
			BloodStock:     h.BloodStock.Normalized(),
			Specialization: h.Specialization,
			Location:       loc,
		})
	}
	return out
}
