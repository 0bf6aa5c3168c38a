package ambulance

import (
	"lifeline/internal/common"
	domainerrors "lifeline/internal/errors"
)

// Nearest scans the given ambulances and returns the available unit with a
// known location closest to loc, plus its distance in kilometers. Ties keep
// the first candidate encountered; callers must not read meaning into that
// order. Returns NO_AMBULANCE_AVAILABLE when no unit qualifies.
func Nearest(ambulances []*Ambulance, loc common.Location) (*Ambulance, float64, error) {
	var (
		best        *Ambulance
		minDistance float64
	)

	for _, a := range ambulances {
		if a.Status != StatusAvailable {
			continue
		}
		aLoc, ok := a.Location()
		if !ok {
			continue
		}
		d := common.HaversineDistance(loc, aLoc)
		if best == nil || d < minDistance {
			best = a
			minDistance = d
		}
	}

	if best == nil {
		return nil, 0, domainerrors.NoAmbulanceAvailable()
	}
	return best, minDistance, nil
}
