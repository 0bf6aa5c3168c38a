package blood

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Types lists the eight blood groups every stock mapping carries.
var Types = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func IsValidType(t string) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

// Stock maps blood type to available unit count. Stored as jsonb.
type Stock map[string]int

// Normalized returns a copy with all eight types present, missing ones at
// zero and negative counts clamped to zero.
func (s Stock) Normalized() Stock {
	out := make(Stock, len(Types))
	for _, t := range Types {
		if n, ok := s[t]; ok && n > 0 {
			out[t] = n
		} else {
			out[t] = 0
		}
	}
	return out
}

func (s Stock) Has(bloodType string) bool {
	return s[bloodType] > 0
}

func (s Stock) Value() (driver.Value, error) {
	if s == nil {
		s = Stock{}
	}
	return json.Marshal(s.Normalized())
}

func (s *Stock) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = Stock{}.Normalized()
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into blood.Stock", src)
	}
}
