package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"lifeline/internal/gemini"
)

const (
	etaPenaltyPerMinute = 2
	noBloodPenalty      = 20
	noICUPenalty        = 15
)

var defaultFactors = []string{"Time to treatment", "Resource availability"}

// jsonObject pulls the first {...} span out of free-form completion text.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ScoreResult is a Golden Hour Survival score in [0,100] (higher is a
// better outlook) with the factors that drove it.
type ScoreResult struct {
	Score   int      `json:"score"`
	Factors []string `json:"factors"`
}

// FallbackScore is the deterministic formula and the single source of
// truth: 100 minus 2 per ETA minute, minus 20 without blood, minus 15
// without an ICU bed, clamped to [0,100].
func FallbackScore(etaMinutes int, bloodAvailable, icuReady bool) int {
	score := 100 - etaPenaltyPerMinute*etaMinutes
	if !bloodAvailable {
		score -= noBloodPenalty
	}
	if !icuReady {
		score -= noICUPenalty
	}
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Scorer computes GHS scores, optionally refined by the completion
// service. Refinement failures of any kind resolve silently to the
// deterministic formula; they never reach the caller.
type Scorer struct {
	ai gemini.Completer
}

func NewScorer(ai gemini.Completer) *Scorer {
	return &Scorer{ai: ai}
}

func (s *Scorer) Score(ctx context.Context, etaMinutes int, bloodAvailable, icuReady bool, hospitalDistanceKM float64) ScoreResult {
	if r, ok := s.refine(ctx, etaMinutes, bloodAvailable, icuReady, hospitalDistanceKM); ok {
		return r
	}
	return ScoreResult{
		Score:   FallbackScore(etaMinutes, bloodAvailable, icuReady),
		Factors: defaultFactors,
	}
}

func (s *Scorer) refine(ctx context.Context, etaMinutes int, bloodAvailable, icuReady bool, hospitalDistanceKM float64) (ScoreResult, bool) {
	prompt := fmt.Sprintf(`Calculate Golden Hour Survival Score (0-100):
- Ambulance ETA: %d
- Blood available: %t
- ICU ready: %t
- Distance: %.1f

Return JSON {"score": number, "factors": [...]}`,
		etaMinutes, bloodAvailable, icuReady, hospitalDistanceKM)

	text, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		return ScoreResult{}, false
	}

	raw := jsonObject.FindString(text)
	if raw == "" {
		return ScoreResult{}, false
	}

	var r ScoreResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return ScoreResult{}, false
	}

	r.Score = clamp(r.Score, 0, 100)
	if len(r.Factors) == 0 {
		r.Factors = defaultFactors
	}
	return r, true
}
