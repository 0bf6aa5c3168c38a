package unit

import (
	"context"
	"errors"
	"testing"

	"lifeline/internal/gemini"
	"lifeline/internal/triage"
)

func TestFallbackScore_Baseline(t *testing.T) {
	// 100 - 2*20 = 60 with blood and ICU present
	if got := triage.FallbackScore(20, true, true); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
}

func TestFallbackScore_Penalties(t *testing.T) {
	cases := []struct {
		name  string
		eta   int
		blood bool
		icu   bool
		want  int
	}{
		{"no penalties", 0, true, true, 100},
		{"no blood", 0, false, true, 80},
		{"no icu", 0, true, false, 85},
		{"no blood no icu", 0, false, false, 65},
		{"eta 20 no icu", 20, true, false, 45},
		{"everything bad", 40, false, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := triage.FallbackScore(tc.eta, tc.blood, tc.icu); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestFallbackScore_ClampsToZero(t *testing.T) {
	if got := triage.FallbackScore(200, false, false); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestFallbackScore_NonIncreasingInETA(t *testing.T) {
	prev := 101
	for eta := 0; eta <= 60; eta += 5 {
		s := triage.FallbackScore(eta, true, true)
		if s > prev {
			t.Fatalf("score rose from %d to %d at eta=%d", prev, s, eta)
		}
		prev = s
	}
}

func TestScorer_RefinedScoreUsed(t *testing.T) {
	scorer := triage.NewScorer(&fakeCompleter{text: `Here you go: {"score": 72, "factors": ["Distance"]}`})

	r := scorer.Score(context.Background(), 10, true, true, 3.0)
	if r.Score != 72 {
		t.Fatalf("expected refined 72, got %d", r.Score)
	}
	if len(r.Factors) != 1 || r.Factors[0] != "Distance" {
		t.Fatalf("expected refined factors, got %v", r.Factors)
	}
}

func TestScorer_RefinedScoreClamped(t *testing.T) {
	scorer := triage.NewScorer(&fakeCompleter{text: `{"score": 900, "factors": ["x"]}`})

	r := scorer.Score(context.Background(), 10, true, true, 3.0)
	if r.Score != 100 {
		t.Fatalf("expected clamp to 100, got %d", r.Score)
	}
}

func TestScorer_MalformedResponse_FallsBack(t *testing.T) {
	scorer := triage.NewScorer(&fakeCompleter{text: "sorry, cannot comply"})

	r := scorer.Score(context.Background(), 20, true, true, 3.0)
	if r.Score != 60 {
		t.Fatalf("expected fallback 60, got %d", r.Score)
	}
	if len(r.Factors) == 0 {
		t.Fatal("expected default factors")
	}
}

func TestScorer_AIError_FallsBack(t *testing.T) {
	scorer := triage.NewScorer(&fakeCompleter{err: errors.New("timeout")})

	r := scorer.Score(context.Background(), 0, false, false, 3.0)
	if r.Score != 65 {
		t.Fatalf("expected fallback 65, got %d", r.Score)
	}
}

func TestDemandForecaster_FallbackDistribution(t *testing.T) {
	f := triage.NewDemandForecaster(gemini.Disabled{})

	demand := f.Forecast(context.Background(), 120, []string{"harvest festival"}, "monsoon", 8_000_000)

	sum := 0
	for _, v := range demand {
		sum += v
	}
	if sum != 100 {
		t.Fatalf("expected fallback split to sum to 100, got %d", sum)
	}
	if demand["O+"] != 35 {
		t.Fatalf("expected O+ share 35, got %d", demand["O+"])
	}
}

func TestDemandForecaster_UsesForecastJSON(t *testing.T) {
	f := triage.NewDemandForecaster(&fakeCompleter{text: `{"O+": 40, "A+": 60}`})

	demand := f.Forecast(context.Background(), 10, nil, "clear", 100000)
	if demand["O+"] != 40 || demand["A+"] != 60 {
		t.Fatalf("expected forecast values, got %v", demand)
	}
}
