package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lifeline/internal/gemini"
)

// fallbackDemand is the historical city-wide blood demand split, in
// percent, used when no forecast can be obtained.
var fallbackDemand = map[string]int{
	"A+": 20, "A-": 5,
	"B+": 20, "B-": 5,
	"AB+": 5, "AB-": 2,
	"O+": 35, "O-": 8,
}

// DemandForecaster predicts per-type blood demand percentages for stock
// planning. Like scoring, the completion call is best-effort with a
// deterministic fallback distribution.
type DemandForecaster struct {
	ai gemini.Completer
}

func NewDemandForecaster(ai gemini.Completer) *DemandForecaster {
	return &DemandForecaster{ai: ai}
}

func (f *DemandForecaster) Forecast(ctx context.Context, accidentsPerMonth int, festivals []string, weather string, population int) map[string]int {
	prompt := fmt.Sprintf(`As a healthcare AI expert, predict blood type demand percentages for a city based on:
- Accident history: %d incidents/month
- Festivals: %s
- Weather: %s
- Population: %d

Return a JSON object with blood type percentages summing to 100.`,
		accidentsPerMonth, strings.Join(festivals, ", "), weather, population)

	text, err := f.ai.Complete(ctx, prompt)
	if err != nil {
		return copyDemand(fallbackDemand)
	}

	raw := jsonObject.FindString(text)
	if raw == "" {
		return copyDemand(fallbackDemand)
	}

	var forecast map[string]int
	if err := json.Unmarshal([]byte(raw), &forecast); err != nil || len(forecast) == 0 {
		return copyDemand(fallbackDemand)
	}
	return forecast
}

func copyDemand(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
