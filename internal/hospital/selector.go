package hospital

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	domainerrors "lifeline/internal/errors"
	"lifeline/internal/gemini"
)

// Rank orders candidates by the deterministic rule: any hospital with ICU
// beds ranks above any without, then ascending distance within the tier.
// The sort is stable so equal candidates keep input order. Blood stock is
// advisory only and never filters a candidate out.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ICUReady() != ranked[j].ICUReady() {
			return ranked[i].ICUReady()
		}
		return ranked[i].Distance < ranked[j].Distance
	})
	return ranked
}

// Selector picks a receiving hospital, consulting the completion service
// for a second opinion when one is configured. A pick the service names is
// honored; anything else (error, timeout, unrecognized id) falls back to
// the deterministic ranking.
type Selector struct {
	ai gemini.Completer
}

func NewSelector(ai gemini.Completer) *Selector {
	return &Selector{ai: ai}
}

func (s *Selector) Select(ctx context.Context, candidates []Candidate, requiredBloodType string) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, domainerrors.NoHospitalAvailable()
	}

	if picked, ok := s.askAI(ctx, candidates, requiredBloodType); ok {
		return picked, nil
	}

	return Rank(candidates)[0], nil
}

func (s *Selector) askAI(ctx context.Context, candidates []Candidate, requiredBloodType string) (Candidate, bool) {
	text, err := s.ai.Complete(ctx, selectionPrompt(candidates, requiredBloodType))
	if err != nil {
		return Candidate{}, false
	}

	for _, c := range candidates {
		if strings.Contains(text, c.ID) || (c.Name != "" && strings.Contains(text, c.Name)) {
			return c, true
		}
	}

	slog.DebugContext(ctx, "hospital pick not recognized, using ranking",
		slog.String("response", text),
	)
	return Candidate{}, false
}

func selectionPrompt(candidates []Candidate, requiredBloodType string) string {
	var b strings.Builder
	b.WriteString("Select the best hospital from these options:\n")
	for _, c := range candidates {
		stock, _ := json.Marshal(c.BloodStock)
		fmt.Fprintf(&b, "- %s (ID: %s): Distance %.1fkm, ICU beds %d, Blood: %s\n",
			c.Name, c.ID, c.Distance, c.ICUBeds, stock)
	}
	if requiredBloodType == "" {
		requiredBloodType = "Unknown"
	}
	fmt.Fprintf(&b, "Required blood: %s\n\nReturn ONLY the best hospital ID.", requiredBloodType)
	return b.String()
}
