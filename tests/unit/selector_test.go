package unit

import (
	"context"
	"errors"
	"testing"

	"lifeline/internal/blood"
	domainerrors "lifeline/internal/errors"
	"lifeline/internal/gemini"
	"lifeline/internal/hospital"
)

// fakeCompleter returns a canned response or error.
type fakeCompleter struct {
	text string
	err  error
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func candidateSet() []hospital.Candidate {
	return []hospital.Candidate{
		{ID: "hosp-near-noicu", Name: "Near Clinic", Distance: 1.0, ICUBeds: 0, BloodStock: blood.Stock{"O+": 5}.Normalized()},
		{ID: "hosp-far-icu", Name: "Far General", Distance: 8.0, ICUBeds: 3, BloodStock: blood.Stock{}.Normalized()},
		{ID: "hosp-mid-icu", Name: "Mid Hospital", Distance: 4.0, ICUBeds: 1, BloodStock: blood.Stock{"O+": 2}.Normalized()},
	}
}

func TestRank_ICUTierDominatesDistance(t *testing.T) {
	ranked := hospital.Rank(candidateSet())

	// ICU hospitals first by distance, then the ICU-less one even though
	// it is closest overall.
	if ranked[0].ID != "hosp-mid-icu" {
		t.Fatalf("expected hosp-mid-icu first, got %s", ranked[0].ID)
	}
	if ranked[1].ID != "hosp-far-icu" {
		t.Fatalf("expected hosp-far-icu second, got %s", ranked[1].ID)
	}
	if ranked[2].ID != "hosp-near-noicu" {
		t.Fatalf("expected hosp-near-noicu last, got %s", ranked[2].ID)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := candidateSet()
	_ = hospital.Rank(in)

	if in[0].ID != "hosp-near-noicu" {
		t.Fatal("Rank must not reorder the input slice")
	}
}

func TestSelector_AIOverrideByID(t *testing.T) {
	sel := hospital.NewSelector(&fakeCompleter{text: "hosp-near-noicu"})

	picked, err := sel.Select(context.Background(), candidateSet(), "O+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if picked.ID != "hosp-near-noicu" {
		t.Fatalf("expected AI pick honored, got %s", picked.ID)
	}
}

func TestSelector_AIOverrideByName(t *testing.T) {
	sel := hospital.NewSelector(&fakeCompleter{text: "I would choose Far General for this patient."})

	picked, err := sel.Select(context.Background(), candidateSet(), "O+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if picked.ID != "hosp-far-icu" {
		t.Fatalf("expected name match honored, got %s", picked.ID)
	}
}

func TestSelector_UnrecognizedAIResponse_FallsBack(t *testing.T) {
	sel := hospital.NewSelector(&fakeCompleter{text: "hosp-does-not-exist"})

	picked, err := sel.Select(context.Background(), candidateSet(), "O+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if picked.ID != "hosp-mid-icu" {
		t.Fatalf("expected deterministic top rank, got %s", picked.ID)
	}
}

func TestSelector_AIError_FallsBack(t *testing.T) {
	sel := hospital.NewSelector(&fakeCompleter{err: errors.New("upstream down")})

	picked, err := sel.Select(context.Background(), candidateSet(), "O+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if picked.ID != "hosp-mid-icu" {
		t.Fatalf("expected deterministic top rank, got %s", picked.ID)
	}
}

func TestSelector_Disabled_FallsBack(t *testing.T) {
	sel := hospital.NewSelector(gemini.Disabled{})

	picked, err := sel.Select(context.Background(), candidateSet(), "O+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if picked.ID != "hosp-mid-icu" {
		t.Fatalf("expected deterministic top rank, got %s", picked.ID)
	}
}

func TestSelector_NoCandidates(t *testing.T) {
	sel := hospital.NewSelector(gemini.Disabled{})

	_, err := sel.Select(context.Background(), nil, "O+")
	if err == nil {
		t.Fatal("expected error")
	}
	de, ok := err.(*domainerrors.DomainError)
	if !ok {
		t.Fatalf("expected DomainError, got %T", err)
	}
	if de.Code != domainerrors.ErrNoHospital {
		t.Fatalf("expected NO_HOSPITAL_AVAILABLE, got %s", de.Code)
	}
}
