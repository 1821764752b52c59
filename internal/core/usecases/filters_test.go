package usecases_test

import (
	"reflect"
	"testing"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/usecases"
)

func candidates(workshops ...domain.Workshop) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(workshops))
	for i := range workshops {
		out = append(out, domain.Candidate{Workshop: &workshops[i], Match: &domain.MatchMetadata{}})
	}
	return out
}

func ids(cands []domain.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Workshop.ID)
	}
	return out
}

func TestFilterByServices_MatchAll(t *testing.T) {
	ws := sanJuanWorkshops()
	got := usecases.FilterByServices(candidates(ws...), []string{"oil", "BRAKE"}, nil, true)

	if !reflect.DeepEqual(ids(got), []string{"ws-near"}) {
		t.Fatalf("kept %v, want [ws-near]", ids(got))
	}
	m := got[0].Match
	if m.RequiredMatches != 2 || m.TotalMatches != 2 {
		t.Errorf("RequiredMatches=%d TotalMatches=%d, want 2/2", m.RequiredMatches, m.TotalMatches)
	}
	if !reflect.DeepEqual(m.MatchingServices, []string{"Oil Change", "Brake Repair"}) {
		t.Errorf("MatchingServices = %v", m.MatchingServices)
	}
}

func TestFilterByServices_MatchAny(t *testing.T) {
	ws := sanJuanWorkshops()
	got := usecases.FilterByServices(candidates(ws...), []string{"brake", "transmission"}, nil, false)

	if !reflect.DeepEqual(ids(got), []string{"ws-near", "ws-far"}) {
		t.Fatalf("kept %v, want [ws-near ws-far]", ids(got))
	}
	for _, c := range got {
		if c.Match.RequiredMatches != 1 {
			t.Errorf("%s RequiredMatches = %d, want 1", c.Workshop.ID, c.Match.RequiredMatches)
		}
	}
}

func TestFilterByServices_EmptyRequiredKeepsAll(t *testing.T) {
	ws := sanJuanWorkshops()
	got := usecases.FilterByServices(candidates(ws...), []string{" ", ""}, []string{"transmission"}, true)

	if len(got) != len(ws) {
		t.Fatalf("kept %d, want %d", len(got), len(ws))
	}
	for _, c := range got {
		want := 0
		if c.Workshop.ID == "ws-far" {
			want = 1
		}
		if c.Match.PreferredMatches != want || c.Match.TotalMatches != want {
			t.Errorf("%s preferred=%d total=%d, want %d", c.Workshop.ID, c.Match.PreferredMatches, c.Match.TotalMatches, want)
		}
	}
}

func TestFilterByServices_LabelsNotDuplicated(t *testing.T) {
	w := domain.Workshop{ID: "x", Services: []string{"Oil Change", "Synthetic Oil"}}
	got := usecases.FilterByServices(candidates(w), []string{"oil", "synthetic"}, []string{"oil"}, true)

	if len(got) != 1 {
		t.Fatalf("expected workshop kept")
	}
	if !reflect.DeepEqual(got[0].Match.MatchingServices, []string{"Oil Change", "Synthetic Oil"}) {
		t.Errorf("MatchingServices = %v", got[0].Match.MatchingServices)
	}
	if got[0].Match.TotalMatches != 3 {
		t.Errorf("TotalMatches = %d, want 3", got[0].Match.TotalMatches)
	}
}

func TestFilterBySpecialties(t *testing.T) {
	ws := sanJuanWorkshops()
	got := usecases.FilterBySpecialties(candidates(ws...), []string{"Toyota", "toyota"}, nil)

	if !reflect.DeepEqual(ids(got), []string{"ws-near", "ws-far"}) {
		t.Fatalf("kept %v", ids(got))
	}
	if got[0].Match.BrandMatches != 1 {
		t.Errorf("BrandMatches = %d, want 1 for duplicate terms", got[0].Match.BrandMatches)
	}
	if !reflect.DeepEqual(got[0].Match.MatchingSpecialties, []string{"Toyota"}) {
		t.Errorf("MatchingSpecialties = %v", got[0].Match.MatchingSpecialties)
	}
}

func TestFilterBySpecialties_NoTermsIsNoop(t *testing.T) {
	ws := sanJuanWorkshops()
	got := usecases.FilterBySpecialties(candidates(ws...), nil, []string{""})
	if len(got) != len(ws) {
		t.Errorf("kept %d, want %d", len(got), len(ws))
	}
}

func TestFilterByAttributes(t *testing.T) {
	ws := sanJuanWorkshops()

	tests := []struct {
		name string
		f    domain.AttributeFilter
		want []string
	}{
		{"none", domain.AttributeFilter{}, []string{"ws-near", "ws-mid", "ws-far"}},
		{"min rating", domain.AttributeFilter{MinRating: ptr(4.8)}, []string{"ws-mid", "ws-far"}},
		{"min reviews", domain.AttributeFilter{MinReviews: ptr(50)}, []string{"ws-mid", "ws-far"}},
		{"verified", domain.AttributeFilter{VerifiedOnly: true}, []string{"ws-near", "ws-far"}},
		{"min years excludes unknown tenure", domain.AttributeFilter{MinYearsInBusiness: ptr(1)}, []string{"ws-near"}},
		{"max years excludes unknown tenure", domain.AttributeFilter{MaxYearsInBusiness: ptr(5)}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecases.FilterByAttributes(candidates(ws...), tt.f)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("kept %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestFilterByAvailability(t *testing.T) {
	ws := sanJuanWorkshops()
	eval := newEvaluator()

	open := usecases.FilterByAvailability(candidates(ws...), eval, domain.Monday, "10:30", true)
	if !reflect.DeepEqual(ids(open), []string{"ws-near"}) {
		t.Fatalf("open now = %v, want [ws-near]", ids(open))
	}

	all := usecases.FilterByAvailability(candidates(ws...), eval, domain.Monday, "10:30", false)
	if len(all) != 3 {
		t.Fatalf("kept %d, want 3", len(all))
	}
	for _, c := range all {
		if c.Match.Availability == nil {
			t.Errorf("%s has no availability attached", c.Workshop.ID)
		}
	}
	if nt := all[1].Match.Availability.NextOpenTime; nt == nil || *nt != "12:00" {
		t.Errorf("ws-mid NextOpenTime = %v, want 12:00", nt)
	}
}
