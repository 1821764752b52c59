package usecases

import (
	"strings"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// FilterByServices keeps candidates whose service labels satisfy the
// required terms and records required/preferred match counts.
//
// A term matches a label when it is a case-insensitive substring of it. With
// matchAll every required term must match; otherwise one is enough. An empty
// required list never excludes anything. Preferred terms only add to counts.
func FilterByServices(cands []domain.Candidate, required, preferred []string, matchAll bool) []domain.Candidate {
	req := normalizeTerms(required)
	pref := normalizeTerms(preferred)

	out := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		labels := newLabelSet(c.Workshop.Services)

		requiredHits := 0
		for _, term := range req {
			if labels.match(term) {
				requiredHits++
			}
		}
		if len(req) > 0 {
			if matchAll && requiredHits < len(req) {
				continue
			}
			if !matchAll && requiredHits == 0 {
				continue
			}
		}

		preferredHits := 0
		for _, term := range pref {
			if labels.match(term) {
				preferredHits++
			}
		}

		m := matchOf(&c)
		m.MatchingServices = labels.matched
		m.RequiredMatches = requiredHits
		m.PreferredMatches = preferredHits
		m.TotalMatches = requiredHits + preferredHits
		out = append(out, c)
	}
	return out
}

// FilterBySpecialties keeps candidates with at least one specialty label
// matching any brand or specialization term. Counts are of distinct terms.
func FilterBySpecialties(cands []domain.Candidate, brands, specializations []string) []domain.Candidate {
	brandTerms := dedupe(normalizeTerms(brands))
	specTerms := dedupe(normalizeTerms(specializations))
	if len(brandTerms) == 0 && len(specTerms) == 0 {
		return cands
	}

	out := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		labels := newLabelSet(c.Workshop.Specialties)

		brandHits := 0
		for _, term := range brandTerms {
			if labels.match(term) {
				brandHits++
			}
		}
		specHits := 0
		for _, term := range specTerms {
			if labels.match(term) {
				specHits++
			}
		}
		if brandHits+specHits == 0 {
			continue
		}

		m := matchOf(&c)
		m.MatchingSpecialties = labels.matched
		m.BrandMatches = brandHits
		m.SpecializationMatches = specHits
		out = append(out, c)
	}
	return out
}

// FilterByAttributes keeps candidates passing every threshold in f.
func FilterByAttributes(cands []domain.Candidate, f domain.AttributeFilter) []domain.Candidate {
	out := cands[:0:0]
	for _, c := range cands {
		if f.Matches(c.Workshop) {
			out = append(out, c)
		}
	}
	return out
}

// FilterByAvailability attaches an availability snapshot to every candidate
// and, when openNow is set, drops those not open at the queried time.
func FilterByAvailability(cands []domain.Candidate, eval *AvailabilityEvaluator, day domain.Weekday, at string, openNow bool) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		av := eval.Evaluate(c.Workshop.WorkingHours, day, at)
		if openNow && !av.IsOpenNow {
			continue
		}
		matchOf(&c).Availability = &av
		out = append(out, c)
	}
	return out
}

func matchOf(c *domain.Candidate) *domain.MatchMetadata {
	if c.Match == nil {
		c.Match = &domain.MatchMetadata{}
	}
	return c.Match
}

// labelSet matches terms against labels and remembers which labels hit,
// in first-seen order and without duplicates.
type labelSet struct {
	labels  []string
	lower   []string
	seen    map[string]bool
	matched []string
}

func newLabelSet(labels []string) *labelSet {
	lower := make([]string, len(labels))
	for i, l := range labels {
		lower[i] = strings.ToLower(l)
	}
	return &labelSet{labels: labels, lower: lower, seen: make(map[string]bool), matched: []string{}}
}

func (s *labelSet) match(term string) bool {
	hit := false
	for i, l := range s.lower {
		if !strings.Contains(l, term) {
			continue
		}
		hit = true
		if !s.seen[s.labels[i]] {
			s.seen[s.labels[i]] = true
			s.matched = append(s.matched, s.labels[i])
		}
	}
	return hit
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func dedupe(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
