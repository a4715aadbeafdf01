package model

import "strings"

// QuerySpec is one structured, executable contact search.
// Specs are immutable once created: similar specs are never merged,
// each is executed independently.
type QuerySpec struct {
	Titles         []string `json:"titles,omitempty"`                            // Job titles (e.g., "CEO", "VP Sales")
	Keywords       []string `json:"keywords,omitempty"`                          // Free-text keywords/industries
	Seniorities    []string `json:"person_seniorities,omitempty"`                // Seniority tiers (c_suite, vp, director, manager)
	EmployeeRanges []string `json:"organization_num_employees_ranges,omitempty"` // Company size ranges (e.g., "11-50")
	Reasoning      string   `json:"reasoning,omitempty"`                         // Why this query should find good matches (audit only)
}

// Valid seniority tiers accepted by the contact search provider.
const (
	SeniorityCSuite   = "c_suite"
	SeniorityVP       = "vp"
	SeniorityDirector = "director"
	SeniorityManager  = "manager"
)

// IsEmpty reports whether the spec carries no filters at all.
// An empty spec would match the provider's entire corpus and is
// rejected at the planner boundary.
func (q QuerySpec) IsEmpty() bool {
	return len(q.Titles) == 0 && len(q.Keywords) == 0 &&
		len(q.Seniorities) == 0 && len(q.EmployeeRanges) == 0
}

// Fingerprint returns a canonical string identifying the spec's filters.
// Two specs with the same filters (reasoning excluded) share a fingerprint;
// the engine uses this to avoid re-executing an identical spec in one run.
func (q QuerySpec) Fingerprint() string {
	var b strings.Builder
	writeGroup := func(prefix string, values []string) {
		b.WriteString(prefix)
		b.WriteString("=")
		b.WriteString(strings.ToLower(strings.Join(values, ",")))
		b.WriteString(";")
	}
	writeGroup("t", q.Titles)
	writeGroup("k", q.Keywords)
	writeGroup("s", q.Seniorities)
	writeGroup("e", q.EmployeeRanges)
	return b.String()
}

// FallbackSpec returns the conservative default used when the planner
// cannot produce a seed: broad executive titles, no other filters.
func FallbackSpec() QuerySpec {
	return QuerySpec{
		Titles:      []string{"CEO", "CTO", "VP"},
		Seniorities: []string{SeniorityCSuite, SeniorityVP},
		Reasoning:   "Fallback broad search",
	}
}
