package search

import (
	"context"
	"sort"

	"github.com/leadscout/leadscout/internal/model"
)

// Executor runs one QuerySpec against a Provider. It never retries:
// a provider error is returned unchanged and retry policy belongs to
// the caller, which keeps this boundary simple and testable.
type Executor struct {
	provider Provider
}

// NewExecutor creates an executor backed by the given provider.
func NewExecutor(provider Provider) *Executor {
	return &Executor{provider: provider}
}

// Execute runs the spec with the given result cap and derives the
// distinct, non-empty organization names observed in the results.
// Zero results with a nil error is a valid outcome, not a failure.
func (e *Executor) Execute(ctx context.Context, spec model.QuerySpec, cap int) ([]model.ContactRecord, []string, error) {
	contacts, err := e.provider.SearchContacts(ctx, spec, cap)
	if err != nil {
		return nil, nil, err
	}

	return contacts, distinctCompanies(contacts), nil
}

func distinctCompanies(contacts []model.ContactRecord) []string {
	seen := make(map[string]struct{})
	var companies []string
	for _, c := range contacts {
		if c.Company == "" {
			continue
		}
		if _, ok := seen[c.Company]; ok {
			continue
		}
		seen[c.Company] = struct{}{}
		companies = append(companies, c.Company)
	}
	sort.Strings(companies)
	return companies
}
