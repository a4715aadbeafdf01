// Package search executes QuerySpecs against an external contact search
// provider and isolates provider failures from the refinement engine.
package search

import (
	"context"
	"errors"

	"github.com/leadscout/leadscout/internal/model"
)

// Provider defines the interface for contact search providers. Each call
// is idempotent; the provider owns its own pagination, rate limiting, and
// backoff.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// SearchContacts executes one spec and returns at most maxResults
	// contacts. Zero results with a nil error is a valid outcome.
	SearchContacts(ctx context.Context, spec model.QuerySpec, maxResults int) ([]model.ContactRecord, error)
}

// Provider error taxonomy. The engine treats all three identically as a
// recorded round failure; none is retried inside the core.
var (
	// ErrProviderUnavailable covers network failures, auth failures,
	// and provider-side outages.
	ErrProviderUnavailable = errors.New("contact search provider unavailable")

	// ErrProviderQuotaExceeded signals the provider's rate or credit
	// limit was hit.
	ErrProviderQuotaExceeded = errors.New("contact search provider quota exceeded")

	// ErrProviderInvalidQuery signals the provider rejected the spec.
	ErrProviderInvalidQuery = errors.New("contact search provider rejected query")
)
