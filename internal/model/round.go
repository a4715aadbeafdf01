package model

import "time"

// RoundRecord is the audit trail for one executed search round.
// The engine appends one record per round regardless of outcome; the
// ordered list is the run's search history.
type RoundRecord struct {
	Round        int       `json:"round"`           // 1-based sequence index
	Spec         QuerySpec `json:"spec"`            // The spec that was executed
	ResultCount  int       `json:"result_count"`    // Raw contacts returned by the provider
	CompanyCount int       `json:"company_count"`   // Distinct organizations observed this round
	Error        string    `json:"error,omitempty"` // Provider error, if the round failed
	ExecutedAt   time.Time `json:"executed_at"`     // When the round ran
}

// Bounds are the caller-supplied limits for one run. All three must be
// positive; Run rejects invalid bounds before contacting any collaborator.
type Bounds struct {
	MaxRounds   int `json:"max_rounds"`    // Hard cap on executed rounds
	MinResults  int `json:"min_results"`   // Unique contacts needed to converge
	PerQueryCap int `json:"per_query_cap"` // Max results requested per provider call
}

// Outcome names the terminal state a run reached. Both outcomes are
// success from the caller's perspective; the distinction is informational.
type Outcome string

const (
	OutcomeConverged Outcome = "converged" // Reached MinResults unique contacts
	OutcomeExhausted Outcome = "exhausted" // Ran out of rounds, queue, or was cancelled
)

// Stats summarizes an entire run.
type Stats struct {
	RoundsExecuted   int     `json:"rounds_executed"`
	UniqueContacts   int     `json:"unique_contacts"`
	UniqueCompanies  int     `json:"unique_companies"`
	MeanPerRound     float64 `json:"mean_contacts_per_round"` // Raw contacts / rounds, 0 when no rounds ran
	Outcome          Outcome `json:"outcome"`
}

// RunResult is the final snapshot handed back to the caller. Partial
// results are always valid: a cancelled or exhausted run still returns
// everything accumulated so far.
type RunResult struct {
	Goal          string          `json:"goal"`
	Contacts      []ContactRecord `json:"contacts"`
	Organizations []string        `json:"organizations"` // Sorted, distinct
	History       []RoundRecord   `json:"history"`
	Stats         Stats           `json:"stats"`
}
