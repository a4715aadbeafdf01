// Package engine drives the iterative search refinement loop: it plans
// query variants, executes them, learns from hits, recovers from misses,
// enforces termination bounds, and deduplicates results across rounds.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/leadscout/leadscout/internal/dedup"
	"github.com/leadscout/leadscout/internal/model"
)

// Run-level input errors. These reject the run before any round executes.
var (
	ErrEmptyGoal     = errors.New("goal must not be empty")
	ErrInvalidBounds = errors.New("bounds must be positive")
)

// SearchExecutor executes one spec and derives the distinct organization
// set. A zero-result nil-error outcome signals the engine to refine.
type SearchExecutor interface {
	Execute(ctx context.Context, spec model.QuerySpec, cap int) ([]model.ContactRecord, []string, error)
}

// Planner is the typed boundary to the planning oracle. All three
// operations fail soft: an error means "no new specs available", which
// the engine logs and absorbs without aborting the run.
type Planner interface {
	InitialQueries(ctx context.Context, goal, productContext string) ([]model.QuerySpec, error)
	ExpandFromSuccess(ctx context.Context, goal, productContext string, sample []model.ContactRecord, history []model.RoundRecord) ([]model.QuerySpec, error)
	RefineFromFailure(ctx context.Context, failedSpec model.QuerySpec, history []model.RoundRecord, goal, productContext string) ([]model.QuerySpec, error)
}

// Engine orchestrates refinement runs. It is stateless across runs:
// every Run owns its own state, so independent runs may execute
// concurrently on one Engine. Rounds within a run are strictly
// sequential because later query generation depends on earlier results.
type Engine struct {
	executor SearchExecutor
	planner  Planner
	verbose  bool
}

// New creates an engine from its two collaborators.
func New(executor SearchExecutor, planner Planner, verbose bool) *Engine {
	return &Engine{executor: executor, planner: planner, verbose: verbose}
}

// runState is the per-run mutable state. It is created at the start of
// Run, touched only by the run's goroutine, and discarded at the end;
// the caller receives only the final snapshot.
type runState struct {
	queue     []model.QuerySpec
	pending   map[string]struct{} // fingerprints queued or already executed
	contacts  map[string]model.ContactRecord
	companies map[string]struct{}
	history   []model.RoundRecord
	round     int
	rawTotal  int // raw contacts across all rounds, duplicates included
}

func newRunState() *runState {
	return &runState{
		pending:   make(map[string]struct{}),
		contacts:  make(map[string]model.ContactRecord),
		companies: make(map[string]struct{}),
	}
}

// enqueue appends specs FIFO, skipping any spec whose fingerprint was
// already queued or executed in this run.
func (st *runState) enqueue(specs []model.QuerySpec) int {
	added := 0
	for _, spec := range specs {
		fp := spec.Fingerprint()
		if _, seen := st.pending[fp]; seen {
			continue
		}
		st.pending[fp] = struct{}{}
		st.queue = append(st.queue, spec)
		added++
	}
	return added
}

func (st *runState) dequeue() model.QuerySpec {
	spec := st.queue[0]
	st.queue = st.queue[1:]
	return spec
}

func (st *runState) addCompanies(names []string) {
	for _, name := range names {
		st.companies[name] = struct{}{}
	}
}

// Run executes one refinement run for the goal and returns the final
// snapshot. Partial results are always valid: cancellation or exhaustion
// mid-run returns everything accumulated so far with a nil error.
func (e *Engine) Run(ctx context.Context, goal, productContext string, bounds model.Bounds) (*model.RunResult, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, ErrEmptyGoal
	}
	if bounds.MaxRounds <= 0 || bounds.MinResults <= 0 || bounds.PerQueryCap <= 0 {
		return nil, fmt.Errorf("%w: maxRounds=%d minResults=%d perQueryCap=%d",
			ErrInvalidBounds, bounds.MaxRounds, bounds.MinResults, bounds.PerQueryCap)
	}

	st := newRunState()

	// Seeding: if the planner cannot produce a seed, always try
	// something rather than terminating with no attempt.
	seededByFallback := false
	seeds, err := e.planner.InitialQueries(ctx, goal, productContext)
	if err != nil || len(seeds) == 0 {
		e.logf("planner seed unavailable (%v), falling back to broad default spec", err)
		seeds = []model.QuerySpec{model.FallbackSpec()}
		seededByFallback = true
	}
	st.enqueue(seeds)
	e.logf("seeded %d queries for goal: %s", len(st.queue), goal)

	outcome := model.OutcomeExhausted

	for {
		if ctx.Err() != nil {
			e.logf("run cancelled after %d rounds", st.round)
			break
		}
		if len(st.contacts) >= bounds.MinResults {
			outcome = model.OutcomeConverged
			break
		}
		if len(st.queue) == 0 || st.round >= bounds.MaxRounds {
			break
		}

		spec := st.dequeue()
		st.round++
		e.logf("round %d/%d: titles=%v keywords=%v", st.round, bounds.MaxRounds, spec.Titles, spec.Keywords)

		contacts, companies, err := e.executor.Execute(ctx, spec, bounds.PerQueryCap)
		record := model.RoundRecord{
			Round:      st.round,
			Spec:       spec,
			ExecutedAt: time.Now().UTC(),
		}

		if err != nil {
			record.Error = err.Error()
			st.history = append(st.history, record)
			if seededByFallback && st.round == 1 {
				// The planner was already unavailable and the one
				// fallback attempt failed too: nothing left to try.
				return nil, fmt.Errorf("planner unavailable and fallback search failed: %w", err)
			}
			e.logf("round %d failed: %v", st.round, err)
			continue
		}

		record.ResultCount = len(contacts)
		record.CompanyCount = len(companies)
		st.history = append(st.history, record)

		if len(contacts) > 0 {
			fp := spec.Fingerprint()
			for i := range contacts {
				contacts[i].FoundByRound = st.round
				contacts[i].FoundBySpec = fp
			}
			var added int
			st.contacts, added = dedup.Merge(st.contacts, contacts)
			st.rawTotal += len(contacts)
			st.addCompanies(companies)
			e.logf("round %d: %d contacts (%d new), %d companies", st.round, len(contacts), added, len(companies))

			if st.round < bounds.MaxRounds && len(st.contacts) < bounds.MinResults {
				expansions, err := e.planner.ExpandFromSuccess(ctx, goal, productContext, contacts, st.history)
				if err != nil {
					e.logf("no expansion available: %v", err)
				} else {
					e.logf("enqueued %d expansion queries", st.enqueue(expansions))
				}
			}
		} else {
			e.logf("round %d: no results", st.round)
			if st.round < bounds.MaxRounds {
				refinements, err := e.planner.RefineFromFailure(ctx, spec, st.history, goal, productContext)
				if err != nil {
					e.logf("no refinement available: %v", err)
				} else {
					e.logf("enqueued %d refined queries", st.enqueue(refinements))
				}
			}
		}
	}

	return st.snapshot(goal, outcome), nil
}

// snapshot freezes the run state into the caller-facing result.
func (st *runState) snapshot(goal string, outcome model.Outcome) *model.RunResult {
	contacts := make([]model.ContactRecord, 0, len(st.contacts))
	for _, c := range st.contacts {
		contacts = append(contacts, c)
	}
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].FoundByRound != contacts[j].FoundByRound {
			return contacts[i].FoundByRound < contacts[j].FoundByRound
		}
		return contacts[i].Name < contacts[j].Name
	})

	companies := make([]string, 0, len(st.companies))
	for name := range st.companies {
		companies = append(companies, name)
	}
	sort.Strings(companies)

	mean := 0.0
	if st.round > 0 {
		mean = float64(st.rawTotal) / float64(st.round)
	}

	return &model.RunResult{
		Goal:          goal,
		Contacts:      contacts,
		Organizations: companies,
		History:       st.history,
		Stats: model.Stats{
			RoundsExecuted:  st.round,
			UniqueContacts:  len(contacts),
			UniqueCompanies: len(companies),
			MeanPerRound:    mean,
			Outcome:         outcome,
		},
	}
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
