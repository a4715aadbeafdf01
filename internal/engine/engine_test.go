package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/leadscout/leadscout/internal/model"
)

type execResult struct {
	contacts []model.ContactRecord
	err      error
}

// mockExecutor replays canned results in call order and records which
// specs were executed.
type mockExecutor struct {
	results []execResult
	specs   []model.QuerySpec
	calls   int
}

func (m *mockExecutor) Execute(ctx context.Context, spec model.QuerySpec, cap int) ([]model.ContactRecord, []string, error) {
	m.specs = append(m.specs, spec)
	if m.calls >= len(m.results) {
		m.calls++
		return nil, nil, nil
	}
	res := m.results[m.calls]
	m.calls++
	if res.err != nil {
		return nil, nil, res.err
	}

	seen := make(map[string]struct{})
	var companies []string
	for _, c := range res.contacts {
		if c.Company == "" {
			continue
		}
		if _, ok := seen[c.Company]; ok {
			continue
		}
		seen[c.Company] = struct{}{}
		companies = append(companies, c.Company)
	}
	return res.contacts, companies, nil
}

type mockPlanner struct {
	seeds   []model.QuerySpec
	seedErr error

	expansions  [][]model.QuerySpec
	expandErr   error
	expandCalls int

	refinements [][]model.QuerySpec
	refineErr   error
	refineCalls int

	initialCalls int
}

func (m *mockPlanner) InitialQueries(ctx context.Context, goal, productContext string) ([]model.QuerySpec, error) {
	m.initialCalls++
	if m.seedErr != nil {
		return nil, m.seedErr
	}
	return m.seeds, nil
}

func (m *mockPlanner) ExpandFromSuccess(ctx context.Context, goal, productContext string, sample []model.ContactRecord, history []model.RoundRecord) ([]model.QuerySpec, error) {
	m.expandCalls++
	if m.expandErr != nil {
		return nil, m.expandErr
	}
	if m.expandCalls > len(m.expansions) {
		return nil, errors.New("no more expansions")
	}
	return m.expansions[m.expandCalls-1], nil
}

func (m *mockPlanner) RefineFromFailure(ctx context.Context, failedSpec model.QuerySpec, history []model.RoundRecord, goal, productContext string) ([]model.QuerySpec, error) {
	m.refineCalls++
	if m.refineErr != nil {
		return nil, m.refineErr
	}
	if m.refineCalls > len(m.refinements) {
		return nil, errors.New("no more refinements")
	}
	return m.refinements[m.refineCalls-1], nil
}

func spec(title string) model.QuerySpec {
	return model.QuerySpec{Titles: []string{title}}
}

func contact(name, email string) model.ContactRecord {
	return model.ContactRecord{Name: name, Email: email, Company: name + " Co"}
}

func contacts(prefix string, n int) []model.ContactRecord {
	out := make([]model.ContactRecord, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s-%d", prefix, i)
		out = append(out, contact(name, name+"@example.com"))
	}
	return out
}

func validBounds() model.Bounds {
	return model.Bounds{MaxRounds: 5, MinResults: 10, PerQueryCap: 25}
}

func TestRun_InvalidBounds(t *testing.T) {
	tests := []struct {
		name   string
		bounds model.Bounds
	}{
		{"zero min results", model.Bounds{MaxRounds: 3, MinResults: 0, PerQueryCap: 25}},
		{"zero max rounds", model.Bounds{MaxRounds: 0, MinResults: 10, PerQueryCap: 25}},
		{"negative per-query cap", model.Bounds{MaxRounds: 3, MinResults: 10, PerQueryCap: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &mockExecutor{}
			planner := &mockPlanner{seeds: []model.QuerySpec{spec("CEO")}}
			eng := New(executor, planner, false)

			result, err := eng.Run(context.Background(), "find founders", "", tt.bounds)
			if !errors.Is(err, ErrInvalidBounds) {
				t.Fatalf("Expected ErrInvalidBounds, got %v", err)
			}
			if result != nil {
				t.Error("Expected nil result for invalid bounds")
			}
			if planner.initialCalls != 0 || executor.calls != 0 {
				t.Errorf("Expected no collaborator calls, planner=%d executor=%d", planner.initialCalls, executor.calls)
			}
		})
	}
}

func TestRun_EmptyGoal(t *testing.T) {
	eng := New(&mockExecutor{}, &mockPlanner{}, false)

	_, err := eng.Run(context.Background(), "   ", "", validBounds())
	if !errors.Is(err, ErrEmptyGoal) {
		t.Fatalf("Expected ErrEmptyGoal, got %v", err)
	}
}

func TestRun_ConvergenceScenario(t *testing.T) {
	// Round 1 finds 3 unique contacts, expansion adds one spec, round 2
	// finds 4 more; minResults=5 is crossed, so no round 3 executes.
	executor := &mockExecutor{results: []execResult{
		{contacts: contacts("alpha", 3)},
		{contacts: contacts("beta", 4)},
	}}
	planner := &mockPlanner{
		seeds:      []model.QuerySpec{spec("CEO")},
		expansions: [][]model.QuerySpec{{spec("CTO")}},
	}
	eng := New(executor, planner, false)

	result, err := eng.Run(context.Background(), "find founders", "dev tools", model.Bounds{MaxRounds: 5, MinResults: 5, PerQueryCap: 25})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Stats.RoundsExecuted != 2 {
		t.Errorf("Expected 2 rounds executed, got %d", result.Stats.RoundsExecuted)
	}
	if len(result.Contacts) != 7 {
		t.Errorf("Expected 7 contacts, got %d", len(result.Contacts))
	}
	if result.Stats.Outcome != model.OutcomeConverged {
		t.Errorf("Expected converged outcome, got %s", result.Stats.Outcome)
	}
	if len(result.History) != 2 {
		t.Errorf("Expected history of 2, got %d", len(result.History))
	}
	if executor.calls != 2 {
		t.Errorf("Expected no further provider calls after convergence, got %d", executor.calls)
	}
}

func TestRun_ConvergenceOnFinalRound(t *testing.T) {
	// The threshold is crossed on the last allowed round, with nothing
	// left in the queue. Reaching minResults still wins over running out
	// of rounds and queue at the same moment.
	executor := &mockExecutor{results: []execResult{
		{contacts: contacts("alpha", 2)},
		{contacts: contacts("beta", 3)},
	}}
	planner := &mockPlanner{
		seeds:      []model.QuerySpec{spec("CEO")},
		expansions: [][]model.QuerySpec{{spec("CTO")}},
	}
	eng := New(executor, planner, false)

	result, err := eng.Run(context.Background(), "find founders", "", model.Bounds{MaxRounds: 2, MinResults: 5, PerQueryCap: 25})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Stats.Outcome != model.OutcomeConverged {
		t.Errorf("Expected converged outcome, got %s", result.Stats.Outcome)
	}
	if result.Stats.RoundsExecuted != 2 {
		t.Errorf("Expected 2 rounds executed, got %d", result.Stats.RoundsExecuted)
	}
	if result.Stats.UniqueContacts != 5 {
		t.Errorf("Expected 5 unique contacts, got %d", result.Stats.UniqueContacts)
	}
}

func TestRun_ExhaustionScenario(t *testing.T) {
	// Every round returns zero contacts; refinements keep the queue
	// non-empty but the loop stops at maxRounds.
	executor := &mockExecutor{}
	planner := &mockPlanner{
		seeds: []model.QuerySpec{spec("CEO")},
		refinements: [][]model.QuerySpec{
			{spec("VP Sales"), spec("Head of Sales")},
			{spec("CRO")},
		},
	}
	eng := New(executor, planner, false)

	result, err := eng.Run(context.Background(), "find founders", "", model.Bounds{MaxRounds: 2, MinResults: 10, PerQueryCap: 25})
	if err != nil {
		t.Fatalf("Expected no error on exhaustion, got %v", err)
	}

	if len(result.Contacts) != 0 {
		t.Errorf("Expected no contacts, got %d", len(result.Contacts))
	}
	if result.Stats.RoundsExecuted != 2 {
		t.Errorf("Expected 2 rounds executed, got %d", result.Stats.RoundsExecuted)
	}
	if result.Stats.Outcome != model.OutcomeExhausted {
		t.Errorf("Expected exhausted outcome, got %s", result.Stats.Outcome)
	}
	if result.Stats.MeanPerRound != 0 {
		t.Errorf("Expected mean 0 for empty rounds, got %f", result.Stats.MeanPerRound)
	}
}

func TestRun_BoundedRounds(t *testing.T) {
	for _, maxRounds := range []int{1, 2, 4} {
		executor := &mockExecutor{}
		planner := &mockPlanner{
			seeds:     []model.QuerySpec{spec("A"), spec("B"), spec("C"), spec("D"), spec("E"), spec("F")},
			refineErr: errors.New("oracle down"),
		}
		eng := New(executor, planner, false)

		result, err := eng.Run(context.Background(), "goal", "", model.Bounds{MaxRounds: maxRounds, MinResults: 100, PerQueryCap: 10})
		if err != nil {
			t.Fatalf("maxRounds=%d: unexpected error %v", maxRounds, err)
		}
		if len(result.History) > maxRounds {
			t.Errorf("maxRounds=%d: history length %d exceeds bound", maxRounds, len(result.History))
		}
	}
}

func TestRun_FIFOFairness(t *testing.T) {
	// With no failures and no expansions, the execution order equals
	// the seed order.
	seeds := []model.QuerySpec{spec("First"), spec("Second"), spec("Third")}
	executor := &mockExecutor{results: []execResult{
		{contacts: contacts("a", 1)},
		{contacts: contacts("b", 1)},
		{contacts: contacts("c", 1)},
	}}
	planner := &mockPlanner{seeds: seeds, expandErr: errors.New("oracle down")}
	eng := New(executor, planner, false)

	result, err := eng.Run(context.Background(), "goal", "", model.Bounds{MaxRounds: 3, MinResults: 100, PerQueryCap: 10})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(result.History) != 3 {
		t.Fatalf("Expected 3 rounds, got %d", len(result.History))
	}
	for i, rec := range result.History {
		if rec.Spec.Titles[0] != seeds[i].Titles[0] {
			t.Errorf("Round %d executed %q, want %q", i+1, rec.Spec.Titles[0], seeds[i].Titles[0])
		}
	}
}

func TestRun_ProviderErrorNonFatal(t *testing.T) {
	executor := &mockExecutor{results: []execResult{
		{err: errors.New("quota exceeded")},
		{contacts: contacts("a", 2)},
	}}
	planner := &mockPlanner{
		seeds:     []model.QuerySpec{spec("A"), spec("B")},
		expandErr: errors.New("oracle down"),
	}
	eng := New(executor, planner, false)

	result, err := eng.Run(context.Background(), "goal", "", model.Bounds{MaxRounds: 3, MinResults: 2, PerQueryCap: 10})
	if err != nil {
		t.Fatalf("Expected per-round error to be absorbed, got %v", err)
	}

	if len(result.History) != 2 {
		t.Fatalf("Expected 2 rounds in history, got %d", len(result.History))
	}
	if result.History[0].Error == "" {
		t.Error("Expected round 1 to record the provider error")
	}
	if result.History[1].Error != "" {
		t.Errorf("Expected round 2 to succeed, got error %q", result.History[1].Error)
	}
	if len(result.Contacts) != 2 {
		t.Errorf("Expected 2 contacts, got %d", len(result.Contacts))
	}
}

func TestRun_FallbackSeed(t *testing.T) {
	executor := &mockExecutor{results: []execResult{
		{contacts: contacts("a", 1)},
	}}
	planner := &mockPlanner{seedErr: errors.New("oracle unavailable")}
	eng := New(executor, planner, false)

	result, err := eng.Run(context.Background(), "goal", "", model.Bounds{MaxRounds: 3, MinResults: 1, PerQueryCap: 10})
	if err != nil {
		t.Fatalf("Expected fallback seed to carry the run, got %v", err)
	}

	if len(executor.specs) != 1 {
		t.Fatalf("Expected 1 executed spec, got %d", len(executor.specs))
	}
	fallback := model.FallbackSpec()
	if executor.specs[0].Fingerprint() != fallback.Fingerprint() {
		t.Errorf("Expected fallback spec to execute, got %+v", executor.specs[0])
	}
	if len(result.Contacts) != 1 {
		t.Errorf("Expected 1 contact, got %d", len(result.Contacts))
	}
}

func TestRun_FallbackSeedExecutionFails(t *testing.T) {
	executor := &mockExecutor{results: []execResult{
		{err: errors.New("provider down")},
	}}
	planner := &mockPlanner{seedErr: errors.New("oracle unavailable")}
	eng := New(executor, planner, false)

	result, err := eng.Run(context.Background(), "goal", "", validBounds())
	if err == nil {
		t.Fatal("Expected top-level error when both planner and fallback fail")
	}
	if result != nil {
		t.Error("Expected nil result on the double-failure path")
	}
}

func TestRun_CancellationReturnsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	executor := &mockExecutor{results: []execResult{
		{contacts: contacts("a", 2)},
	}}
	planner := &mockPlanner{
		seeds:      []model.QuerySpec{spec("A"), spec("B"), spec("C")},
		expansions: [][]model.QuerySpec{{spec("D")}},
	}
	// Cancel as soon as the first expansion is requested, i.e. after
	// round 1 has accumulated results.
	eng := New(executor, &cancellingPlanner{inner: planner, cancel: cancel}, false)

	result, err := eng.Run(ctx, "goal", "", model.Bounds{MaxRounds: 5, MinResults: 10, PerQueryCap: 10})
	if err != nil {
		t.Fatalf("Expected partial results on cancellation, got %v", err)
	}

	if result.Stats.RoundsExecuted != 1 {
		t.Errorf("Expected 1 round before cancellation, got %d", result.Stats.RoundsExecuted)
	}
	if len(result.Contacts) != 2 {
		t.Errorf("Expected accumulated contacts to survive cancellation, got %d", len(result.Contacts))
	}
	if result.Stats.Outcome != model.OutcomeExhausted {
		t.Errorf("Expected exhausted outcome, got %s", result.Stats.Outcome)
	}
}

// cancellingPlanner cancels the run context the first time an expansion
// is requested.
type cancellingPlanner struct {
	inner  *mockPlanner
	cancel context.CancelFunc
}

func (p *cancellingPlanner) InitialQueries(ctx context.Context, goal, productContext string) ([]model.QuerySpec, error) {
	return p.inner.InitialQueries(ctx, goal, productContext)
}

func (p *cancellingPlanner) ExpandFromSuccess(ctx context.Context, goal, productContext string, sample []model.ContactRecord, history []model.RoundRecord) ([]model.QuerySpec, error) {
	p.cancel()
	return p.inner.ExpandFromSuccess(ctx, goal, productContext, sample, history)
}

func (p *cancellingPlanner) RefineFromFailure(ctx context.Context, failedSpec model.QuerySpec, history []model.RoundRecord, goal, productContext string) ([]model.QuerySpec, error) {
	return p.inner.RefineFromFailure(ctx, failedSpec, history, goal, productContext)
}

func TestRun_NoReexecutionOfIdenticalSpec(t *testing.T) {
	// The expansion proposes the exact spec that already executed; it
	// must not re-enter the queue.
	executor := &mockExecutor{results: []execResult{
		{contacts: contacts("a", 1)},
	}}
	planner := &mockPlanner{
		seeds:      []model.QuerySpec{spec("CEO")},
		expansions: [][]model.QuerySpec{{spec("CEO")}},
	}
	eng := New(executor, planner, false)

	result, err := eng.Run(context.Background(), "goal", "", model.Bounds{MaxRounds: 5, MinResults: 10, PerQueryCap: 10})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Stats.RoundsExecuted != 1 {
		t.Errorf("Expected queue to drain after duplicate rejection, rounds=%d", result.Stats.RoundsExecuted)
	}
}

func TestRun_DeduplicatesAcrossRounds(t *testing.T) {
	shared := contact("Ada King", "ada@acme.com")
	executor := &mockExecutor{results: []execResult{
		{contacts: []model.ContactRecord{shared}},
		{contacts: []model.ContactRecord{shared, contact("Lin Wu", "lin@wu.io")}},
	}}
	planner := &mockPlanner{
		seeds:     []model.QuerySpec{spec("A"), spec("B")},
		expandErr: errors.New("oracle down"),
	}
	eng := New(executor, planner, false)

	result, err := eng.Run(context.Background(), "goal", "", model.Bounds{MaxRounds: 2, MinResults: 10, PerQueryCap: 10})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Stats.UniqueContacts != 2 {
		t.Errorf("Expected 2 unique contacts, got %d", result.Stats.UniqueContacts)
	}
	// Mean counts raw results, duplicates included: 3 raw / 2 rounds.
	if result.Stats.MeanPerRound != 1.5 {
		t.Errorf("Expected mean 1.5, got %f", result.Stats.MeanPerRound)
	}
	// First-seen provenance wins for the shared contact.
	for _, c := range result.Contacts {
		if c.Email == "ada@acme.com" && c.FoundByRound != 1 {
			t.Errorf("Expected shared contact traced to round 1, got %d", c.FoundByRound)
		}
	}
}
