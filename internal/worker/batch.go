package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/leadscout/leadscout/internal/model"
)

// Runner defines the interface for executing one search run. Satisfied
// by engine.Engine.
type Runner interface {
	Run(ctx context.Context, goal, productContext string, bounds model.Bounds) (*model.RunResult, error)
}

// SearchJob is one goal to run.
type SearchJob struct {
	Goal           string
	ProductContext string
	Bounds         model.Bounds
	Runner         Runner
}

// Execute runs the search job.
func (j *SearchJob) Execute(ctx context.Context) Result {
	result, err := j.Runner.Run(ctx, j.Goal, j.ProductContext, j.Bounds)
	return &SearchOutcome{
		Goal:   j.Goal,
		Result: result,
		Error:  err,
	}
}

// SearchOutcome is the result of one goal's run.
type SearchOutcome struct {
	Goal   string
	Result *model.RunResult
	Error  error
}

// GetError returns the error from the run, if any.
func (r *SearchOutcome) GetError() error {
	return r.Error
}

// BatchProcessor runs multiple search goals concurrently.
type BatchProcessor struct {
	runner      Runner
	bounds      model.Bounds
	productCtx  string
	concurrency int
}

// NewBatchProcessor creates a batch processor. All goals in a batch
// share the same bounds and product context.
func NewBatchProcessor(runner Runner, bounds model.Bounds, productContext string, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		bounds:      bounds,
		productCtx:  productContext,
		concurrency: concurrency,
	}
}

// ProcessGoals runs the goals concurrently and returns one outcome per
// goal, in completion order.
func (b *BatchProcessor) ProcessGoals(ctx context.Context, goals []string) []*SearchOutcome {
	if len(goals) == 0 {
		return []*SearchOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	done := make(chan []Result, 1)
	go func() {
		for _, goal := range goals {
			pool.Submit(&SearchJob{
				Goal:           goal,
				ProductContext: b.productCtx,
				Bounds:         b.bounds,
				Runner:         b.runner,
			})
		}
		done <- pool.Wait()
	}()

	var results []Result
	select {
	case <-ctx.Done():
		pool.Shutdown()
		results = <-done
	case results = <-done:
	}

	outcomes := make([]*SearchOutcome, 0, len(results))
	for _, result := range results {
		outcomes = append(outcomes, result.(*SearchOutcome))
	}

	return outcomes
}

// ProcessFile reads goals from a file (one per line) and runs them
// concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*SearchOutcome, error) {
	goals, err := ReadGoalsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read goals: %w", err)
	}

	return b.ProcessGoals(ctx, goals), nil
}

// ReadGoalsFromFile reads goals from a file, one per line. Blank lines
// and comment lines are skipped; duplicate goals collapse.
func ReadGoalsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var goals []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			goals = append(goals, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return goals, nil
}
