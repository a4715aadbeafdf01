package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leadscout/leadscout/internal/model"
)

// Per-operation caps on how many specs one oracle call may contribute.
// Longer responses are truncated, not rejected: over-generation is a soft
// policy violation, while a malformed response is a hard one.
const (
	maxInitialSpecs = 5
	maxExpandSpecs  = 3
	maxRefineSpecs  = 2

	// Newly found contacts shown to the oracle when expanding.
	expandSampleSize = 5
)

// Adapter is the typed boundary between the refinement engine and the
// planning oracle. Every oracle response is parsed strictly: anything
// that is not a JSON array of well-formed specs fails closed with an
// empty list and an error, never a partial result.
type Adapter struct {
	oracle Oracle
	config Config
}

// NewAdapter wraps an oracle. The oracle must be non-nil.
func NewAdapter(oracle Oracle, config Config) *Adapter {
	return &Adapter{oracle: oracle, config: config}
}

// OracleName returns the backing oracle's name.
func (a *Adapter) OracleName() string {
	return a.oracle.Name()
}

// InitialQueries seeds a run with 3-5 diverse specs.
func (a *Adapter) InitialQueries(ctx context.Context, goal, productContext string) ([]model.QuerySpec, error) {
	prompt := BuildInitialPrompt(goal, productContext)
	return a.complete(ctx, prompt, a.config.MaxTokens, maxInitialSpecs)
}

// ExpandFromSuccess proposes 2-3 specs targeting profiles similar to the
// given contacts. At most expandSampleSize contacts are shown.
func (a *Adapter) ExpandFromSuccess(ctx context.Context, goal, productContext string, sample []model.ContactRecord, history []model.RoundRecord) ([]model.QuerySpec, error) {
	if len(sample) > expandSampleSize {
		sample = sample[:expandSampleSize]
	}
	prompt := BuildExpandPrompt(goal, productContext, sample, history)
	return a.complete(ctx, prompt, 1500, maxExpandSpecs)
}

// RefineFromFailure proposes 1-2 broader or differently-angled specs
// after a zero-result search.
func (a *Adapter) RefineFromFailure(ctx context.Context, failedSpec model.QuerySpec, history []model.RoundRecord, goal, productContext string) ([]model.QuerySpec, error) {
	prompt := BuildRefinePrompt(failedSpec, history, goal, productContext)
	return a.complete(ctx, prompt, 1500, maxRefineSpecs)
}

func (a *Adapter) complete(ctx context.Context, prompt string, maxTokens, maxSpecs int) ([]model.QuerySpec, error) {
	resp, err := a.oracle.Complete(ctx, CompletionRequest{
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("planning oracle: %w", err)
	}

	specs, err := ParseQuerySpecs(resp.Text, maxSpecs)
	if err != nil {
		return nil, fmt.Errorf("planning oracle (%s): %w", a.oracle.Name(), err)
	}
	return specs, nil
}

// ParseQuerySpecs decodes oracle output into at most max specs. The text
// must be a JSON array of spec objects, optionally wrapped in a Markdown
// code fence. An empty array, a non-array, mistyped fields, or a spec
// with no filters at all are rejected whole.
func ParseQuerySpecs(text string, max int) ([]model.QuerySpec, error) {
	raw := stripCodeFence(text)
	if raw == "" {
		return nil, fmt.Errorf("empty response")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var specs []model.QuerySpec
	if err := dec.Decode(&specs); err != nil {
		return nil, fmt.Errorf("invalid query spec JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after query spec array")
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("oracle returned no query specs")
	}

	for i, spec := range specs {
		if spec.IsEmpty() {
			return nil, fmt.Errorf("query spec %d has no filters", i)
		}
	}

	if len(specs) > max {
		specs = specs[:max]
	}
	return specs, nil
}

// stripCodeFence removes a surrounding Markdown code fence, which chat
// oracles add around JSON despite instructions not to.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
