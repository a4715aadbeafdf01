package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leadscout/leadscout/internal/model"
)

const systemPrompt = "You are an expert at B2B lead generation and structured contact searches. You respond only with valid JSON."

const specFormat = `[
  {
    "titles": ["CEO", "Founder"],
    "keywords": ["AI", "machine learning"],
    "person_seniorities": ["c_suite"],
    "organization_num_employees_ranges": ["11-50", "51-200"],
    "reasoning": "Target AI startup founders and CEOs at small-medium companies"
  }
]`

// BuildInitialPrompt constructs the prompt seeding a run with 3-5
// diverse queries.
func BuildInitialPrompt(goal, productContext string) string {
	return fmt.Sprintf(`You are an expert at B2B lead generation and contact searches.

User Query: %s
Product/Service: %s

Generate 3-5 diverse, targeted search queries to find the best contacts.

For each query, provide:
1. titles: List of job titles (CEO, CTO, VP Sales, etc.)
2. keywords: List of relevant keywords/industries (AI, SaaS, FinTech, etc.)
3. person_seniorities: List of seniority levels (c_suite, vp, director, manager)
4. organization_num_employees_ranges: List of company size ranges (1-10, 11-50, 51-200, 201-500, 501-1000, 1001-5000, 5001-10000, 10001+)
5. reasoning: Why this query will find good matches

Be specific and diverse. Use different combinations to maximize coverage.

Return ONLY a valid JSON array of query objects. No other text.

Format:
%s`, goal, orUnspecified(productContext), specFormat)
}

// BuildExpandPrompt constructs the prompt proposing 2-3 queries that
// target profiles similar to recently found contacts.
func BuildExpandPrompt(goal, productContext string, sample []model.ContactRecord, history []model.RoundRecord) string {
	var summary strings.Builder
	for _, c := range sample {
		fmt.Fprintf(&summary, "- %s at %s (Industry: %s)\n",
			orUnknown(c.Title), orUnknown(c.Company), orUnknown(c.Industry))
	}

	return fmt.Sprintf(`You found some good matches! Now generate 2-3 MORE search queries to find SIMILAR contacts.

Original Query: %s
Product: %s

Successful Matches Found:
%s
Previous Searches:
%s

Based on these successful matches, generate 2-3 NEW search queries that will find SIMILAR contacts.
Look for patterns in:
- Job titles and functions
- Industries and keywords
- Company sizes
- Seniority levels

Return ONLY a valid JSON array. No other text.

Format:
%s`, goal, orUnspecified(productContext), summary.String(), historyJSON(history), specFormat)
}

// BuildRefinePrompt constructs the prompt proposing 1-2 broader or
// differently-angled queries after a zero-result search.
func BuildRefinePrompt(failedSpec model.QuerySpec, history []model.RoundRecord, goal, productContext string) string {
	failed, _ := json.MarshalIndent(failedSpec, "", "  ")

	return fmt.Sprintf(`A search returned 0 results. Help refine it.

Original User Query: %s
Product: %s

Failed Search:
%s

Search History:
%s

Why might this search have failed? Generate 2 alternative searches that are:
1. Broader (fewer filters, more general titles)
2. Different angle (different job functions that might have same needs)

Return ONLY a valid JSON array. No other text.

Format:
%s`, goal, orUnspecified(productContext), string(failed), historyJSON(history), specFormat)
}

func historyJSON(history []model.RoundRecord) string {
	if len(history) == 0 {
		return "(none)"
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "(unavailable)"
	}
	return string(data)
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
