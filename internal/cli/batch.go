package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadscout/leadscout/internal/model"
	"github.com/leadscout/leadscout/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Run many search goals from a file in parallel",
	Long: `Batch runs one refinement search per goal line, concurrently:
- Read goals from the input file (one per line, # comments skipped)
- Each goal gets its own independent run with its own state
- Individual result JSON files are written per goal

Example:
  leadscout batch goals.txt
  leadscout batch goals.txt --concurrency 4 --output-dir ./leads
  leadscout batch goals.txt --product "sales automation platform" --min-results 20`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent runs")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./leadscout-results", "output directory for result files")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")

	batchCmd.Flags().StringVar(&productContext, "product", "", "description of the product/service being sold")
	batchCmd.Flags().IntVar(&maxRounds, "max-rounds", 3, "maximum search rounds per goal")
	batchCmd.Flags().IntVar(&minResults, "min-results", 10, "unique contacts needed to stop a goal early")
	batchCmd.Flags().IntVar(&perQueryCap, "per-query", 25, "max results requested per provider call")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the provider response cache")
	batchCmd.Flags().StringVar(&plannerName, "planner", "openai", "planning oracle (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&plannerModel, "planner-model", "", "planning oracle model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	bounds := model.Bounds{
		MaxRounds:   maxRounds,
		MinResults:  minResults,
		PerQueryCap: perQueryCap,
	}

	bp := worker.NewBatchProcessor(eng, bounds, productContext, concurrency)
	outcomes, err := bp.ProcessFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.Goal, outcome.Error)
			continue
		}

		path := filepath.Join(outputDir, goalFileName(outcome.Goal))
		data, err := json.MarshalIndent(outcome.Result, "", "  ")
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: encode result: %v\n", outcome.Goal, err)
			continue
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.Goal, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s: %d contacts (%s) → %s\n",
			outcome.Goal, outcome.Result.Stats.UniqueContacts, outcome.Result.Stats.Outcome, path)
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d goals, %d failed\n", len(outcomes), failed)
	if failed == len(outcomes) && len(outcomes) > 0 {
		return fmt.Errorf("all %d goals failed", failed)
	}
	return nil
}

// goalFileName derives a filesystem-safe result file name from a goal.
func goalFileName(goal string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, strings.ToLower(goal))
	safe = strings.Trim(safe, "-")
	if len(safe) > 60 {
		safe = safe[:60]
	}
	if safe == "" {
		safe = "goal"
	}
	return safe + ".json"
}
