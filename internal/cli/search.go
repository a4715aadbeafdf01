package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadscout/leadscout/internal/cache"
	"github.com/leadscout/leadscout/internal/engine"
	"github.com/leadscout/leadscout/internal/model"
	"github.com/leadscout/leadscout/internal/planner"
	"github.com/leadscout/leadscout/internal/search"
)

var (
	productContext string
	maxRounds      int
	minResults     int
	perQueryCap    int
	outJSON        string
	timeout        time.Duration
	noCache        bool
	plannerName    string
	plannerModel   string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <goal>",
	Short: "Run one agentic contact search for a natural-language goal",
	Long: `Search plans query variants for the goal, executes them against
the contact search provider, and iteratively refines:
- Successful rounds spawn queries targeting similar profiles
- Zero-result rounds spawn broader or re-angled queries
- The run stops on enough unique contacts or at the round budget

Example:
  leadscout search "find CTOs at AI startups that need observability"
  leadscout search "find VPs of sales at fintech scale-ups" --product "sales automation platform"
  leadscout search "find ML platform leads" --max-rounds 5 --min-results 20 --json leads.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&productContext, "product", "", "description of the product/service being sold")
	searchCmd.Flags().IntVar(&maxRounds, "max-rounds", 3, "maximum search rounds")
	searchCmd.Flags().IntVar(&minResults, "min-results", 10, "unique contacts needed to stop early")
	searchCmd.Flags().IntVar(&perQueryCap, "per-query", 25, "max results requested per provider call")
	searchCmd.Flags().StringVar(&outJSON, "json", "", "write result JSON to this path (default: stdout)")
	searchCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall run timeout")
	searchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the provider response cache")

	searchCmd.Flags().StringVar(&plannerName, "planner", "openai", "planning oracle (openai, anthropic, ollama)")
	searchCmd.Flags().StringVar(&plannerModel, "planner-model", "", "planning oracle model name")
}

func runSearch(cmd *cobra.Command, args []string) error {
	goal := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	bounds := model.Bounds{
		MaxRounds:   maxRounds,
		MinResults:  minResults,
		PerQueryCap: perQueryCap,
	}

	result, err := eng.Run(ctx, goal, productContext, bounds)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d rounds executed (%s)\n", result.Stats.RoundsExecuted, result.Stats.Outcome)
		fmt.Fprintf(os.Stderr, "✓ %d unique contacts at %d organizations\n", result.Stats.UniqueContacts, result.Stats.UniqueCompanies)
	}

	return writeResult(result, outJSON)
}

// buildConfig assembles the run configuration from defaults, flags, and
// environment variables.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Output.Verbose = verbose
	cfg.Cache.Enabled = !noCache

	cfg.Provider.APIKey = os.Getenv("APOLLO_API_KEY")
	if cfg.Provider.APIKey == "" {
		return nil, fmt.Errorf("APOLLO_API_KEY environment variable not set")
	}

	cfg.Planner.Provider = plannerName
	cfg.Planner.Model = plannerModel
	switch plannerName {
	case "openai":
		cfg.Planner.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Planner.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.Planner.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Planner.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Planner.BaseURL = baseURL
		}
	}

	return cfg, nil
}

// buildEngine wires the provider client, planner adapter, and engine
// from configuration.
func buildEngine(cfg *model.Config) (*engine.Engine, error) {
	var respCache cache.Cache
	if cfg.Cache.Enabled {
		respCache = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL)
	}

	apollo, err := search.NewApolloClient(cfg.Provider, respCache, cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("provider client: %w", err)
	}

	oracle, err := planner.NewOracle(planner.ConfigFromModel(cfg.Planner))
	if err != nil {
		return nil, fmt.Errorf("planning oracle: %w", err)
	}

	return engine.New(
		search.NewExecutor(apollo),
		planner.NewAdapter(oracle, planner.ConfigFromModel(cfg.Planner)),
		cfg.Output.Verbose,
	), nil
}

func writeResult(result *model.RunResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if path == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}
	return nil
}
