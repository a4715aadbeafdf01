package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/leadscout/leadscout/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Leadscout configuration",
	Long: `Manage Leadscout configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (LEADSCOUT_*, APOLLO_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY)
3. Config file (~/.leadscout/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration including all sources (defaults, config file, env vars, flags).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := model.DefaultConfig()

		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		fmt.Println(string(yamlData))
		fmt.Println("API keys are read from the environment (APOLLO_API_KEY,")
		fmt.Println("OPENAI_API_KEY, ANTHROPIC_API_KEY) and never stored in the file.")

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.leadscout/config.yaml with all available options documented.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := home + "/.leadscout"
		configPath := configDir + "/config.yaml"

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'leadscout config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		cfg := model.DefaultConfig()
		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		header := `# Leadscout configuration
# Hierarchy: CLI flags > LEADSCOUT_* env vars > this file > defaults
# API keys come from APOLLO_API_KEY / OPENAI_API_KEY / ANTHROPIC_API_KEY.

`
		if _, err := f.WriteString(header + string(yamlData)); err != nil {
			return fmt.Errorf("error writing config file: %w", err)
		}

		fmt.Printf("Created default configuration: %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
