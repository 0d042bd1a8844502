package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/calscrape/internal/llm"
	"github.com/ppiankov/calscrape/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage calscrape configuration",
	Long: `Manage calscrape configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (CALSCRAPE_*)
3. Config file (~/.calscrape/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, env vars and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Current Configuration")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Println(string(yamlData))

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (CALSCRAPE_*, OPENAI_API_KEY, ANTHROPIC_API_KEY)")
		fmt.Println("  3. Config file (~/.calscrape/config.yaml)")
		fmt.Println("  4. Defaults")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.calscrape/config.yaml with an example source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			var err error
			if path, err = configPath(); err != nil {
				return err
			}
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'calscrape config show' to view it, or delete it first to recreate", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		if err := writeDefaultConfig(path); err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", path)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  calscrape config show\n")
		fmt.Printf("\nAdd your sources, then verify them with:\n")
		fmt.Printf("  calscrape config check\n")
		fmt.Printf("\n")
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate sources and reach the extraction service",
	Long: `Validate every configured source (URL, category, strategy, blocked domains)
and ping the configured extraction service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		llmCfg := llm.ApplyEnv(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		var service *llm.Service
		provider, err := llm.NewProvider(llmCfg)
		if err != nil {
			fmt.Printf("✗ extraction service: %v\n", err)
		} else {
			service = llm.NewService(provider, llmCfg, zerolog.Nop())
		}

		if problems := checkConfig(ctx, os.Stdout, cfg, service); problems > 0 {
			return fmt.Errorf("%d configuration problem(s)", problems)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}

// checkConfig reports every invalid source and an unreachable service and
// returns the number of problems. A nil service is skipped.
func checkConfig(ctx context.Context, w io.Writer, cfg *model.Config, service *llm.Service) int {
	problems := 0

	for _, src := range cfg.Sources {
		if err := src.Validate(cfg.BlockedDomains); err != nil {
			problems++
			_, _ = fmt.Fprintf(w, "✗ %v\n", err)
			continue
		}
		state := ""
		if !src.IsEnabled() {
			state = " (disabled)"
		}
		_, _ = fmt.Fprintf(w, "✓ %s [%s]%s\n", src.Label(), src.Category, state)
	}

	switch {
	case service == nil:
	case !service.Enabled():
		_, _ = fmt.Fprintln(w, "- extraction service disabled, LLM strategies fall back to structural")
	default:
		if err := service.Ping(ctx); err != nil {
			problems++
			_, _ = fmt.Fprintf(w, "✗ extraction service: %v\n", err)
		} else {
			_, _ = fmt.Fprintf(w, "✓ extraction service %s reachable\n", cfg.LLM.Provider)
		}
	}

	return problems
}

// exampleSource is written by config init so the file documents the source shape
var exampleSource = model.Source{
	ID:       "library-events",
	Name:     "Public Library Events",
	URL:      "https://www.example.org/library/events",
	Category: model.CategoryEvents,
	Strategy: model.StrategyStructural,
	Tags:     []string{"library"},
}

func writeDefaultConfig(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	// Helper for writing with error checking
	printf := func(format string, a ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	defaultCfg := model.DefaultConfig()
	defaultCfg.Sources = []model.Source{exampleSource}

	printf("# calscrape configuration file\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (CALSCRAPE_*)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n")
	printf("#\n")
	printf("# Source strategies: structural, llm_single_pass, llm_two_stage\n")
	printf("# Categories: events, classes, meetings, attractions\n\n")

	yamlData, mErr := yaml.Marshal(defaultCfg)
	if mErr != nil {
		return fmt.Errorf("error marshaling config: %w", mErr)
	}
	printf("%s", yamlData)

	printf("\n# API Keys (recommended to use environment variables instead):\n")
	printf("#   export OPENAI_API_KEY=sk-...\n")
	printf("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
	printf("#   export OLLAMA_BASE_URL=http://localhost:11434\n")

	return err
}
