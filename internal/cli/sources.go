package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ppiankov/calscrape/internal/extract/adapters"
	"github.com/ppiankov/calscrape/internal/model"
)

var sourcesJSON bool

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured sources",
	Long: `List every source from the configuration file with the strategy it will
run with, whether it is enabled, and whether its URL is on a blocked domain.

Example:
  calscrape sources
  calscrape sources --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := newApp(cfg, zerolog.Nop(), appOptions{noCache: true})
		if err != nil {
			return err
		}

		rows := describeSources(cfg, a.selector)
		if sourcesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		printSources(os.Stdout, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "print as JSON")
}

type sourceRow struct {
	ID       string         `json:"id"`
	Category model.Category `json:"category"`
	Strategy model.Strategy `json:"strategy"`
	Enabled  bool           `json:"enabled"`
	Blocked  bool           `json:"blocked"`
	URL      string         `json:"url"`
}

func describeSources(cfg *model.Config, selector *adapters.Selector) []sourceRow {
	rows := make([]sourceRow, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		rows = append(rows, sourceRow{
			ID:       src.Label(),
			Category: src.Category,
			Strategy: selector.Resolve(src),
			Enabled:  src.IsEnabled(),
			Blocked:  model.IsBlockedURL(src.URL, cfg.BlockedDomains),
			URL:      src.URL,
		})
	}
	return rows
}

func printSources(w io.Writer, rows []sourceRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No sources configured (add a sources: list to the config file)")
		return
	}

	_, _ = fmt.Fprintf(w, "%-24s %-12s %-16s %-8s %s\n", "SOURCE", "CATEGORY", "STRATEGY", "STATE", "URL")
	for _, r := range rows {
		state := "enabled"
		switch {
		case r.Blocked:
			state = "blocked"
		case !r.Enabled:
			state = "disabled"
		}
		_, _ = fmt.Fprintf(w, "%-24s %-12s %-16s %-8s %s\n", r.ID, r.Category, r.Strategy, state, r.URL)
	}
}
