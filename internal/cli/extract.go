package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/calscrape/internal/logging"
	"github.com/ppiankov/calscrape/internal/model"
	"github.com/ppiankov/calscrape/internal/output"
	"github.com/ppiankov/calscrape/internal/pipeline"
	"github.com/ppiankov/calscrape/internal/worker"
)

var (
	extractCategory string
	extractStrategy string
	extractFile     string
	extractJSON     string
	extractTimeout  time.Duration
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [url]",
	Short: "Extract entries from one page without touching the configured sources",
	Long: `Extract runs a single ad-hoc source through the strategy selector and
prints the resulting entries as a JSON document. With --file every URL in the
file (one per line) is extracted and the results are merged like a category run.

Example:
  calscrape extract https://www.example.org/calendar --category events
  calscrape extract https://www.example.org/classes --category classes --strategy llm_two_stage
  calscrape extract --file urls.txt --category meetings --json meetings.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractCategory, "category", "c", string(model.CategoryEvents), "category of the page")
	extractCmd.Flags().StringVarP(&extractStrategy, "strategy", "s", "", "structural, llm_single_pass or llm_two_stage (default: resolved)")
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "read URLs from a file (one per line)")
	extractCmd.Flags().StringVar(&extractJSON, "json", "-", "output JSON path (- for stdout)")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 5*time.Minute, "overall extraction timeout")
	extractCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the page cache (force fresh fetch)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	category, err := model.ParseCategory(extractCategory)
	if err != nil {
		return err
	}
	strategy, err := model.ParseStrategy(extractStrategy)
	if err != nil {
		return err
	}

	urls, err := extractURLs(args, extractFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Sources = adhocSources(urls, category, strategy)

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	a, err := newApp(cfg, logger, appOptions{noCache: noCache})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), extractTimeout)
	defer cancel()

	var doc *output.Document
	if len(cfg.Sources) == 1 {
		// A single page reports its own failure
		entries, err := a.pipeline.RunSource(ctx, cfg.Sources[0])
		if pipeline.IsBlocked(err) {
			return fmt.Errorf("%w (matches blocked_domains)", err)
		}
		if err != nil {
			return err
		}
		doc = output.NewDocument(uuid.NewString(), category, time.Now().UTC(), entries)
	} else {
		result, err := a.pipeline.Run(ctx, category)
		if err != nil {
			return err
		}
		for _, src := range result.Sources {
			if src.Error != "" {
				fmt.Fprintf(os.Stderr, "✗ %s: %s\n", src.Source, src.Error)
			}
		}
		doc = output.NewDocument(result.RunID, category, result.GeneratedAt, result.Entries)
	}

	return writeDocument(doc, extractJSON, os.Stdout)
}

// extractURLs takes the positional URL or the URLs listed in file
func extractURLs(args []string, file string) ([]string, error) {
	switch {
	case file != "" && len(args) > 0:
		return nil, fmt.Errorf("pass either a URL or --file, not both")
	case file != "":
		urls, err := worker.ReadURLsFromFile(file)
		if err != nil {
			return nil, err
		}
		if len(urls) == 0 {
			return nil, fmt.Errorf("no URLs in %s", file)
		}
		return urls, nil
	case len(args) == 1:
		return args, nil
	default:
		return nil, fmt.Errorf("a URL or --file is required")
	}
}

// adhocSources describes command-line URLs as sources of one category
func adhocSources(urls []string, category model.Category, strategy model.Strategy) []model.Source {
	sources := make([]model.Source, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, model.Source{URL: u, Category: category, Strategy: strategy})
	}
	return sources
}

// writeDocument writes doc to path, or to stdout for "-"
func writeDocument(doc *output.Document, path string, stdout io.Writer) (err error) {
	if path == "" || path == "-" {
		return output.WriteJSON(stdout, doc)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if err := output.WriteJSON(f, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ %d entries written to %s\n", doc.Count, path)
	return nil
}
