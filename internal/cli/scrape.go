package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ppiankov/calscrape/internal/logging"
	"github.com/ppiankov/calscrape/internal/model"
	"github.com/ppiankov/calscrape/internal/output"
	"github.com/ppiankov/calscrape/internal/worker"
)

var (
	categoryNames []string
	outputDir     string
	noICS         bool
	s3Bucket      string
	s3Prefix      string
	noCache       bool
	runTimeout    time.Duration
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run every configured source and write one calendar per category",
	Long: `Scrape runs the configured sources of each requested category one at a
time, merges their entries, and writes <out>/<category>.json plus an optional
<category>.ics calendar. With --s3-bucket both files are also uploaded.

Example:
  calscrape scrape
  calscrape scrape --category events --category meetings --out ./site/data
  calscrape scrape --s3-bucket community-calendar --s3-prefix feeds`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	addRunFlags(scrapeCmd)
	scrapeCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall timeout for all categories (0 disables)")
}

// addRunFlags registers the flags shared by scrape and watch
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&categoryNames, "category", "c", nil, "category to run (repeatable; default: all)")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "output directory (overrides output.dir)")
	cmd.Flags().BoolVar(&noICS, "no-ics", false, "skip the .ics calendar files")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "upload outputs to this S3 bucket (overrides output.s3_bucket)")
	cmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "S3 key prefix (overrides output.s3_prefix)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the page cache (force fresh fetch)")
}

// applyRunFlags layers the run flags over the loaded configuration
func applyRunFlags(cfg *model.Config) {
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if noICS {
		cfg.Output.ICS = false
	}
	if s3Bucket != "" {
		cfg.Output.S3Bucket = s3Bucket
	}
	if s3Prefix != "" {
		cfg.Output.S3Prefix = s3Prefix
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	categories, err := parseCategories(categoryNames)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cfg)

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	a, err := newApp(cfg, logger, appOptions{noCache: noCache, progress: os.Stderr})
	if err != nil {
		return err
	}

	writer, err := newOutputWriter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  calscrape\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Categories:   %v\n", categories)
	fmt.Fprintf(os.Stderr, "  Sources:      %d\n", len(cfg.Sources))
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	if a.service.Enabled() {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	queue := worker.NewQueue(1, logger)
	stopQueue := context.AfterFunc(ctx, queue.Shutdown)
	defer stopQueue()

	processor := worker.NewBatchProcessor(queue, a.pipeline, logger)
	results, submitErr := processor.ProcessCategories(ctx, categories, nil)
	queue.Close()

	var failures []error
	if submitErr != nil {
		failures = append(failures, submitErr)
	}

	total := 0
	for _, res := range results {
		if res.Error != nil {
			failures = append(failures, res.Error)
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Category, res.Error)
			continue
		}

		written, err := writeResult(ctx, writer, res)
		if err != nil {
			failures = append(failures, err)
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write output: %v\n", res.Category, err)
			continue
		}

		total += len(res.Result.Entries)
		for _, path := range written {
			fmt.Fprintf(os.Stderr, "✓ %s\n", path)
		}
		for _, src := range res.Result.Sources {
			if src.Error != "" {
				fmt.Fprintf(os.Stderr, "  ! %s: %s\n", src.Source, src.Error)
			}
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Scrape Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Categories:  %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Entries:     %d\n", total)
	fmt.Fprintf(os.Stderr, "  Failures:    %d\n", len(failures))
	fmt.Fprintf(os.Stderr, "\n")

	return errors.Join(failures...)
}

// newOutputWriter builds the output writer, with an S3 publisher when a
// bucket is configured
func newOutputWriter(ctx context.Context, cfg *model.Config, logger zerolog.Logger) (*output.Writer, error) {
	var publisher *output.S3Publisher
	if cfg.Output.S3Bucket != "" {
		var err error
		publisher, err = output.NewS3Publisher(ctx, cfg.Output.S3Bucket, cfg.Output.S3Prefix, cfg.Output.S3Region)
		if err != nil {
			return nil, err
		}
	}
	return output.NewWriter(cfg.Output.Dir, cfg.Output.ICS, publisher, logger), nil
}

// writeResult stores one finished category run
func writeResult(ctx context.Context, writer *output.Writer, res *worker.RunResult) ([]string, error) {
	doc := output.NewDocument(res.Result.RunID, res.Category, res.Result.GeneratedAt, res.Result.Entries)
	return writer.Write(ctx, doc)
}
