package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ppiankov/calscrape/internal/logging"
	"github.com/ppiankov/calscrape/internal/model"
	"github.com/ppiankov/calscrape/internal/output"
	"github.com/ppiankov/calscrape/internal/worker"
)

var (
	cronSpec string
	runNow   bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the scrape on a cron schedule",
	Long: `Watch keeps running and triggers a scrape of the requested categories on
a cron schedule (schedule.cron, default every 6 hours). Runs never overlap: a
trigger that fires while a run is still waiting in the queue is skipped.

Example:
  calscrape watch
  calscrape watch --cron "*/30 * * * *" --category events --run-now`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addRunFlags(watchCmd)
	watchCmd.Flags().StringVar(&cronSpec, "cron", "", "five-field cron schedule (overrides schedule.cron)")
	watchCmd.Flags().BoolVar(&runNow, "run-now", false, "trigger one run immediately")
}

func runWatch(cmd *cobra.Command, args []string) error {
	categories, err := parseCategories(categoryNames)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cfg)
	if cronSpec != "" {
		cfg.Schedule.Cron = cronSpec
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger, appOptions{noCache: noCache})
	if err != nil {
		return err
	}
	writer, err := newOutputWriter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	queue := worker.NewQueue(1, logger)
	processor := worker.NewBatchProcessor(queue, a.pipeline, logger)
	trigger := newTrigger(ctx, processor, categories, writer, logger)

	scheduler, err := newScheduler(cfg.Schedule.Cron, trigger)
	if err != nil {
		queue.Shutdown()
		return err
	}

	logger.Info().
		Str("cron", cfg.Schedule.Cron).
		Interface("categories", categories).
		Msg("Watching")

	scheduler.Start()
	if runNow {
		trigger()
	}

	<-ctx.Done()
	logger.Info().Msg("Stopping scheduler")
	<-scheduler.Stop().Done()
	queue.Shutdown()
	return nil
}

// newScheduler registers trigger on a standard five-field cron schedule
func newScheduler(spec string, trigger func()) (*cron.Cron, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(spec, trigger); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return scheduler, nil
}

// newTrigger returns the scheduled action: queue one batch of categories and
// write each category as it finishes
func newTrigger(ctx context.Context, processor *worker.BatchProcessor, categories []model.Category, writer *output.Writer, logger zerolog.Logger) func() {
	handle := func(res *worker.RunResult) {
		if res.Error != nil {
			logger.Error().Err(res.Error).Str("category", string(res.Category)).Msg("Category run failed")
			return
		}
		if _, err := writeResult(ctx, writer, res); err != nil {
			logger.Error().Err(err).Str("category", string(res.Category)).Msg("Failed to write outputs")
		}
	}

	return func() {
		if _, err := processor.Trigger(categories, handle); err != nil {
			if errors.Is(err, worker.ErrQueueFull) {
				logger.Warn().Msg("Previous run still pending, skipping this trigger")
				return
			}
			logger.Error().Err(err).Msg("Failed to queue run")
			return
		}
		logger.Info().Interface("categories", categories).Msg("Run queued")
	}
}
