package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
	"github.com/ppiankov/calscrape/internal/pipeline"
)

// Runner runs one category
type Runner interface {
	Run(ctx context.Context, category model.Category) (*pipeline.Result, error)
}

// RunJob represents one category run
type RunJob struct {
	Category model.Category
	Runner   Runner
	Handle   Handler
}

// Execute executes the run job
func (j *RunJob) Execute(ctx context.Context) Result {
	res := runCategory(ctx, j.Runner, j.Category)
	if j.Handle != nil {
		j.Handle(res)
	}
	return res
}

// RunResult represents the result of a category run
type RunResult struct {
	Category model.Category
	Result   *pipeline.Result
	Duration time.Duration
	Error    error
}

// GetError returns the error from the run result
func (r *RunResult) GetError() error {
	return r.Error
}

// Handler receives each category result as soon as it completes
type Handler func(*RunResult)

// BatchJob runs several categories back to back as one queue job
type BatchJob struct {
	Categories []model.Category
	Runner     Runner
	Handle     Handler
}

// BatchResult collects the results of a BatchJob
type BatchResult struct {
	Runs []*RunResult
}

// GetError returns the first failed run's error
func (r *BatchResult) GetError() error {
	for _, run := range r.Runs {
		if run.Error != nil {
			return run.Error
		}
	}
	return nil
}

// Execute runs every category in order
func (j *BatchJob) Execute(ctx context.Context) Result {
	out := &BatchResult{}
	for _, category := range j.Categories {
		res := runCategory(ctx, j.Runner, category)
		if j.Handle != nil {
			j.Handle(res)
		}
		out.Runs = append(out.Runs, res)
	}
	return out
}

func runCategory(ctx context.Context, runner Runner, category model.Category) *RunResult {
	start := time.Now()
	result, err := runner.Run(ctx, category)
	return &RunResult{
		Category: category,
		Result:   result,
		Duration: time.Since(start),
		Error:    err,
	}
}

// BatchProcessor feeds category runs through the single-worker queue
type BatchProcessor struct {
	queue  *Queue
	runner Runner
	logger zerolog.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(queue *Queue, runner Runner, logger zerolog.Logger) *BatchProcessor {
	return &BatchProcessor{
		queue:  queue,
		runner: runner,
		logger: logger,
	}
}

// ProcessCategories submits one job per category, waiting for queue slots,
// and returns the results in category order. Submission stops at the first
// queue error; results already submitted are still collected.
func (b *BatchProcessor) ProcessCategories(ctx context.Context, categories []model.Category, handle Handler) ([]*RunResult, error) {
	if len(categories) == 0 {
		return []*RunResult{}, nil
	}

	tickets := make([]<-chan Result, 0, len(categories))
	var submitErr error
	for _, category := range categories {
		ticket, err := b.queue.SubmitWait(ctx, &RunJob{Category: category, Runner: b.runner, Handle: handle})
		if err != nil {
			submitErr = fmt.Errorf("submit %s: %w", category, err)
			break
		}
		b.logger.Debug().Str("category", string(category)).Msg("Category run queued")
		tickets = append(tickets, ticket)
	}

	results := make([]*RunResult, 0, len(tickets))
	for _, ticket := range tickets {
		res, ok := <-ticket
		if !ok {
			continue
		}
		results = append(results, res.(*RunResult))
	}

	return results, submitErr
}

// Trigger submits all categories as a single batch without waiting. It
// returns ErrQueueFull while an earlier batch is still waiting to run.
func (b *BatchProcessor) Trigger(categories []model.Category, handle Handler) (<-chan Result, error) {
	return b.queue.Submit(&BatchJob{Categories: categories, Runner: b.runner, Handle: handle})
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate URLs
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
