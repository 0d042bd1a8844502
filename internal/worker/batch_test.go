package worker

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
	"github.com/ppiankov/calscrape/internal/pipeline"
)

// mockRunner implements Runner
type mockRunner struct {
	mu      sync.Mutex
	calls   []model.Category
	fail    map[model.Category]bool
	started chan struct{}
	release chan struct{}
}

func (m *mockRunner) Run(ctx context.Context, category model.Category) (*pipeline.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, category)
	first := len(m.calls) == 1
	m.mu.Unlock()

	if first && m.started != nil {
		close(m.started)
	}
	if m.release != nil {
		<-m.release
	}
	if m.fail[category] {
		return nil, errors.New("run error")
	}
	return &pipeline.Result{RunID: "run-" + string(category), Category: category}, nil
}

func TestBatchProcessor_ProcessCategories(t *testing.T) {
	queue := NewQueue(1, zerolog.Nop())
	defer queue.Close()

	runner := &mockRunner{fail: map[model.Category]bool{model.CategoryMeetings: true}}
	processor := NewBatchProcessor(queue, runner, zerolog.Nop())

	var handled []model.Category
	results, err := processor.ProcessCategories(context.Background(), model.AllCategories, func(r *RunResult) {
		handled = append(handled, r.Category)
	})
	if err != nil {
		t.Fatalf("ProcessCategories: %v", err)
	}

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Category != model.AllCategories[i] {
			t.Errorf("result %d category = %s, want %s", i, res.Category, model.AllCategories[i])
		}
		wantErr := res.Category == model.CategoryMeetings
		if (res.GetError() != nil) != wantErr {
			t.Errorf("%s error = %v", res.Category, res.GetError())
		}
		if !wantErr && res.Result.RunID != "run-"+string(res.Category) {
			t.Errorf("%s run id = %s", res.Category, res.Result.RunID)
		}
	}

	if len(handled) != 4 {
		t.Errorf("handler saw %v", handled)
	}
	if len(runner.calls) != 4 || runner.calls[0] != model.CategoryEvents {
		t.Errorf("runner calls = %v", runner.calls)
	}
}

func TestBatchProcessor_ProcessCategories_Empty(t *testing.T) {
	queue := NewQueue(1, zerolog.Nop())
	defer queue.Close()

	results, err := NewBatchProcessor(queue, &mockRunner{}, zerolog.Nop()).ProcessCategories(context.Background(), nil, nil)
	if err != nil || len(results) != 0 {
		t.Errorf("expected no results, got %d, %v", len(results), err)
	}
}

func TestBatchProcessor_ProcessCategories_ClosedQueue(t *testing.T) {
	queue := NewQueue(1, zerolog.Nop())
	queue.Close()

	_, err := NewBatchProcessor(queue, &mockRunner{}, zerolog.Nop()).ProcessCategories(context.Background(), []model.Category{model.CategoryEvents}, nil)
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("error = %v, want ErrQueueClosed", err)
	}
}

func TestBatchProcessor_TriggerRejectsOverlap(t *testing.T) {
	queue := NewQueue(1, zerolog.Nop())
	defer queue.Close()

	runner := &mockRunner{started: make(chan struct{}), release: make(chan struct{})}
	processor := NewBatchProcessor(queue, runner, zerolog.Nop())
	categories := []model.Category{model.CategoryEvents, model.CategoryClasses}

	first, err := processor.Trigger(categories, nil)
	if err != nil {
		t.Fatalf("first Trigger: %v", err)
	}
	<-runner.started

	second, err := processor.Trigger(categories, nil)
	if err != nil {
		t.Fatalf("second Trigger should wait in the pending slot: %v", err)
	}
	if _, err := processor.Trigger(categories, nil); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("third Trigger error = %v, want ErrQueueFull", err)
	}

	close(runner.release)

	for _, ticket := range []<-chan Result{first, second} {
		res := (<-ticket).(*BatchResult)
		if len(res.Runs) != 2 || res.GetError() != nil {
			t.Errorf("unexpected batch result %+v", res)
		}
	}
	if len(runner.calls) != 4 {
		t.Errorf("expected 4 category runs, got %v", runner.calls)
	}
}

func TestBatchResult_GetError(t *testing.T) {
	boom := errors.New("boom")
	r := &BatchResult{Runs: []*RunResult{{Category: model.CategoryEvents}, {Category: model.CategoryClasses, Error: boom}}}
	if !errors.Is(r.GetError(), boom) {
		t.Errorf("GetError = %v", r.GetError())
	}
}

func TestReadURLsFromFile(t *testing.T) {
	content := `http://example.com
# comment
https://google.com
   
http://bing.com   
http://example.com`

	tmpfile, err := os.CreateTemp("", "urls")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	expected := []string{"http://example.com", "https://google.com", "http://bing.com"}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d URLs, got %d", len(expected), len(urls))
	}

	for i, url := range urls {
		if url != expected[i] {
			t.Errorf("expected URL %s at index %d, got %s", expected[i], i, url)
		}
	}
}

func TestReadURLsFromFile_NonExistent(t *testing.T) {
	_, err := ReadURLsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
