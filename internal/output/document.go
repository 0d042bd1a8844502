package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
)

// Document is the JSON file written per category
type Document struct {
	RunID       string         `json:"run_id"`
	Category    model.Category `json:"category"`
	GeneratedAt time.Time      `json:"generated_at"`
	Count       int            `json:"count"`
	Entries     []model.Entry  `json:"entries"`
}

// NewDocument builds a document; entries are expected in start order
func NewDocument(runID string, category model.Category, generatedAt time.Time, entries []model.Entry) *Document {
	if entries == nil {
		entries = []model.Entry{}
	}
	return &Document{
		RunID:       runID,
		Category:    category,
		GeneratedAt: generatedAt.UTC(),
		Count:       len(entries),
		Entries:     entries,
	}
}

// WriteJSON writes the document as indented JSON
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode %s document: %w", doc.Category, err)
	}
	return nil
}

// Writer persists category documents to a directory and optionally S3
type Writer struct {
	dir       string
	ics       bool
	publisher *S3Publisher
	logger    zerolog.Logger
}

// NewWriter creates a writer. publisher may be nil.
func NewWriter(dir string, withICS bool, publisher *S3Publisher, logger zerolog.Logger) *Writer {
	return &Writer{dir: dir, ics: withICS, publisher: publisher, logger: logger}
}

// Write stores <dir>/<category>.json and, when enabled, <category>.ics, then
// uploads both. It returns the written paths and object keys.
func (w *Writer) Write(ctx context.Context, doc *Document) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var jsonBuf bytes.Buffer
	if err := WriteJSON(&jsonBuf, doc); err != nil {
		return nil, err
	}

	var icsData []byte
	if w.ics {
		var icsBuf bytes.Buffer
		if err := WriteICS(&icsBuf, doc.Category, doc.Entries); err != nil {
			return nil, err
		}
		icsData = icsBuf.Bytes()
	}

	base := filepath.Join(w.dir, string(doc.Category))
	written := []string{base + ".json"}
	if err := os.WriteFile(base+".json", jsonBuf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", base+".json", err)
	}
	if icsData != nil {
		if err := os.WriteFile(base+".ics", icsData, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", base+".ics", err)
		}
		written = append(written, base+".ics")
	}

	if w.publisher != nil {
		keys, err := w.publisher.Publish(ctx, doc.Category, jsonBuf.Bytes(), icsData)
		written = append(written, keys...)
		if err != nil {
			return written, err
		}
	}

	w.logger.Info().
		Str("run_id", doc.RunID).
		Str("category", string(doc.Category)).
		Int("entries", doc.Count).
		Strs("outputs", written).
		Msg("Wrote category outputs")
	return written, nil
}
