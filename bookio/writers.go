package bookio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/go-abridge-books/models"
)

// Writer persists one abridgment run.
type Writer interface {
	Write(meta models.BookMeta, result *models.RunResult) error
	Close() error
	Validate() error
}

// TextWriter renders the abridged book as Markdown: metadata, the synopsis
// as a foreword when present, then every chapter in order.
type TextWriter struct {
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// NewTextWriter initialises a Markdown writer.
func NewTextWriter(filename string) (*TextWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create text file: %w", err)
	}

	return &TextWriter{
		file:   f,
		writer: bufio.NewWriter(f),
	}, nil
}

// Write renders the run result. Chapter order follows result order, which is
// source order.
func (tw *TextWriter) Write(meta models.BookMeta, result *models.RunResult) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if meta.Title != "" {
		fmt.Fprintf(tw.writer, "# %s\n\n", meta.Title)
	}
	if meta.Author != "" {
		fmt.Fprintf(tw.writer, "by %s\n\n", meta.Author)
	}
	if result.Synopsis != "" {
		fmt.Fprintf(tw.writer, "## Synopsis\n\n%s\n\n", result.Synopsis)
	}

	for _, cr := range result.Chapters {
		if cr.Title != "" {
			fmt.Fprintf(tw.writer, "## %s\n\n", cr.Title)
		} else {
			fmt.Fprintf(tw.writer, "## Chapter %d\n\n", cr.Index+1)
		}
		fmt.Fprintf(tw.writer, "%s\n\n", cr.Text)
	}

	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("flush text writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (tw *TextWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("flush text writer: %w", err)
	}
	return tw.file.Close()
}

// Validate ensures the output file has content.
func (tw *TextWriter) Validate() error {
	info, err := tw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat text file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("text file is empty")
	}
	return nil
}

// JSONLWriter writes one JSON record per chapter result, preceded by a run
// header record, for downstream tooling.
type JSONLWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONLWriter initialises the JSONL writer.
func NewJSONLWriter(filename string) (*JSONLWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create jsonl file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONLWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

type runHeader struct {
	Meta        models.BookMeta        `json:"meta"`
	Genre       models.GenreLabel      `json:"genre"`
	Synopsis    string                 `json:"synopsis,omitempty"`
	Summarized  int                    `json:"summarized"`
	Passthrough int                    `json:"passthrough"`
	Failed      int                    `json:"failed"`
	Failures    []models.FailureRecord `json:"failures,omitempty"`
}

// Write appends the run header then every chapter record.
func (jw *JSONLWriter) Write(meta models.BookMeta, result *models.RunResult) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	header := runHeader{
		Meta:        meta,
		Genre:       result.Genre,
		Synopsis:    result.Synopsis,
		Summarized:  result.Summarized,
		Passthrough: result.Passthrough,
		Failed:      result.Failed,
		Failures:    result.Failures,
	}
	if err := jw.encoder.Encode(header); err != nil {
		return fmt.Errorf("encode run header: %w", err)
	}
	for _, cr := range result.Chapters {
		if err := jw.encoder.Encode(cr); err != nil {
			return fmt.Errorf("encode chapter record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush jsonl writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush jsonl writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSONL file has data.
func (jw *JSONLWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat jsonl file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("jsonl file is empty")
	}
	return nil
}

// DualWriter writes both the Markdown book and the JSONL record stream.
type DualWriter struct {
	text  *TextWriter
	jsonl *JSONLWriter
	mu    sync.Mutex
}

// NewDualWriter creates writers for both output formats.
func NewDualWriter(textFilename, jsonlFilename string) (*DualWriter, error) {
	text, err := NewTextWriter(textFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to create text writer: %w", err)
	}

	jsonl, err := NewJSONLWriter(jsonlFilename)
	if err != nil {
		text.Close()
		return nil, fmt.Errorf("failed to create jsonl writer: %w", err)
	}

	return &DualWriter{text: text, jsonl: jsonl}, nil
}

// Write writes the run to both outputs.
func (dw *DualWriter) Write(meta models.BookMeta, result *models.RunResult) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.text.Write(meta, result); err != nil {
		return fmt.Errorf("text write failed: %w", err)
	}
	if err := dw.jsonl.Write(meta, result); err != nil {
		return fmt.Errorf("jsonl write failed: %w", err)
	}
	return nil
}

// Close closes both writers.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	var errs []error
	if err := dw.text.Close(); err != nil {
		errs = append(errs, fmt.Errorf("text close failed: %w", err))
	}
	if err := dw.jsonl.Close(); err != nil {
		errs = append(errs, fmt.Errorf("jsonl close failed: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors: %v", errs)
	}
	return nil
}

// Validate validates both output files.
func (dw *DualWriter) Validate() error {
	var errs []error
	if err := dw.text.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("text validation failed: %w", err))
	}
	if err := dw.jsonl.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("jsonl validation failed: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
