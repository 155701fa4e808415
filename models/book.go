// Package models defines data structures for the abridgment engine.
package models

import (
	"strings"
	"time"
)

// BookMeta carries document-level metadata supplied by the reader and
// preserved by the writer.
type BookMeta struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Language   string `json:"language"`
	Identifier string `json:"identifier,omitempty"`
}

// Chapter is one ordered unit of the source document. Index defines document
// order and is never changed after parsing; the text is immutable, all
// transformations produce ChapterResult values instead.
type Chapter struct {
	Index int    `json:"index"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// WordCount recomputes the word count from the raw text. Upstream counts are
// never trusted.
func (c Chapter) WordCount() int {
	return len(strings.Fields(c.Text))
}

// Outcome tags how a chapter was handled.
type Outcome string

const (
	OutcomePassthrough Outcome = "passthrough"
	OutcomeSummarized  Outcome = "summarized"
	OutcomeFailed      Outcome = "failed"
)

// ChapterResult is the processing output for exactly one input chapter.
// Index matches the source chapter. For passthrough and failed chapters Text
// holds the original chapter text; a failed chapter keeps its content so the
// rebuilt book never loses material.
type ChapterResult struct {
	Index         int     `json:"index"`
	Title         string  `json:"title,omitempty"`
	Text          string  `json:"text"`
	Outcome       Outcome `json:"outcome"`
	FailureReason string  `json:"failure_reason,omitempty"`
	InputTokens   int     `json:"input_tokens,omitempty"`
	OutputTokens  int     `json:"output_tokens,omitempty"`
	Calls         int     `json:"calls,omitempty"`
}

// FailureRecord is one entry of the run's failure manifest.
type FailureRecord struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// RunResult holds the outcome of one orchestration run. Chapters is ordered
// by source index and always has one entry per input chapter. Synopsis is
// empty when the coherence pass failed; the abridged chapters remain usable
// without it.
type RunResult struct {
	Chapters    []ChapterResult `json:"chapters"`
	Synopsis    string          `json:"synopsis,omitempty"`
	Genre       GenreLabel      `json:"genre"`
	Summarized  int             `json:"summarized"`
	Passthrough int             `json:"passthrough"`
	Failed      int             `json:"failed"`
	Failures    []FailureRecord `json:"failures,omitempty"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
}

// GenreLabel selects a prompt variant for the run.
type GenreLabel string

const (
	GenreFiction    GenreLabel = "fiction"
	GenreNonfiction GenreLabel = "nonfiction"
	GenreUnknown    GenreLabel = "unknown"
)

// PricingEntry holds per-model generation prices in USD per million tokens.
type PricingEntry struct {
	InputPerMTokens  float64 `yaml:"input_per_million" json:"input_per_million"`
	OutputPerMTokens float64 `yaml:"output_per_million" json:"output_per_million"`
}

// CostEstimate is the advisory pre-flight estimate for a run. Chapter fields
// cover the per-chapter map work; overhead fields cover the coherence pass and
// genre classification and are disclosed separately. CostKnown is false when
// no pricing entry exists for the model, in which case the cost fields are
// meaningless rather than zero.
type CostEstimate struct {
	Provider             string
	Model                string
	SummarizeCount       int
	PassthroughCount     int
	ChapterInputTokens   int
	ChapterOutputTokens  int
	OverheadInputTokens  int
	OverheadOutputTokens int
	ChapterCost          float64
	OverheadCost         float64
	TotalCost            float64
	CostKnown            bool
	Pricing              PricingEntry
}

// TotalInputTokens sums chapter and overhead input tokens.
func (e CostEstimate) TotalInputTokens() int {
	return e.ChapterInputTokens + e.OverheadInputTokens
}

// TotalOutputTokens sums chapter and overhead output tokens.
func (e CostEstimate) TotalOutputTokens() int {
	return e.ChapterOutputTokens + e.OverheadOutputTokens
}
