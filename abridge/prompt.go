package abridge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aluiziolira/go-abridge-books/models"
)

// LengthSpec is a named compression target. Percent is the requested output
// length as a percentage of the chapter's original word count.
type LengthSpec struct {
	Key     string
	Percent int
}

// Target returns the compression target as a fraction, e.g. 25 -> 0.25.
func (s LengthSpec) Target() float64 {
	return float64(s.Percent) / 100
}

var presets = map[string]LengthSpec{
	"very_short": {Key: "very_short", Percent: 10},
	"short":      {Key: "short", Percent: 25},
	"medium":     {Key: "medium", Percent: 40},
	"long":       {Key: "long", Percent: 60},
}

// Preset resolves a named length preset.
func Preset(key string) (LengthSpec, error) {
	spec, ok := presets[key]
	if !ok {
		return LengthSpec{}, fmt.Errorf("unknown length preset %q (valid: %s)", key, strings.Join(PresetKeys(), ", "))
	}
	return spec, nil
}

// PresetKeys lists the valid preset names in stable order.
func PresetKeys() []string {
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const fictionDirective = "Preserve the narrative voice, point of view, and tone of the original. Keep key plot events, character moments, and dialogue that carries the story."

const nonfictionDirective = "Preserve the author's argument structure and key evidence. Keep definitions, conclusions, and examples essential to the chapter's point."

const neutralDirective = "Preserve the voice and intent of the original text. Keep the points a reader needs to follow the rest of the book."

// wordBounds computes the word window requested from the generator: the
// upper bound is the compression target applied to the chapter's word count,
// the lower bound sits ten percentage points below it, with floors so tiny
// chapters still get a workable range.
func (s LengthSpec) wordBounds(wordCount int) (lower, upper int) {
	upper = wordCount * s.Percent / 100
	if upper < 50 {
		upper = 50
	}
	lowerPct := s.Percent - 10
	if lowerPct < 10 {
		lowerPct = 10
	}
	lower = wordCount * lowerPct / 100
	if lower < 25 {
		lower = 25
	}
	if lower > upper {
		lower = upper
	}
	return lower, upper
}

// MaxOutputTokens derives a per-request output cap from the upper word
// bound. Two tokens per word leaves slack for tokenization overhead without
// letting a runaway completion blow the budget.
func (s LengthSpec) MaxOutputTokens(wordCount int) int {
	_, upper := s.wordBounds(wordCount)
	return upper * 2
}

// MapPrompt builds the per-chapter compression prompt with an explicit word
// window for the requested length.
func MapPrompt(genre models.GenreLabel, spec LengthSpec, ch models.Chapter) string {
	lower, upper := spec.wordBounds(ch.WordCount())

	directive := neutralDirective
	switch genre {
	case models.GenreFiction:
		directive = fictionDirective
	case models.GenreNonfiction:
		directive = nonfictionDirective
	}

	return fmt.Sprintf(
		"Condense the following book chapter to between %d and %d words. %s Do not add commentary, headings, or notes about the task. Respond with the condensed chapter text only.\n\nChapter text:\n%s",
		lower, upper, directive, ch.Text,
	)
}

// FallbackPrompt is a simpler single-paragraph request, used once after the
// normal prompt keeps producing unusable output.
func FallbackPrompt(ch models.Chapter) string {
	return fmt.Sprintf(
		"Summarize the following book chapter in one concise paragraph. Respond with the paragraph only.\n\nChapter text:\n%s",
		ch.Text,
	)
}

// SynopsisPrompt builds the whole-book coherence request over the ordered,
// already-abridged chapter texts.
func SynopsisPrompt(title string, bookText string) string {
	heading := "the book"
	if title != "" {
		heading = fmt.Sprintf("the book %q", title)
	}
	return fmt.Sprintf(
		"The following is an abridged version of %s, chapters in order. Write a short synopsis (two to four paragraphs) that captures the overall arc from beginning to end, suitable as a foreword. Respond with the synopsis only.\n\n%s",
		heading, bookText,
	)
}

// ClassifyPrompt asks for a one-word genre classification of a text sample.
func ClassifyPrompt(sample string) string {
	return fmt.Sprintf(
		"Classify the following book excerpt as FICTION or NONFICTION. Respond with exactly one word: FICTION or NONFICTION.\n\nExcerpt:\n%s",
		sample,
	)
}

// ParseGenre maps a classification response onto a genre label. NONFICTION is
// checked first because FICTION is a substring of it.
func ParseGenre(response string) models.GenreLabel {
	upper := strings.ToUpper(response)
	switch {
	case strings.Contains(upper, "NONFICTION"), strings.Contains(upper, "NON-FICTION"):
		return models.GenreNonfiction
	case strings.Contains(upper, "FICTION"):
		return models.GenreFiction
	default:
		return models.GenreUnknown
	}
}
