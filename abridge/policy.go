// Package abridge implements the abridgment engine: per-chapter policy,
// prompt assembly, genre classification, pre-flight cost estimation, and the
// map-reduce orchestrator that drives the generator.
package abridge

import "github.com/aluiziolira/go-abridge-books/models"

// Decision is the chapter policy verdict.
type Decision int

const (
	Summarize Decision = iota
	Passthrough
)

func (d Decision) String() string {
	if d == Passthrough {
		return "passthrough"
	}
	return "summarize"
}

// Decide applies the word-count skip policy to one chapter. Chapters below
// wordLimit are copied through unchanged; a limit of 0 disables skipping so
// every chapter is summarized.
func Decide(ch models.Chapter, wordLimit int) Decision {
	if wordLimit <= 0 {
		return Summarize
	}
	if ch.WordCount() < wordLimit {
		return Passthrough
	}
	return Summarize
}
