package abridge

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aluiziolira/go-abridge-books/generator"
	"github.com/aluiziolira/go-abridge-books/models"
)

// classifyMaxTokens bounds the classification response. One word is expected;
// a little slack tolerates chatty models.
const classifyMaxTokens = 16

// defaultSampleBytes bounds the classification sample when no size is
// configured.
const defaultSampleBytes = 4096

// ClassifyGenre samples a bounded prefix of the book text and issues one
// classification request. Transient failures and unparsable responses yield
// GenreUnknown because classification must never block a run; only a fatal
// credential failure is returned, since the run cannot proceed past it.
func ClassifyGenre(ctx context.Context, client generator.Client, model string, chapters []models.Chapter, sampleBytes int) (models.GenreLabel, error) {
	sample := sampleText(chapters, sampleBytes)
	if sample == "" {
		return models.GenreUnknown, nil
	}

	resp, err := client.Complete(ctx, generator.Request{
		Prompt:    ClassifyPrompt(sample),
		Model:     model,
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		if generator.Fatal(err) {
			return models.GenreUnknown, err
		}
		slog.Warn("genre classification failed, using neutral prompt",
			slog.Any("error", err),
		)
		return models.GenreUnknown, nil
	}

	genre := ParseGenre(resp.Text)
	if genre == models.GenreUnknown {
		slog.Warn("genre classification response not recognized, using neutral prompt",
			slog.String("response", resp.Text),
		)
	}
	return genre, nil
}

// sampleText concatenates chapter text in order until the byte bound is
// reached, cutting at a rune boundary.
func sampleText(chapters []models.Chapter, sampleBytes int) string {
	if sampleBytes <= 0 {
		sampleBytes = defaultSampleBytes
	}

	var b strings.Builder
	for _, ch := range chapters {
		if b.Len() >= sampleBytes {
			break
		}
		if ch.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(ch.Text)
	}

	sample := b.String()
	if len(sample) > sampleBytes {
		cut := sampleBytes
		for cut > 0 && !isRuneStart(sample[cut]) {
			cut--
		}
		sample = sample[:cut]
	}
	return sample
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
