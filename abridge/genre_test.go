package abridge

import (
	"context"
	"strings"
	"testing"

	"github.com/aluiziolira/go-abridge-books/models"
)

func TestSampleTextBounded(t *testing.T) {
	chapters := []models.Chapter{
		{Index: 0, Text: strings.Repeat("a", 3000)},
		{Index: 1, Text: strings.Repeat("b", 3000)},
		{Index: 2, Text: strings.Repeat("c", 3000)},
	}

	sample := sampleText(chapters, 4096)
	if len(sample) > 4096 {
		t.Fatalf("sample length = %d, want <= 4096", len(sample))
	}
	if !strings.HasPrefix(sample, "aaa") {
		t.Error("sample must start from the first chapter")
	}
	if strings.Contains(sample, "c") {
		t.Error("sample should not reach the third chapter")
	}
}

func TestSampleTextSkipsEmptyChapters(t *testing.T) {
	chapters := []models.Chapter{
		{Index: 0, Text: ""},
		{Index: 1, Text: "actual content"},
	}
	if got := sampleText(chapters, 4096); got != "actual content" {
		t.Errorf("sampleText() = %q, want %q", got, "actual content")
	}
}

func TestSampleTextRuneBoundary(t *testing.T) {
	text := strings.Repeat("é", 100) // two bytes per rune
	sample := sampleText([]models.Chapter{{Index: 0, Text: text}}, 51)
	if len(sample) >= 52 {
		t.Fatalf("sample length = %d, want < 52", len(sample))
	}
	for _, r := range sample {
		if r != 'é' {
			t.Fatalf("sample contains broken rune %q", r)
		}
	}
}

func TestClassifyGenreEmptyBook(t *testing.T) {
	genre, err := ClassifyGenre(context.Background(), nil, "m", nil, 0)
	if err != nil {
		t.Fatalf("ClassifyGenre() error = %v", err)
	}
	if genre != models.GenreUnknown {
		t.Errorf("ClassifyGenre() = %v, want unknown for empty input", genre)
	}
}
