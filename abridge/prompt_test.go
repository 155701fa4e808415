package abridge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aluiziolira/go-abridge-books/models"
)

func TestPresetLookup(t *testing.T) {
	spec, err := Preset("short")
	if err != nil {
		t.Fatalf("Preset(short) error = %v", err)
	}
	if spec.Percent != 25 {
		t.Errorf("Percent = %d, want 25", spec.Percent)
	}
	if spec.Target() != 0.25 {
		t.Errorf("Target() = %v, want 0.25", spec.Target())
	}

	if _, err := Preset("gigantic"); err == nil {
		t.Error("Preset(gigantic) error = nil, want error")
	}
}

func TestMapPromptWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		words     int
		percent   int
		wantUpper int
		wantLower int
	}{
		{name: "normal chapter", words: 2000, percent: 25, wantUpper: 500, wantLower: 300},
		{name: "lower percent floored at 10", words: 2000, percent: 10, wantUpper: 200, wantLower: 200},
		{name: "upper floored at 50", words: 100, percent: 25, wantUpper: 50, wantLower: 25},
		{name: "lower floored at 25 and clamped", words: 120, percent: 25, wantUpper: 50, wantLower: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := MapPrompt(models.GenreUnknown, LengthSpec{Key: "x", Percent: tt.percent}, chapterOfWords(tt.words))
			want := fmt.Sprintf("between %d and %d words", tt.wantLower, tt.wantUpper)
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q:\n%s", want, prompt)
			}
		})
	}
}

func TestMaxOutputTokensTracksUpperBound(t *testing.T) {
	tests := []struct {
		name    string
		words   int
		percent int
		want    int
	}{
		{name: "normal chapter", words: 2000, percent: 25, want: 1000},
		{name: "long preset", words: 1000, percent: 60, want: 1200},
		{name: "tiny chapter uses the floor", words: 80, percent: 25, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := LengthSpec{Key: "x", Percent: tt.percent}
			if got := spec.MaxOutputTokens(tt.words); got != tt.want {
				t.Errorf("MaxOutputTokens(%d) = %d, want %d", tt.words, got, tt.want)
			}
		})
	}
}

func TestMapPromptGenreVariants(t *testing.T) {
	ch := chapterOfWords(1000)
	spec := LengthSpec{Key: "short", Percent: 25}

	fiction := MapPrompt(models.GenreFiction, spec, ch)
	if !strings.Contains(fiction, "narrative voice") {
		t.Error("fiction prompt missing narrative directive")
	}
	nonfiction := MapPrompt(models.GenreNonfiction, spec, ch)
	if !strings.Contains(nonfiction, "argument structure") {
		t.Error("nonfiction prompt missing argument directive")
	}
	neutral := MapPrompt(models.GenreUnknown, spec, ch)
	if strings.Contains(neutral, "narrative voice") || strings.Contains(neutral, "argument structure") {
		t.Error("unknown genre should use the neutral directive")
	}

	for _, p := range []string{fiction, nonfiction, neutral} {
		if !strings.Contains(p, ch.Text) {
			t.Error("prompt must embed the chapter text")
		}
	}
}

func TestParseGenre(t *testing.T) {
	tests := []struct {
		response string
		want     models.GenreLabel
	}{
		{response: "FICTION", want: models.GenreFiction},
		{response: "fiction", want: models.GenreFiction},
		{response: "NONFICTION", want: models.GenreNonfiction},
		{response: "non-fiction", want: models.GenreNonfiction},
		{response: "The excerpt is NONFICTION.", want: models.GenreNonfiction},
		{response: "This reads like FICTION to me", want: models.GenreFiction},
		{response: "poetry", want: models.GenreUnknown},
		{response: "", want: models.GenreUnknown},
	}

	for _, tt := range tests {
		if got := ParseGenre(tt.response); got != tt.want {
			t.Errorf("ParseGenre(%q) = %v, want %v", tt.response, got, tt.want)
		}
	}
}

func TestSynopsisPromptIncludesTitle(t *testing.T) {
	p := SynopsisPrompt("Moby Dick", "chapter one\n\nchapter two")
	if !strings.Contains(p, `"Moby Dick"`) {
		t.Error("synopsis prompt missing book title")
	}
	if !strings.Contains(p, "chapter two") {
		t.Error("synopsis prompt missing book text")
	}
}
