package abridge

import (
	"strings"
	"testing"

	"github.com/aluiziolira/go-abridge-books/models"
)

func chapterOfWords(n int) models.Chapter {
	return models.Chapter{Text: strings.TrimSpace(strings.Repeat("word ", n))}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		words     int
		wordLimit int
		want      Decision
	}{
		{name: "below threshold passes through", words: 50, wordLimit: 150, want: Passthrough},
		{name: "at threshold summarizes", words: 150, wordLimit: 150, want: Summarize},
		{name: "above threshold summarizes", words: 2000, wordLimit: 150, want: Summarize},
		{name: "zero limit disables skipping", words: 3, wordLimit: 0, want: Summarize},
		{name: "negative limit disables skipping", words: 3, wordLimit: -1, want: Summarize},
		{name: "empty chapter passes through", words: 0, wordLimit: 150, want: Passthrough},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(chapterOfWords(tt.words), tt.wordLimit); got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}
