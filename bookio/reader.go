// Package bookio reads source books into ordered chapter sequences and
// writes abridged results back out. Order is document order; no chapter is
// dropped, however small.
package bookio

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aluiziolira/go-abridge-books/models"
)

// Book is a parsed source document.
type Book struct {
	Meta     models.BookMeta
	Chapters []models.Chapter
}

var markdownHeading = regexp.MustCompile(`^#{1,3}\s+(.*)$`)

var chapterHeading = regexp.MustCompile(`(?i)^(chapter|part|book|prologue|epilogue|preface|foreword|introduction|appendix|contents|afterword)\b[\s\d.:IVXLC-]*`)

// maxScanTokenSize allows very long single lines in source texts.
const maxScanTokenSize = 1 << 20

// ReadBook parses a plain-text or Markdown book into ordered chapters.
// Chapters split on Markdown headings and on conventional chapter heading
// lines. Text before the first heading becomes an untitled leading chapter.
// Front matter like a contents page is kept as a chapter; the word-count
// policy passes short ones through untouched downstream.
func ReadBook(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open book: %w", err)
	}
	defer f.Close()

	meta := models.BookMeta{
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	var chapters []models.Chapter
	var title string
	var body strings.Builder
	titled := false

	flush := func() {
		text := strings.TrimSpace(body.String())
		body.Reset()
		if text == "" && !titled {
			return
		}
		chapters = append(chapters, models.Chapter{
			Index: len(chapters),
			Title: title,
			Text:  text,
		})
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)
	for scanner.Scan() {
		line := scanner.Text()

		if m := markdownHeading.FindStringSubmatch(line); m != nil {
			heading := strings.TrimSpace(m[1])
			// A lone top-level heading before any content names the book.
			if !titled && len(chapters) == 0 && strings.TrimSpace(body.String()) == "" && strings.HasPrefix(line, "# ") {
				meta.Title = heading
				continue
			}
			flush()
			title = heading
			titled = true
			continue
		}
		if chapterHeading.MatchString(strings.TrimSpace(line)) && len(strings.Fields(line)) <= 8 {
			flush()
			title = strings.TrimSpace(line)
			titled = true
			continue
		}

		body.WriteString(line)
		body.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read book: %w", err)
	}
	flush()

	if len(chapters) == 0 {
		return nil, fmt.Errorf("book %q contains no text", path)
	}
	return &Book{Meta: meta, Chapters: chapters}, nil
}
