package bookio

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBookFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp book: %v", err)
	}
	return path
}

func TestReadBookMarkdownHeadings(t *testing.T) {
	book, err := ReadBook(writeBookFile(t, `# The Test Book

## Chapter One

First chapter text.

## Chapter Two

Second chapter text.
More of it.
`))
	if err != nil {
		t.Fatalf("ReadBook() error = %v", err)
	}

	if book.Meta.Title != "The Test Book" {
		t.Errorf("Title = %q, want %q", book.Meta.Title, "The Test Book")
	}
	if len(book.Chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(book.Chapters))
	}
	if book.Chapters[0].Title != "Chapter One" || book.Chapters[1].Title != "Chapter Two" {
		t.Errorf("titles = %q, %q", book.Chapters[0].Title, book.Chapters[1].Title)
	}
	for i, ch := range book.Chapters {
		if ch.Index != i {
			t.Errorf("chapter %d has index %d", i, ch.Index)
		}
	}
	if book.Chapters[0].Text != "First chapter text." {
		t.Errorf("chapter 0 text = %q", book.Chapters[0].Text)
	}
}

func TestReadBookPlainChapterHeadings(t *testing.T) {
	book, err := ReadBook(writeBookFile(t, `Chapter 1

It was a dark and stormy night.

Chapter 2

The storm continued.
`))
	if err != nil {
		t.Fatalf("ReadBook() error = %v", err)
	}
	if len(book.Chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(book.Chapters))
	}
	if book.Chapters[0].Title != "Chapter 1" {
		t.Errorf("title = %q, want %q", book.Chapters[0].Title, "Chapter 1")
	}
}

func TestReadBookPreambleBecomesChapter(t *testing.T) {
	book, err := ReadBook(writeBookFile(t, `Some front matter before any heading.

## Chapter One

Body.
`))
	if err != nil {
		t.Fatalf("ReadBook() error = %v", err)
	}
	if len(book.Chapters) != 2 {
		t.Fatalf("chapters = %d, want 2 (preamble must not be dropped)", len(book.Chapters))
	}
	if book.Chapters[0].Title != "" {
		t.Errorf("preamble title = %q, want empty", book.Chapters[0].Title)
	}
	if book.Chapters[0].Text != "Some front matter before any heading." {
		t.Errorf("preamble text = %q", book.Chapters[0].Text)
	}
}

func TestReadBookNoHeadingsSingleChapter(t *testing.T) {
	book, err := ReadBook(writeBookFile(t, "Just one block of text.\nNo headings anywhere.\n"))
	if err != nil {
		t.Fatalf("ReadBook() error = %v", err)
	}
	if len(book.Chapters) != 1 {
		t.Fatalf("chapters = %d, want 1", len(book.Chapters))
	}
	if book.Meta.Title != "book" {
		t.Errorf("Title = %q, want filename stem", book.Meta.Title)
	}
}

func TestReadBookEmptyHeadedChapterPreserved(t *testing.T) {
	book, err := ReadBook(writeBookFile(t, `## Contents

## Chapter One

Body text.
`))
	if err != nil {
		t.Fatalf("ReadBook() error = %v", err)
	}
	if len(book.Chapters) != 2 {
		t.Fatalf("chapters = %d, want 2 (empty headed chapter preserved)", len(book.Chapters))
	}
	if book.Chapters[0].Title != "Contents" || book.Chapters[0].Text != "" {
		t.Errorf("chapter 0 = %+v, want empty contents chapter", book.Chapters[0])
	}
}

func TestReadBookEmptyFile(t *testing.T) {
	if _, err := ReadBook(writeBookFile(t, "")); err == nil {
		t.Fatal("ReadBook() error = nil, want error for empty book")
	}
}

func TestReadBookMissingFile(t *testing.T) {
	if _, err := ReadBook(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("ReadBook() error = nil, want error")
	}
}
