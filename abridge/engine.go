package abridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aluiziolira/go-abridge-books/generator"
	"github.com/aluiziolira/go-abridge-books/models"
)

// ErrNoChapters is returned when Run is invoked with an empty chapter
// sequence. An empty book is a caller error, not a run.
var ErrNoChapters = errors.New("no chapters to process")

const cancelledReason = "cancelled"

// temperatureStep is added per retry attempt to nudge the generator out of a
// degenerate completion, capped at temperatureCeiling.
const (
	temperatureStep    = 0.1
	temperatureCeiling = 1.2
)

// Stage names reported through Progress.
const (
	StageClassify = "classify"
	StageChapter  = "chapter"
	StageReduce   = "reduce"
)

// Progress is one engine progress event. Index and Outcome are set only for
// chapter events.
type Progress struct {
	Stage   string
	Index   int
	Total   int
	Outcome models.Outcome
}

// Options holds the per-run configuration passed into the engine. Model and
// thresholds travel with the call instead of living in process-wide state.
type Options struct {
	Provider         string
	Model            string
	Temperature      float64
	Length           LengthSpec
	WordLimit        int
	Concurrency      int
	MaxOutputTokens  int
	GenreSampleBytes int
	OnProgress       func(Progress)
}

// Engine orchestrates one abridgment run: classify, map every chapter under a
// concurrency bound, then reduce to a whole-book synopsis. The engine holds
// only shared read-only collaborators; per-run state lives in Run.
type Engine struct {
	client  generator.Client
	retrier *generator.Retrier
	metrics *generator.Metrics
	logger  *slog.Logger
}

// NewEngine builds an engine. Metrics may be nil to disable instrumentation.
func NewEngine(client generator.Client, retrier *generator.Retrier, metrics *generator.Metrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:  client,
		retrier: retrier,
		metrics: metrics,
		logger:  logger,
	}
}

// Run executes a single abridgment pass over the chapters. Individual chapter
// failures never abort the run; they surface as FAILED results carrying the
// original text. Only invalid input and fatal credential errors return an
// error, and then no RunResult is produced. A cancelled run still returns a
// RunResult covering what completed, with the rest marked FAILED.
func (e *Engine) Run(ctx context.Context, meta models.BookMeta, chapters []models.Chapter, opts Options) (*models.RunResult, error) {
	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}

	start := time.Now()

	// Classification runs while policy decisions are precomputed; both must
	// finish before any chapter prompt is built.
	type classifyOut struct {
		genre models.GenreLabel
		err   error
	}
	classifyCh := make(chan classifyOut, 1)
	go func() {
		genre, err := ClassifyGenre(ctx, e.client, opts.Model, chapters, opts.GenreSampleBytes)
		classifyCh <- classifyOut{genre: genre, err: err}
	}()

	decisions := make([]Decision, len(chapters))
	for i, ch := range chapters {
		decisions[i] = Decide(ch, opts.WordLimit)
	}

	classified := <-classifyCh
	if classified.err != nil {
		return nil, fmt.Errorf("genre classification: %w", classified.err)
	}
	genre := classified.genre
	e.logger.Info("genre classified",
		slog.String("genre", string(genre)),
		slog.String("book", meta.Title),
	)
	e.emit(opts, Progress{Stage: StageClassify, Total: len(chapters)})

	results := make([]models.ChapterResult, len(chapters))

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var progressMu sync.Mutex
	report := func(p Progress) {
		progressMu.Lock()
		defer progressMu.Unlock()
		e.emit(opts, p)
	}

	for i := range chapters {
		ch := chapters[i]
		if decisions[i] == Passthrough {
			results[i] = models.ChapterResult{
				Index:   ch.Index,
				Title:   ch.Title,
				Text:    ch.Text,
				Outcome: models.OutcomePassthrough,
			}
			report(Progress{Stage: StageChapter, Index: ch.Index, Total: len(chapters), Outcome: models.OutcomePassthrough})
			continue
		}

		slot := i
		g.Go(func() error {
			res, err := e.summarizeChapter(gctx, ch, genre, opts)
			if err != nil {
				// Only fatal credential errors travel this path; they cancel
				// the whole group.
				return err
			}
			results[slot] = res
			report(Progress{Stage: StageChapter, Index: ch.Index, Total: len(chapters), Outcome: res.Outcome})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A cancelled run may leave slots untouched. Every dispatched chapter
	// fills its own slot, so anything empty here was never processed.
	for i := range results {
		if results[i].Outcome == "" {
			results[i] = models.ChapterResult{
				Index:         chapters[i].Index,
				Title:         chapters[i].Title,
				Text:          chapters[i].Text,
				Outcome:       models.OutcomeFailed,
				FailureReason: cancelledReason,
			}
		}
	}

	synopsis := ""
	if ctx.Err() == nil {
		var err error
		synopsis, err = e.reduce(ctx, meta, results, opts)
		if err != nil {
			return nil, err
		}
		e.emit(opts, Progress{Stage: StageReduce, Total: len(chapters)})
	}

	result := &models.RunResult{
		Chapters:  results,
		Synopsis:  synopsis,
		Genre:     genre,
		StartTime: start,
		EndTime:   time.Now(),
	}
	for _, cr := range results {
		e.metrics.IncChapter(string(cr.Outcome))
		switch cr.Outcome {
		case models.OutcomePassthrough:
			result.Passthrough++
		case models.OutcomeSummarized:
			result.Summarized++
		case models.OutcomeFailed:
			result.Failed++
			result.Failures = append(result.Failures, models.FailureRecord{
				Index:  cr.Index,
				Reason: cr.FailureReason,
			})
		}
	}

	e.logger.Info("run complete",
		slog.String("book", meta.Title),
		slog.Int("summarized", result.Summarized),
		slog.Int("passthrough", result.Passthrough),
		slog.Int("failed", result.Failed),
		slog.Duration("elapsed", result.EndTime.Sub(result.StartTime)),
	)
	return result, nil
}

// summarizeChapter runs the map stage for one chapter. The returned error is
// non-nil only for fatal credential failures; every other failure is folded
// into a FAILED result that preserves the original text.
func (e *Engine) summarizeChapter(ctx context.Context, ch models.Chapter, genre models.GenreLabel, opts Options) (models.ChapterResult, error) {
	failed := func(reason string, calls int) models.ChapterResult {
		return models.ChapterResult{
			Index:         ch.Index,
			Title:         ch.Title,
			Text:          ch.Text,
			Outcome:       models.OutcomeFailed,
			FailureReason: reason,
			Calls:         calls,
		}
	}

	if ctx.Err() != nil {
		return failed(cancelledReason, 0), nil
	}

	maxTokens := opts.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = opts.Length.MaxOutputTokens(ch.WordCount())
	}

	prompt := MapPrompt(genre, opts.Length, ch)
	resp, calls, err := e.retrier.Do(ctx, func(ctx context.Context, attempt int) (*generator.Response, error) {
		e.metrics.IncRequest(StageChapter)
		return e.client.Complete(ctx, generator.Request{
			Prompt:      prompt,
			Model:       opts.Model,
			Temperature: jitterTemperature(opts.Temperature, attempt),
			MaxTokens:   maxTokens,
		})
	})
	if err == nil {
		return models.ChapterResult{
			Index:        ch.Index,
			Title:        ch.Title,
			Text:         resp.Text,
			Outcome:      models.OutcomeSummarized,
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
			Calls:        calls,
		}, nil
	}
	if generator.Fatal(err) {
		return models.ChapterResult{}, err
	}
	if ctx.Err() != nil {
		return failed(cancelledReason, calls), nil
	}

	// Persistent unusable output gets one last chance with a simpler prompt
	// before the chapter is written off.
	var malformed generator.ErrMalformed
	if errors.As(err, &malformed) {
		e.logger.Warn("retries exhausted on unusable output, trying fallback prompt",
			slog.Int("chapter", ch.Index),
			slog.Any("error", err),
		)
		e.metrics.IncRequest(StageChapter)
		resp, fbErr := e.client.Complete(ctx, generator.Request{
			Prompt:      FallbackPrompt(ch),
			Model:       opts.Model,
			Temperature: opts.Temperature,
			MaxTokens:   maxTokens,
		})
		calls++
		if fbErr == nil {
			return models.ChapterResult{
				Index:        ch.Index,
				Title:        ch.Title,
				Text:         resp.Text,
				Outcome:      models.OutcomeSummarized,
				InputTokens:  resp.InputTokens,
				OutputTokens: resp.OutputTokens,
				Calls:        calls,
			}, nil
		}
		if generator.Fatal(fbErr) {
			return models.ChapterResult{}, fbErr
		}
		err = fbErr
	}

	e.logger.Warn("chapter failed, keeping original text",
		slog.Int("chapter", ch.Index),
		slog.String("title", ch.Title),
		slog.Int("calls", calls),
		slog.Any("error", err),
	)
	return failed(generator.TypeLabel(err), calls), nil
}

// reduce issues the whole-book coherence pass over the ordered results.
// Failed chapters contribute their preserved original text. Exhausted retries
// yield an empty synopsis, not a failed run.
func (e *Engine) reduce(ctx context.Context, meta models.BookMeta, results []models.ChapterResult, opts Options) (string, error) {
	var b strings.Builder
	for _, cr := range results {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(cr.Text)
	}

	prompt := SynopsisPrompt(meta.Title, b.String())
	resp, _, err := e.retrier.Do(ctx, func(ctx context.Context, attempt int) (*generator.Response, error) {
		e.metrics.IncRequest(StageReduce)
		return e.client.Complete(ctx, generator.Request{
			Prompt:      prompt,
			Model:       opts.Model,
			Temperature: jitterTemperature(opts.Temperature, attempt),
		})
	})
	if err != nil {
		if generator.Fatal(err) {
			return "", fmt.Errorf("synopsis generation: %w", err)
		}
		e.logger.Warn("synopsis generation failed, continuing without one",
			slog.Any("error", err),
		)
		return "", nil
	}
	return resp.Text, nil
}

func (e *Engine) emit(opts Options, p Progress) {
	if opts.OnProgress != nil {
		opts.OnProgress(p)
	}
}

func jitterTemperature(base float64, attempt int) float64 {
	temp := base + temperatureStep*float64(attempt-1)
	if temp > temperatureCeiling {
		temp = temperatureCeiling
	}
	return temp
}
