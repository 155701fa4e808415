package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-abridge-books/abridge"
	"github.com/aluiziolira/go-abridge-books/bookio"
	"github.com/aluiziolira/go-abridge-books/config"
	"github.com/aluiziolira/go-abridge-books/generator"
	"github.com/aluiziolira/go-abridge-books/models"
	"github.com/aluiziolira/go-abridge-books/tokenizer"
)

func main() {
	defaultCfg := config.DefaultConfig()
	providerDefault := defaultCfg.Provider
	if value, ok := config.EnvString("ABRIDGE_PROVIDER"); ok {
		providerDefault = value
	}
	modelDefault := defaultCfg.Model
	if value, ok := config.EnvString("ABRIDGE_MODEL"); ok {
		modelDefault = value
	}
	baseURLDefault := defaultCfg.BaseURL
	if value, ok := config.EnvString("ABRIDGE_BASE_URL"); ok {
		baseURLDefault = value
	}
	concurrencyDefault := defaultCfg.Concurrency
	if value, ok, err := config.EnvInt("ABRIDGE_CONCURRENCY"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid ABRIDGE_CONCURRENCY: %v\n", err)
		os.Exit(1)
	} else if ok {
		concurrencyDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("ABRIDGE_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	provider := flag.String("provider", providerDefault, "Generation provider name (pricing catalog key)")
	model := flag.String("model", modelDefault, "Model identifier")
	baseURL := flag.String("base-url", baseURLDefault, "OpenAI-compatible API base URL")
	length := flag.String("length", defaultCfg.LengthPreset, "Length preset: very_short, short, medium, or long")
	targetFlag := flag.Float64("target", 0, "Compression target as a fraction of original length (overrides -length)")
	wordLimit := flag.Int("word-limit", defaultCfg.WordLimit, "Chapters below this word count pass through unchanged (0 summarizes everything)")
	concurrency := flag.Int("concurrency", concurrencyDefault, "Concurrent chapter requests")
	temperature := flag.Float64("temperature", defaultCfg.Temperature, "Sampling temperature")
	maxRetries := flag.Int("max-retries", defaultCfg.MaxRetries, "Maximum retry attempts per request")
	maxOutputTokens := flag.Int("max-output-tokens", defaultCfg.MaxOutputTokens, "Per-request output token cap (0 derives one from the target length)")
	retryBackoffMs := flag.Int("retry-backoff", int(defaultCfg.RetryBackoff/time.Millisecond), "Initial retry backoff (milliseconds)")
	retryBackoffMaxMs := flag.Int("retry-backoff-max", int(defaultCfg.RetryBackoffMax/time.Millisecond), "Maximum retry backoff (milliseconds)")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout/time.Second), "Per-request timeout (seconds)")
	pricingFile := flag.String("pricing", "", "YAML pricing file merged over the builtin catalog")
	outputFile := flag.String("output", defaultCfg.OutputFile, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: text, jsonl, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	estimateOnly := flag.Bool("estimate-only", false, "Print the cost estimate and exit")
	yes := flag.Bool("y", false, "Skip the cost confirmation prompt")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <book file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	bookPath := flag.Arg(0)

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	cfg.Provider = *provider
	cfg.Model = *model
	cfg.BaseURL = *baseURL
	cfg.APIKey, _ = config.EnvString("ABRIDGE_API_KEY")
	cfg.Temperature = *temperature
	cfg.LengthPreset = strings.ToLower(*length)
	cfg.CompressionTarget = *targetFlag
	cfg.WordLimit = *wordLimit
	cfg.Concurrency = *concurrency
	cfg.MaxRetries = *maxRetries
	cfg.MaxOutputTokens = *maxOutputTokens
	cfg.RetryBackoff = time.Duration(*retryBackoffMs) * time.Millisecond
	cfg.RetryBackoffMax = time.Duration(*retryBackoffMaxMs) * time.Millisecond
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	spec, err := abridge.Preset(cfg.LengthPreset)
	if err != nil {
		slog.Error("invalid length preset", slog.Any("error", err))
		os.Exit(1)
	}
	target := spec.Target()
	if cfg.CompressionTarget > 0 {
		target = cfg.CompressionTarget
		spec = abridge.LengthSpec{Key: "custom", Percent: int(target*100 + 0.5)}
	}

	catalog := config.DefaultCatalog()
	if *pricingFile != "" {
		catalog, err = config.LoadCatalog(*pricingFile)
		if err != nil {
			slog.Error("loading pricing catalog", slog.Any("error", err))
			os.Exit(1)
		}
	}

	book, err := bookio.ReadBook(bookPath)
	if err != nil {
		slog.Error("reading book", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("book loaded",
		slog.String("title", book.Meta.Title),
		slog.Int("chapters", len(book.Chapters)),
	)

	estimator := &abridge.Estimator{
		Counter: tokenizer.NewCounter(),
		Catalog: catalog,
	}
	estimate := estimator.Estimate(book.Chapters, cfg.Provider, cfg.Model, target, cfg.WordLimit)
	printEstimate(estimate, target)

	if *estimateOnly {
		return
	}
	if !*yes && !confirmProceed(os.Stdin) {
		fmt.Println("Aborted.")
		return
	}

	metrics := generator.NewMetrics()
	client, err := generator.NewHTTPClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout, metrics)
	if err != nil {
		slog.Error("initialising generator client", slog.Any("error", err))
		os.Exit(1)
	}
	retrier := generator.NewRetrier(cfg.MaxRetries, cfg.RetryBackoff, cfg.RetryBackoffMax, metrics)
	engine := abridge.NewEngine(client, retrier, metrics, logger)

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight chapters to finish")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	opts := abridge.Options{
		Provider:         cfg.Provider,
		Model:            cfg.Model,
		Temperature:      cfg.Temperature,
		Length:           spec,
		WordLimit:        cfg.WordLimit,
		Concurrency:      cfg.Concurrency,
		MaxOutputTokens:  cfg.MaxOutputTokens,
		GenreSampleBytes: cfg.GenreSampleBytes,
		OnProgress: func(p abridge.Progress) {
			if p.Stage == abridge.StageChapter {
				slog.Info("chapter done",
					slog.Int("index", p.Index),
					slog.Int("total", p.Total),
					slog.String("outcome", string(p.Outcome)),
				)
			}
		},
	}

	startTime := time.Now()
	result, err := engine.Run(ctx, book.Meta, book.Chapters, opts)
	if err != nil {
		slog.Error("abridgment failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := writer.Write(book.Meta, result); err != nil {
		slog.Error("writing output", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, time.Since(startTime), cfg.OutputFile)
}

func printEstimate(est models.CostEstimate, target float64) {
	separator := "--------------------------------------------------"
	fmt.Println(separator)
	fmt.Println("Pre-flight estimate")
	fmt.Printf("  Provider/model:  %s/%s\n", est.Provider, est.Model)
	fmt.Printf("  Target length:   %.0f%% of original\n", target*100)
	fmt.Printf("  Summarize:       %d chapters\n", est.SummarizeCount)
	fmt.Printf("  Passthrough:     %d chapters\n", est.PassthroughCount)
	fmt.Printf("  Chapter tokens:  %d in / %d out\n", est.ChapterInputTokens, est.ChapterOutputTokens)
	fmt.Printf("  Overhead tokens: %d in / %d out (synopsis + classification)\n", est.OverheadInputTokens, est.OverheadOutputTokens)
	if est.CostKnown {
		fmt.Printf("  Chapter cost:    $%.4f\n", est.ChapterCost)
		fmt.Printf("  Overhead cost:   $%.4f\n", est.OverheadCost)
		fmt.Printf("  Total cost:      $%.4f\n", est.TotalCost)
	} else {
		fmt.Println("  Cost:            unknown (no pricing entry for this model)")
	}
	fmt.Println(separator)
}

func confirmProceed(in *os.File) bool {
	fmt.Print("Proceed? [y/N] ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func createWriter(format, filename string) (bookio.Writer, error) {
	switch format {
	case "text":
		return bookio.NewTextWriter(filename)
	case "jsonl":
		return bookio.NewJSONLWriter(filename)
	case "dual":
		jsonlFilename := strings.TrimSuffix(filename, ".md")
		jsonlFilename = strings.TrimSuffix(jsonlFilename, ".txt") + ".jsonl"
		return bookio.NewDualWriter(filename, jsonlFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.RunResult, duration time.Duration, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Abridgment complete")
	fmt.Printf("  Genre:         %s\n", result.Genre)
	fmt.Printf("  Summarized:    %d\n", result.Summarized)
	fmt.Printf("  Passthrough:   %d\n", result.Passthrough)
	fmt.Printf("  Failed:        %d\n", result.Failed)
	if len(result.Failures) > 0 {
		fmt.Println("  Failed chapters:")
		for _, f := range result.Failures {
			fmt.Printf("    #%d: %s\n", f.Index, f.Reason)
		}
	}
	if result.Synopsis == "" {
		fmt.Println("  Synopsis:      unavailable")
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
