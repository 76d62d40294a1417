package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
	"github.com/joseph-ayodele/medbill-pipeline/internal/aggregate"
	"github.com/joseph-ayodele/medbill-pipeline/internal/classify"
	"github.com/joseph-ayodele/medbill-pipeline/internal/common"
	"github.com/joseph-ayodele/medbill-pipeline/internal/export"
	"github.com/joseph-ayodele/medbill-pipeline/internal/extract"
	"github.com/joseph-ayodele/medbill-pipeline/internal/joblog"
	"github.com/joseph-ayodele/medbill-pipeline/internal/llm"
	"github.com/joseph-ayodele/medbill-pipeline/internal/llm/openai"
	"github.com/joseph-ayodele/medbill-pipeline/internal/ocr"
	"github.com/joseph-ayodele/medbill-pipeline/internal/pdfio"
	"github.com/joseph-ayodele/medbill-pipeline/internal/pipeline"
	"github.com/joseph-ayodele/medbill-pipeline/internal/split"
	"github.com/joseph-ayodele/medbill-pipeline/internal/tabular"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		in      = flag.String("in", "", "directory with the scanned PDFs to process (required)")
		out     = flag.String("out", "", "output directory (defaults to <in>_output)")
		schemas = flag.String("schemas", "", "optional JSON file overriding the per-category column schemas")
		timeout = flag.Duration("timeout", 2*time.Hour, "whole-run budget")
	)
	flag.Parse()

	if *in == "" {
		printError("Error: --in is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = *in + "_output"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	registry := extract.NewRegistry()
	if *schemas != "" {
		if err := registry.LoadOverrides(*schemas); err != nil {
			logger.Error("load schema overrides", "path", *schemas, "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ledger, err := joblog.Open(cfg.JobLog.Path, logger)
	if err != nil {
		logger.Error("open joblog", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := ledger.Close(); cerr != nil {
			logger.Error("close joblog", "error", cerr)
		}
	}()

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	var completer llm.Completer = llm.NewThrottled(client, cfg.LLM.CallsPerSecond, cfg.LLM.Burst)

	classifier := classify.NewClassifier(completer, cfg.LLM.ClassifyMaxTokens, logger)
	extractor := extract.NewFieldExtractor(completer, tabular.NewParser(logger), cfg.LLM.ExtractMaxTokens, logger)

	p := &pipeline.Processor{
		OCR:     pipeline.NewOCRStage(ocr.NewProcessor(ocr.Config{OCRmyPDF: cfg.OCR.OCRmyPDF, Timeout: cfg.OCR.Timeout}, logger), ledger, logger),
		Split:   pipeline.NewSplitStage(pdfio.NewReader(logger), classifier, split.NewSplitter(pdfio.NewSubsetWriter(logger), logger), ledger, logger),
		Extract: pipeline.NewExtractStage(pdfio.NewReader(logger), extractor, registry, export.NewService(logger), ledger, logger),
		Combine: pipeline.NewCombineStage(aggregate.NewAggregator(logger), export.NewService(logger), logger),
		Ledger:  ledger,
		Logger:  logger,
	}

	start := time.Now()
	res, err := p.Run(ctx, *in, *out)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("batch run failed", "error", err, "duration_ms", elapsed.Milliseconds())
		os.Exit(1)
	}

	var failed int
	for _, d := range res.Documents {
		if d.Status == constants.DocStatusFailed || d.Status == constants.DocStatusSkipped {
			failed++
			logger.Warn("document not fully processed", "path", d.Path, "status", string(d.Status), "error", d.Error)
		}
	}

	logger.Info("batch run OK",
		"run_id", res.RunID,
		"combined", res.CombinedPath,
		"documents", len(res.Documents),
		"not_processed", failed,
		"duration_ms", elapsed.Milliseconds(),
	)
	fmt.Printf("Done in %s. Combined output: %s\n", elapsed.Round(time.Second), res.CombinedPath)
}
