package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/medbill-pipeline/internal/joblog"
)

// Processor drives one batch run end to end: OCR, classify-and-split,
// extract, combine. Each stage owns its own per-document error handling;
// the processor only fails on errors that make the whole run meaningless.
type Processor struct {
	OCR     *OCRStage
	Split   *SplitStage
	Extract *ExtractStage
	Combine *CombineStage
	Ledger  *joblog.Ledger
	Logger  *slog.Logger
}

// Result summarizes one completed run.
type Result struct {
	RunID        string
	CombinedPath string
	Documents    []joblog.DocumentStatus
}

// Run executes the full batch over inputDir, writing everything under
// outDir. Intermediate artifacts land in ocr/, split/ and csv/
// subdirectories so a partial run can be inspected and resumed by hand.
func (p *Processor) Run(ctx context.Context, inputDir, outDir string) (*Result, error) {
	ocrDir := filepath.Join(outDir, "ocr")
	splitDir := filepath.Join(outDir, "split")
	csvDir := filepath.Join(outDir, "csv")
	for _, dir := range []string{ocrDir, splitDir, csvDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}

	runID, err := p.Ledger.StartRun(ctx, inputDir, outDir)
	if err != nil {
		return nil, err
	}

	searchable, err := p.OCR.Run(ctx, runID, inputDir, ocrDir)
	if err != nil {
		return nil, err
	}

	derived, err := p.Split.Run(ctx, runID, searchable, splitDir)
	if err != nil {
		return nil, err
	}

	cases, err := p.Extract.Run(ctx, runID, derived, csvDir)
	if err != nil {
		return nil, err
	}

	combinedPath, err := p.Combine.Run(outDir, cases)
	if err != nil {
		return nil, err
	}

	if err := p.Ledger.EndRun(ctx, runID); err != nil {
		p.Logger.Warn("processor.end_run_error", "run_id", runID, "error", err)
	}

	docs, err := p.Ledger.Documents(ctx, runID)
	if err != nil {
		p.Logger.Warn("processor.ledger_read_error", "run_id", runID, "error", err)
	}

	p.Logger.Info("processor.run.ok", "run_id", runID, "combined", combinedPath)
	return &Result{RunID: runID, CombinedPath: combinedPath, Documents: docs}, nil
}
