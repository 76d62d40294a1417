package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
)

// OCRStage runs the external OCR tool over every PDF in the input directory.
// One file's failure is logged and recorded; it never aborts the batch.
type OCRStage struct {
	OCR    OCRProcessor
	Ledger RunLedger
	Logger *slog.Logger
}

func NewOCRStage(ocr OCRProcessor, ledger RunLedger, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{OCR: ocr, Ledger: ledger, Logger: logger}
}

// Run OCRs every PDF under inputDir into outDir and returns the paths of the
// searchable PDFs it produced.
func (s *OCRStage) Run(ctx context.Context, runID, inputDir, outDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var produced []string
	for _, entry := range entries {
		if entry.IsDir() || constants.NormalizeExt(filepath.Ext(entry.Name())) != "pdf" {
			continue
		}
		src := filepath.Join(inputDir, entry.Name())
		caseID := constants.CaseIDFromFilename(entry.Name())
		if err := s.Ledger.AddDocument(ctx, runID, src, caseID); err != nil {
			s.Logger.Warn("ocr_stage.ledger_error", "path", src, "error", err)
		}

		dst := filepath.Join(outDir, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))+"_ocr.pdf")
		setStatus(ctx, s.Ledger, s.Logger, runID, src, constants.DocStatusRunning, "")
		if err := s.OCR.Process(ctx, src, dst); err != nil {
			s.Logger.Error("ocr_stage.file_failed", "path", src, "error", err)
			setStatus(ctx, s.Ledger, s.Logger, runID, src, constants.DocStatusFailed, err.Error())
			continue
		}
		setStatus(ctx, s.Ledger, s.Logger, runID, src, constants.DocStatusOCROK, "")
		produced = append(produced, dst)
	}

	s.Logger.Info("ocr_stage.ok", "run_id", runID, "files", len(produced))
	return produced, nil
}
