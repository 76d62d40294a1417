package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
	"github.com/joseph-ayodele/medbill-pipeline/internal/common"
	"github.com/joseph-ayodele/medbill-pipeline/internal/split"
)

// SplitStage classifies every page of each searchable PDF and emits one
// derived PDF per non-empty category. Files whose name already carries a
// category suffix are routed through without reclassification.
type SplitStage struct {
	Reader     PageTextReader
	Classifier PageClassifier
	Splitter   DocumentSplitter
	Ledger     RunLedger
	Logger     *slog.Logger
}

func NewSplitStage(reader PageTextReader, classifier PageClassifier, splitter DocumentSplitter, ledger RunLedger, logger *slog.Logger) *SplitStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &SplitStage{Reader: reader, Classifier: classifier, Splitter: splitter, Ledger: ledger, Logger: logger}
}

// Run processes the given PDFs and returns every derived document across
// all of them. Unreadable sources are skipped whole: no classification, no
// derived PDFs.
func (s *SplitStage) Run(ctx context.Context, runID string, pdfPaths []string, outDir string) ([]split.Derived, error) {
	var derived []split.Derived
	for _, path := range pdfPaths {
		base := filepath.Base(path)
		if err := s.Ledger.AddDocument(ctx, runID, path, constants.CaseIDFromFilename(base)); err != nil {
			s.Logger.Warn("split_stage.ledger_error", "path", base, "error", err)
		}

		// Pre-split routing: a file named like a derived document goes
		// straight to the matching extractor.
		if cat, ok := constants.CategoryFromFilename(base); ok {
			s.Logger.Info("split_stage.presplit_routed", "path", base, "category", string(cat))
			derived = append(derived, split.Derived{Category: cat, Path: path})
			setStatus(ctx, s.Ledger, s.Logger, runID, path, constants.DocStatusSplitOK, "")
			continue
		}

		texts, err := s.Reader.PageTexts(path)
		if err != nil {
			if errors.Is(err, common.ErrSourceUnreadable) {
				s.Logger.Error("split_stage.source_unreadable", "path", base, "error", err)
				setStatus(ctx, s.Ledger, s.Logger, runID, path, constants.DocStatusSkipped, err.Error())
				continue
			}
			return derived, err
		}

		classifications := make([]constants.Category, len(texts))
		for i, text := range texts {
			classifications[i] = s.Classifier.Classify(ctx, text, i)
		}

		docs, err := s.Splitter.Split(path, split.Partition(classifications), outDir)
		if err != nil {
			s.Logger.Error("split_stage.split_failed", "path", base, "error", err)
			setStatus(ctx, s.Ledger, s.Logger, runID, path, constants.DocStatusFailed, err.Error())
			continue
		}
		setStatus(ctx, s.Ledger, s.Logger, runID, path, constants.DocStatusSplitOK, "")
		derived = append(derived, docs...)
	}

	s.Logger.Info("split_stage.ok", "run_id", runID, "derived", len(derived))
	return derived, nil
}
