package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
	"github.com/joseph-ayodele/medbill-pipeline/internal/extract"
	"github.com/joseph-ayodele/medbill-pipeline/internal/split"
)

// Narrow views of the collaborators, so stages can be tested with fakes.

// OCRProcessor turns a scanned PDF into a searchable one.
type OCRProcessor interface {
	Process(ctx context.Context, inputPath, outputPath string) error
}

// PageTextReader returns per-page plain text in physical page order.
type PageTextReader interface {
	PageTexts(path string) ([]string, error)
}

// PageClassifier assigns one category per page. Never fails.
type PageClassifier interface {
	Classify(ctx context.Context, pageText string, pageIndex int) constants.Category
}

// DocumentSplitter emits per-category derived PDFs.
type DocumentSplitter interface {
	Split(srcPath string, groups split.PageGroups, outDir string) ([]split.Derived, error)
}

// RowExtractor extracts structured rows for one derived document.
type RowExtractor interface {
	Extract(ctx context.Context, docText, caseID string, schema extract.Schema) ([]extract.ExtractedRow, error)
}

// RunLedger records per-document stage progress for manual re-runs.
type RunLedger interface {
	AddDocument(ctx context.Context, runID, path, caseID string) error
	SetStatus(ctx context.Context, runID, path string, status constants.DocStatus, errMsg string) error
}

// setStatus records a stage outcome; a ledger failure must not abort the
// batch but it does get logged.
func setStatus(ctx context.Context, ledger RunLedger, logger *slog.Logger, runID, path string, status constants.DocStatus, errMsg string) {
	if err := ledger.SetStatus(ctx, runID, path, status, errMsg); err != nil {
		logger.Warn("ledger.set_status_error", "path", path, "status", string(status), "error", err)
	}
}
