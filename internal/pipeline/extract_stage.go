package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
	"github.com/joseph-ayodele/medbill-pipeline/internal/aggregate"
	"github.com/joseph-ayodele/medbill-pipeline/internal/export"
	"github.com/joseph-ayodele/medbill-pipeline/internal/extract"
	"github.com/joseph-ayodele/medbill-pipeline/internal/split"
)

// ExtractStage runs the schema-specific field extraction over every derived
// document, writes one CSV per document, and accumulates the per-case row
// sets the aggregator joins later.
type ExtractStage struct {
	Reader    PageTextReader
	Extractor RowExtractor
	Registry  *extract.Registry
	Export    *export.Service
	Ledger    RunLedger
	Logger    *slog.Logger
}

func NewExtractStage(reader PageTextReader, ex RowExtractor, registry *extract.Registry, exp *export.Service, ledger RunLedger, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{Reader: reader, Extractor: ex, Registry: registry, Export: exp, Ledger: ledger, Logger: logger}
}

// Run extracts every derived document into csvDir and returns rows grouped
// by case identifier. A document whose extraction fails contributes no rows;
// the batch continues.
func (s *ExtractStage) Run(ctx context.Context, runID string, docs []split.Derived, csvDir string) (map[string]*aggregate.CaseRows, error) {
	cases := make(map[string]*aggregate.CaseRows)
	caseFor := func(id string) *aggregate.CaseRows {
		if c, ok := cases[id]; ok {
			return c
		}
		c := &aggregate.CaseRows{}
		cases[id] = c
		return c
	}

	for _, doc := range docs {
		base := filepath.Base(doc.Path)
		caseID := constants.CaseIDFromFilename(base)
		if err := s.Ledger.AddDocument(ctx, runID, doc.Path, caseID); err != nil {
			s.Logger.Warn("extract_stage.ledger_error", "path", base, "error", err)
		}

		schema, ok := s.Registry.Schema(doc.Category)
		if !ok {
			s.Logger.Error("extract_stage.no_schema", "path", base, "category", string(doc.Category))
			continue
		}

		texts, err := s.Reader.PageTexts(doc.Path)
		if err != nil {
			s.Logger.Error("extract_stage.source_unreadable", "path", base, "error", err)
			setStatus(ctx, s.Ledger, s.Logger, runID, doc.Path, constants.DocStatusSkipped, err.Error())
			continue
		}
		docText := strings.Join(texts, "\n")

		rows, err := s.Extractor.Extract(ctx, docText, caseID, schema)
		if err != nil {
			// Recoverable: this document contributes no rows and the case
			// side stays not-OK unless another document fills it.
			s.Logger.Error("extract_stage.document_failed", "path", base, "case_id", caseID, "error", err)
			setStatus(ctx, s.Ledger, s.Logger, runID, doc.Path, constants.DocStatusFailed, err.Error())
			continue
		}

		csvPath := filepath.Join(csvDir, strings.TrimSuffix(base, filepath.Ext(base))+"_extracted.csv")
		if err := s.Export.WriteRowsCSV(csvPath, schema.Row.Columns, rows); err != nil {
			s.Logger.Error("extract_stage.export_failed", "path", csvPath, "error", err)
			setStatus(ctx, s.Ledger, s.Logger, runID, doc.Path, constants.DocStatusFailed, err.Error())
			continue
		}
		setStatus(ctx, s.Ledger, s.Logger, runID, doc.Path, constants.DocStatusExtractOK, "")

		switch doc.Category {
		case constants.Invoice:
			c := caseFor(caseID)
			c.Invoice = append(c.Invoice, rows...)
			c.InvoiceOK = true
		case constants.MedicalReport:
			c := caseFor(caseID)
			c.Report = append(c.Report, rows...)
			c.ReportOK = true
		default:
			// Audit forms and guarantee letters produce standalone CSVs
			// only; they do not participate in the case join.
		}
	}

	s.Logger.Info("extract_stage.ok", "run_id", runID, "documents", len(docs), "cases", len(cases))
	return cases, nil
}
