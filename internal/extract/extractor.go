// Package extract asks the model for structured fields per document type and
// repairs the CSV-shaped answer into rows.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/medbill-pipeline/internal/llm"
	"github.com/joseph-ayodele/medbill-pipeline/internal/tabular"
)

// ExtractedRow is one structured row stamped with the case identifier of the
// document it came from.
type ExtractedRow struct {
	CaseID string
	Fields tabular.Row
}

// FieldExtractor runs schema-specific prompts through the injected Completer
// and the shared recovery parser.
type FieldExtractor struct {
	completer llm.Completer
	parser    *tabular.Parser
	maxTokens int
	logger    *slog.Logger
}

func NewFieldExtractor(completer llm.Completer, parser *tabular.Parser, maxTokens int, logger *slog.Logger) *FieldExtractor {
	if parser == nil {
		parser = tabular.NewParser(logger)
	}
	if maxTokens <= 0 {
		maxTokens = 5700
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldExtractor{completer: completer, parser: parser, maxTokens: maxTokens, logger: logger}
}

// Extract returns zero or more rows for one derived document. A parse or
// completion failure is recoverable: the document contributes no rows and
// the caller decides whether to skip or abort.
func (e *FieldExtractor) Extract(ctx context.Context, docText, caseID string, schema Schema) ([]ExtractedRow, error) {
	start := time.Now()
	if strings.TrimSpace(docText) == "" {
		e.logger.Warn("extract.empty_document", "case_id", caseID, "category", string(schema.Category))
		return nil, nil
	}

	e.logger.Info("extract.start",
		"case_id", caseID,
		"category", string(schema.Category),
		"text_len", len(docText),
	)

	raw, err := e.completer.Complete(ctx, llm.CompletionRequest{
		Prompt:    schema.BuildPrompt(docText),
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		e.logger.Error("extract.llm_failed",
			"case_id", caseID, "category", string(schema.Category), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("extract %s for case %s: %w", schema.Category, caseID, err)
	}

	rows, err := e.parser.Parse(raw, schema.Row)
	if err != nil {
		e.logger.Error("extract.parse_failed",
			"case_id", caseID, "category", string(schema.Category), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("extract %s for case %s: %w", schema.Category, caseID, err)
	}

	out := make([]ExtractedRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ExtractedRow{CaseID: caseID, Fields: row})
	}

	e.logger.Info("extract.ok",
		"case_id", caseID,
		"category", string(schema.Category),
		"rows", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
