package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/medbill-pipeline/internal/aggregate"
	"github.com/joseph-ayodele/medbill-pipeline/internal/export"
)

// CombineStage merges the per-case rows and writes the final outputs.
type CombineStage struct {
	Aggregator *aggregate.Aggregator
	Export     *export.Service
	Logger     *slog.Logger
}

func NewCombineStage(agg *aggregate.Aggregator, exp *export.Service, logger *slog.Logger) *CombineStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &CombineStage{Aggregator: agg, Export: exp, Logger: logger}
}

// Run joins all cases and writes the combined CSV plus its XLSX twin.
// Returns the combined CSV path.
func (s *CombineStage) Run(outDir string, cases map[string]*aggregate.CaseRows) (string, error) {
	records, skipped := s.Aggregator.Combine(cases)
	for _, id := range skipped {
		s.Logger.Warn("combine_stage.case_skipped", "case_id", id)
	}

	csvPath, err := s.Export.WriteCombinedCSV(outDir, records)
	if err != nil {
		return "", fmt.Errorf("write combined csv: %w", err)
	}
	xlsxPath := strings.TrimSuffix(csvPath, ".csv") + ".xlsx"
	if err := s.Export.WriteCombinedXLSX(xlsxPath, records); err != nil {
		return csvPath, fmt.Errorf("write combined xlsx: %w", err)
	}

	s.Logger.Info("combine_stage.ok", "records", len(records), "skipped_cases", len(skipped), "path", csvPath)
	return csvPath, nil
}
