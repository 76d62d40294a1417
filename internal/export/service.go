// Package export writes extraction output to the external store: per-case
// CSV files and the timestamped combined table (CSV plus an XLSX twin).
package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
	"github.com/joseph-ayodele/medbill-pipeline/internal/aggregate"
	"github.com/joseph-ayodele/medbill-pipeline/internal/extract"
)

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WriteRowsCSV writes one document's extracted rows with a header line.
func (s *Service) WriteRowsCSV(path string, columns []string, rows []extract.ExtractedRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("export.close_error", "path", path, "error", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		rec := make([]string, len(columns))
		for i, col := range columns {
			rec[i] = row.Fields[col]
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	s.logger.Info("export.rows_csv.ok", "path", path, "rows", len(rows))
	return nil
}

// WriteCombinedCSV unions all merged case records into one timestamped file
// and returns its path.
func (s *Service) WriteCombinedCSV(outDir string, records []aggregate.CaseRecord) (string, error) {
	return s.writeCombinedCSVAt(outDir, records, time.Now())
}

func (s *Service) writeCombinedCSVAt(outDir string, records []aggregate.CaseRecord, now time.Time) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(outDir, fmt.Sprintf("combined_transformed_data_%s.csv", now.Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("export.close_error", "path", path, "error", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(constants.CombinedColumns); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Values()); err != nil {
			return "", fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}

	s.logger.Info("export.combined_csv.ok", "path", path, "rows", len(records))
	return path, nil
}

// WriteCombinedXLSX writes the same records as a workbook for reviewers who
// live in spreadsheets.
func (s *Service) WriteCombinedXLSX(path string, records []aggregate.CaseRecord) error {
	f := excelize.NewFile()
	const sheet = "Cases"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defIdx, _ := f.GetSheetIndex("Sheet1"); defIdx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range constants.CombinedColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	row := 2
	for _, rec := range records {
		for col, v := range rec.Values() {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "B", 14) // case + transaction ids
	_ = f.SetColWidth(sheet, "C", "C", 12) // date
	_ = f.SetColWidth(sheet, "D", "D", 36) // drug/service
	_ = f.SetColWidth(sheet, "F", "F", 36) // diagnosis

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.combined_xlsx.ok", "path", path, "rows", len(records))
	return nil
}
