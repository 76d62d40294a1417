package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
	"github.com/joseph-ayodele/medbill-pipeline/internal/common"
	"github.com/joseph-ayodele/medbill-pipeline/internal/export"
	"github.com/joseph-ayodele/medbill-pipeline/internal/extract"
	"github.com/joseph-ayodele/medbill-pipeline/internal/split"
	"github.com/joseph-ayodele/medbill-pipeline/internal/tabular"
)

type fakeReader struct {
	pages map[string][]string
	errOn map[string]error
	calls int
}

func (f *fakeReader) PageTexts(path string) ([]string, error) {
	f.calls++
	if err, ok := f.errOn[path]; ok {
		return nil, err
	}
	return f.pages[path], nil
}

type fakeClassifier struct {
	byText map[string]constants.Category
	calls  int
}

func (f *fakeClassifier) Classify(_ context.Context, pageText string, _ int) constants.Category {
	f.calls++
	if cat, ok := f.byText[pageText]; ok {
		return cat
	}
	return constants.DefaultCategory
}

type fakeSplitter struct {
	gotGroups split.PageGroups
	out       []split.Derived
	err       error
}

func (f *fakeSplitter) Split(_ string, groups split.PageGroups, _ string) ([]split.Derived, error) {
	f.gotGroups = groups
	return f.out, f.err
}

type fakeExtractor struct {
	rowsByCase map[string][]extract.ExtractedRow
	errOn      map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, caseID string, _ extract.Schema) ([]extract.ExtractedRow, error) {
	if err, ok := f.errOn[caseID]; ok {
		return nil, err
	}
	return f.rowsByCase[caseID], nil
}

type fakeLedger struct {
	added    []string
	statuses map[string]constants.DocStatus
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{statuses: make(map[string]constants.DocStatus)}
}

func (f *fakeLedger) AddDocument(_ context.Context, _ string, path, _ string) error {
	f.added = append(f.added, path)
	return nil
}

func (f *fakeLedger) SetStatus(_ context.Context, _ string, path string, status constants.DocStatus, _ string) error {
	f.statuses[path] = status
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSplitStagePresplitRouting(t *testing.T) {
	tests := []struct {
		name string
		base string
		want constants.Category
	}{
		{name: "raw pre-split input", base: "7001_scan_Invoice.pdf", want: constants.Invoice},
		{name: "pre-split input after ocr renaming", base: "7001_scan_Invoice_ocr.pdf", want: constants.Invoice},
		{name: "report after ocr renaming", base: "7002_scan_Medical_Report_ocr.pdf", want: constants.MedicalReport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{}
			classifier := &fakeClassifier{}
			ledger := newFakeLedger()
			stage := NewSplitStage(reader, classifier, &fakeSplitter{}, ledger, discard())

			path := filepath.Join("out", tt.base)
			derived, err := stage.Run(context.Background(), "run1", []string{path}, "split")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(derived) != 1 || derived[0].Category != tt.want || derived[0].Path != path {
				t.Fatalf("derived = %+v", derived)
			}
			if reader.calls != 0 || classifier.calls != 0 {
				t.Fatalf("pre-split file was read (%d) or classified (%d)", reader.calls, classifier.calls)
			}
			if len(ledger.added) != 1 || ledger.added[0] != path {
				t.Fatalf("document not registered, added = %v", ledger.added)
			}
			if ledger.statuses[path] != constants.DocStatusSplitOK {
				t.Fatalf("status = %s", ledger.statuses[path])
			}
		})
	}
}

func TestSplitStageUnreadableSourceSkipped(t *testing.T) {
	bad := filepath.Join("out", "9999_scan_ocr.pdf")
	good := filepath.Join("out", "7001_scan_ocr.pdf")
	reader := &fakeReader{
		pages: map[string][]string{good: {"invoice page"}},
		errOn: map[string]error{bad: fmt.Errorf("open %s: %w", bad, common.ErrSourceUnreadable)},
	}
	classifier := &fakeClassifier{byText: map[string]constants.Category{"invoice page": constants.Invoice}}
	splitter := &fakeSplitter{out: []split.Derived{{Category: constants.Invoice, Path: "split/7001_scan_ocr_Invoice.pdf", Pages: []int{0}}}}
	ledger := newFakeLedger()
	stage := NewSplitStage(reader, classifier, splitter, ledger, discard())

	derived, err := stage.Run(context.Background(), "run1", []string{bad, good}, "split")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(derived) != 1 {
		t.Fatalf("derived = %+v", derived)
	}
	if len(ledger.added) != 2 {
		t.Fatalf("both documents must be registered, added = %v", ledger.added)
	}
	if ledger.statuses[bad] != constants.DocStatusSkipped {
		t.Fatalf("bad status = %s", ledger.statuses[bad])
	}
	if ledger.statuses[good] != constants.DocStatusSplitOK {
		t.Fatalf("good status = %s", ledger.statuses[good])
	}
}

func TestSplitStageClassifiesEveryPage(t *testing.T) {
	path := filepath.Join("out", "7001_scan_ocr.pdf")
	reader := &fakeReader{pages: map[string][]string{path: {"inv one", "inv two", "report"}}}
	classifier := &fakeClassifier{byText: map[string]constants.Category{
		"inv one": constants.Invoice,
		"inv two": constants.Invoice,
		"report":  constants.MedicalReport,
	}}
	splitter := &fakeSplitter{}
	stage := NewSplitStage(reader, classifier, splitter, newFakeLedger(), discard())

	if _, err := stage.Run(context.Background(), "run1", []string{path}, "split"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if classifier.calls != 3 {
		t.Fatalf("classifier calls = %d, want 3", classifier.calls)
	}
	wantInvoice := []int{0, 1}
	gotInvoice := splitter.gotGroups[constants.Invoice]
	if len(gotInvoice) != len(wantInvoice) || gotInvoice[0] != 0 || gotInvoice[1] != 1 {
		t.Fatalf("invoice pages = %v, want %v", gotInvoice, wantInvoice)
	}
	if got := splitter.gotGroups[constants.MedicalReport]; len(got) != 1 || got[0] != 2 {
		t.Fatalf("report pages = %v, want [2]", got)
	}
}

func invoiceRow(caseID, tx, drug, qty, date string) extract.ExtractedRow {
	return extract.ExtractedRow{CaseID: caseID, Fields: tabular.Row{
		constants.ColTransactionID: tx,
		constants.ColDrugName:      drug,
		constants.ColQuantity:      qty,
		constants.ColDate:          date,
	}}
}

func TestExtractStageAccumulatesCases(t *testing.T) {
	dir := t.TempDir()
	invoicePath := filepath.Join(dir, "7001_scan_ocr_Invoice.pdf")
	reportPath := filepath.Join(dir, "7001_scan_ocr_Medical_Report.pdf")
	reader := &fakeReader{pages: map[string][]string{
		invoicePath: {"invoice text"},
		reportPath:  {"report text"},
	}}
	extractor := &fakeExtractor{rowsByCase: map[string][]extract.ExtractedRow{
		"7001": {invoiceRow("7001", "TX1", "Aspirin", "5", "01.01.2024")},
	}}
	ledger := newFakeLedger()
	stage := NewExtractStage(reader, extractor, extract.NewRegistry(), export.NewService(discard()), ledger, discard())

	docs := []split.Derived{
		{Category: constants.Invoice, Path: invoicePath},
		{Category: constants.MedicalReport, Path: reportPath},
	}
	cases, err := stage.Run(context.Background(), "run1", docs, dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	c, ok := cases["7001"]
	if !ok {
		t.Fatalf("case 7001 missing, cases = %v", cases)
	}
	if !c.InvoiceOK || !c.ReportOK {
		t.Fatalf("ok flags = %v/%v, want both true", c.InvoiceOK, c.ReportOK)
	}
	if len(c.Invoice) != 1 {
		t.Fatalf("invoice rows = %d", len(c.Invoice))
	}
	for _, p := range []string{invoicePath, reportPath} {
		if ledger.statuses[p] != constants.DocStatusExtractOK {
			t.Fatalf("%s status = %s", p, ledger.statuses[p])
		}
	}
	csvPath := filepath.Join(dir, "7001_scan_ocr_Invoice_extracted.csv")
	if _, err := os.Stat(csvPath); err != nil {
		t.Fatalf("per-document csv missing: %v", err)
	}
}

func TestExtractStageFailedDocumentContributesNoRows(t *testing.T) {
	dir := t.TempDir()
	invoicePath := filepath.Join(dir, "7001_a_Invoice.pdf")
	reportPath := filepath.Join(dir, "7002_b_Medical_Report.pdf")
	reader := &fakeReader{pages: map[string][]string{
		invoicePath: {"invoice text"},
		reportPath:  {"report text"},
	}}
	extractor := &fakeExtractor{
		rowsByCase: map[string][]extract.ExtractedRow{
			"7002": {{CaseID: "7002", Fields: tabular.Row{constants.ColDiagnosis: "Flu", constants.ColDiagnosisType: "Primary"}}},
		},
		errOn: map[string]error{"7001": common.ErrMalformedTabularOutput},
	}
	ledger := newFakeLedger()
	stage := NewExtractStage(reader, extractor, extract.NewRegistry(), export.NewService(discard()), ledger, discard())

	docs := []split.Derived{
		{Category: constants.Invoice, Path: invoicePath},
		{Category: constants.MedicalReport, Path: reportPath},
	}
	cases, err := stage.Run(context.Background(), "run1", docs, dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := cases["7001"]; ok {
		t.Fatal("failed document must not create a case entry")
	}
	if c := cases["7002"]; c == nil || !c.ReportOK {
		t.Fatalf("case 7002 = %+v", c)
	}
	if ledger.statuses[invoicePath] != constants.DocStatusFailed {
		t.Fatalf("failed doc status = %s", ledger.statuses[invoicePath])
	}
}

func TestExtractStageNonJoinCategoriesStayOutOfCases(t *testing.T) {
	dir := t.TempDir()
	auditPath := filepath.Join(dir, "7001_a_Bill_Audit_Form.pdf")
	reader := &fakeReader{pages: map[string][]string{auditPath: {"audit text"}}}
	extractor := &fakeExtractor{rowsByCase: map[string][]extract.ExtractedRow{
		"7001": {{CaseID: "7001", Fields: tabular.Row{"Patient": "A"}}},
	}}
	stage := NewExtractStage(reader, extractor, extract.NewRegistry(), export.NewService(discard()), newFakeLedger(), discard())

	cases, err := stage.Run(context.Background(), "run1",
		[]split.Derived{{Category: constants.BillAuditForm, Path: auditPath}}, dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cases) != 0 {
		t.Fatalf("cases = %v, want none", cases)
	}
	csvPath := filepath.Join(dir, "7001_a_Bill_Audit_Form_extracted.csv")
	if _, err := os.Stat(csvPath); err != nil {
		t.Fatalf("standalone csv missing: %v", err)
	}
}
