package split

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
)

func TestPartitionCompleteness(t *testing.T) {
	tests := []struct {
		name            string
		classifications []constants.Category
	}{
		{name: "empty", classifications: nil},
		{name: "single page", classifications: []constants.Category{constants.Invoice}},
		{
			name: "three pages two categories",
			classifications: []constants.Category{
				constants.Invoice, constants.Invoice, constants.MedicalReport,
			},
		},
		{
			name: "all four categories interleaved",
			classifications: []constants.Category{
				constants.MedicalReport, constants.BillAuditForm, constants.Invoice,
				constants.LetterOfGuarantee, constants.Invoice, constants.MedicalReport,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Partition(tt.classifications)

			seen := map[int]int{}
			total := 0
			for _, cat := range constants.AllCategories() {
				prev := -1
				for _, page := range groups[cat] {
					if page <= prev {
						t.Errorf("%s: pages not ascending: %v", cat, groups[cat])
					}
					prev = page
					seen[page]++
					total++
				}
			}
			if total != len(tt.classifications) {
				t.Fatalf("partition lost pages: %d grouped, %d classified", total, len(tt.classifications))
			}
			for page, n := range seen {
				if n != 1 {
					t.Errorf("page %d appears %d times", page, n)
				}
				if page < 0 || page >= len(tt.classifications) {
					t.Errorf("page %d out of range", page)
				}
			}
		})
	}
}

func TestPartitionThreePageScenario(t *testing.T) {
	groups := Partition([]constants.Category{constants.Invoice, constants.Invoice, constants.MedicalReport})

	wantInvoice := []int{0, 1}
	if len(groups[constants.Invoice]) != 2 ||
		groups[constants.Invoice][0] != wantInvoice[0] ||
		groups[constants.Invoice][1] != wantInvoice[1] {
		t.Errorf("invoice pages: got %v want %v", groups[constants.Invoice], wantInvoice)
	}
	if len(groups[constants.MedicalReport]) != 1 || groups[constants.MedicalReport][0] != 2 {
		t.Errorf("medical report pages: got %v want [2]", groups[constants.MedicalReport])
	}
	if len(groups[constants.BillAuditForm]) != 0 || len(groups[constants.LetterOfGuarantee]) != 0 {
		t.Errorf("expected empty groups for unused categories")
	}
}

type fakeWriter struct {
	calls []struct {
		src   string
		pages []int
		dst   string
	}
	err error
}

func (f *fakeWriter) WriteSubset(src string, pages []int, dst string) error {
	f.calls = append(f.calls, struct {
		src   string
		pages []int
		dst   string
	}{src, pages, dst})
	return f.err
}

func TestSplitEmitsOnlyNonEmptyCategories(t *testing.T) {
	w := &fakeWriter{}
	s := NewSplitter(w, nil)

	groups := Partition([]constants.Category{constants.Invoice, constants.Invoice, constants.MedicalReport})
	derived, err := s.Split("/in/7001_scan_ocr.pdf", groups, "/out")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(derived) != 2 {
		t.Fatalf("expected 2 derived documents, got %d", len(derived))
	}
	if len(w.calls) != 2 {
		t.Fatalf("expected 2 writer calls, got %d", len(w.calls))
	}

	if derived[0].Category != constants.Invoice {
		t.Errorf("first derived should be Invoice, got %q", derived[0].Category)
	}
	wantPath := filepath.Join("/out", "7001_scan_ocr_Invoice.pdf")
	if derived[0].Path != wantPath {
		t.Errorf("derived path: got %q want %q", derived[0].Path, wantPath)
	}
	wantReport := filepath.Join("/out", "7001_scan_ocr_Medical_Report.pdf")
	if derived[1].Path != wantReport {
		t.Errorf("derived path: got %q want %q", derived[1].Path, wantReport)
	}
}

func TestSplitWriterFailureStops(t *testing.T) {
	w := &fakeWriter{err: errors.New("disk full")}
	s := NewSplitter(w, nil)

	groups := Partition([]constants.Category{constants.Invoice})
	if _, err := s.Split("/in/a_b.pdf", groups, "/out"); err == nil {
		t.Fatal("expected error from writer")
	}
}
