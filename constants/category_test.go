package constants

import "testing"

func TestCategoryFromFilename(t *testing.T) {
	tests := []struct {
		name string
		base string
		want Category
		ok   bool
	}{
		{name: "invoice suffix", base: "7001_scan_Invoice.pdf", want: Invoice, ok: true},
		{name: "report suffix with underscores", base: "7001_scan_Medical_Report.pdf", want: MedicalReport, ok: true},
		{name: "audit form suffix", base: "7002_Bill_Audit_Form.pdf", want: BillAuditForm, ok: true},
		{name: "guarantee suffix", base: "7002_Letter_of_Guarantee.pdf", want: LetterOfGuarantee, ok: true},
		{name: "suffix survives ocr renaming", base: "7001_scan_Invoice_ocr.pdf", want: Invoice, ok: true},
		{name: "report suffix survives ocr renaming", base: "7001_scan_Medical_Report_ocr.pdf", want: MedicalReport, ok: true},
		{name: "plain scan", base: "7001_scan.pdf", ok: false},
		{name: "ocr output without category", base: "7001_scan_ocr.pdf", ok: false},
		{name: "category word mid-name only", base: "Invoice_7001.pdf", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CategoryFromFilename(tt.base)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("category = %q, want %q", got, tt.want)
			}
		})
	}
}
