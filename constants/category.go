package constants

import (
	"strings"
)

// Category is the closed set of document types a page can be classified into.
type Category string

const (
	BillAuditForm     Category = "Bill Audit Form"
	Invoice           Category = "Invoice"
	LetterOfGuarantee Category = "Letter of Guarantee"
	MedicalReport     Category = "Medical Report"
)

// DefaultCategory is the catch-all used for empty pages, out-of-taxonomy
// answers, and failed classification calls.
const DefaultCategory = MedicalReport

var allCategories = []Category{
	BillAuditForm,
	Invoice,
	LetterOfGuarantee,
	MedicalReport,
}

// AllCategories returns the taxonomy in stable order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// ParseCategory maps a model answer onto the taxonomy by exact membership
// after trimming. Extra words, wrong casing, and hallucinated labels all
// report ok=false; callers fall back to DefaultCategory.
func ParseCategory(input string) (Category, bool) {
	trimmed := strings.TrimSpace(input)
	for _, cat := range allCategories {
		if trimmed == string(cat) {
			return cat, true
		}
	}
	return DefaultCategory, false
}

// FileSuffix is the category token used in derived PDF filenames,
// e.g. "1193-20-02_ocr_Medical_Report.pdf".
func (c Category) FileSuffix() string {
	return strings.ReplaceAll(string(c), " ", "_")
}

// CategoryFromFilename recognizes pre-split files by their derived-name
// suffix so they can be routed straight to the matching extractor. The OCR
// stage appends an "_ocr" token when it renames its output, so a trailing
// "_ocr" is ignored before matching.
func CategoryFromFilename(base string) (Category, bool) {
	name := strings.TrimSuffix(base, ".pdf")
	name = strings.TrimSuffix(name, "_ocr")
	for _, cat := range allCategories {
		if strings.HasSuffix(name, "_"+cat.FileSuffix()) {
			return cat, true
		}
	}
	return "", false
}
