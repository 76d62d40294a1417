package extract

import (
	"strings"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
	"github.com/joseph-ayodele/medbill-pipeline/internal/tabular"
)

// Schema is the per-document-type extraction contract: output columns in
// order, the repair shape handed to the recovery parser, and the prompt
// instructions describing each column's semantics.
type Schema struct {
	Category     constants.Category
	Row          tabular.RowSchema
	Instructions []string
}

// BuildPrompt composes the schema-specific extraction prompt around the full
// document text.
func (s Schema) BuildPrompt(docText string) string {
	var b strings.Builder
	b.WriteString("You are a document processing assistant. Extract information specifically for a ")
	b.WriteString(string(s.Category))
	b.WriteString(".\n")
	b.WriteString("Identify and extract the following details in CSV format with exactly these columns:\n")
	for _, col := range s.Row.Columns {
		b.WriteString("- ")
		b.WriteString(col)
		b.WriteString("\n")
	}
	for _, inst := range s.Instructions {
		b.WriteString(inst)
		b.WriteString("\n")
	}
	b.WriteString("Provide the output in CSV format with these columns in this order: ")
	b.WriteString(strings.Join(s.Row.Columns, ", "))
	b.WriteString(".\n\nHere is the text:\n")
	b.WriteString(docText)
	b.WriteString("\nReturn only the CSV content with no extra explanations or commentary.")
	return b.String()
}

// defaultRegistry holds the built-in schemas. Invoice and Medical Report
// feed the case aggregator; the other two produce standalone per-case files.
func defaultRegistry() map[constants.Category]Schema {
	return map[constants.Category]Schema{
		constants.Invoice: {
			Category: constants.Invoice,
			Row: tabular.RowSchema{
				Columns:       []string{constants.ColTransactionID, constants.ColDrugName, constants.ColQuantity, constants.ColDate},
				MinFields:     4,
				FreeTextIndex: 1,
			},
			Instructions: []string{
				"Transaction_ID: the transaction identifier; use N/A when no identifier is printed.",
				"Drug_Name: the drug or service name exactly as written, including dosage.",
				"Quantity: the quantity associated with each drug.",
				"Date: the date administered in DD.MM.YYYY format; leave blank if not available.",
				"If there is a section labeled 'DRUGS / PRESCRIPTIONS / INJECTIONS', prioritize extracting items listed under it.",
				"Exclude generic or non-specific line items such as 'miscellaneous charges'.",
			},
		},
		constants.MedicalReport: {
			Category: constants.MedicalReport,
			Row: tabular.RowSchema{
				Columns:       []string{constants.ColDiagnosis, constants.ColDiagnosisType},
				MinFields:     2,
				FreeTextIndex: 0,
			},
			Instructions: []string{
				"Diagnosis: the diagnosis description exactly as written.",
				"Diagnosis_Type: Primary or Secondary; leave blank when the report does not distinguish.",
			},
		},
		constants.BillAuditForm: {
			Category: constants.BillAuditForm,
			Row: tabular.RowSchema{
				Columns:       []string{"Patient", "Item", "Charge", "Audit_Note"},
				MinFields:     4,
				FreeTextIndex: 3,
			},
			Instructions: []string{
				"Patient: the patient name or identifier on the form.",
				"Item: the itemized charge description.",
				"Charge: the amount for the item.",
				"Audit_Note: any reconciliation or audit remark for the item; leave blank if none.",
			},
		},
		constants.LetterOfGuarantee: {
			Category: constants.LetterOfGuarantee,
			Row: tabular.RowSchema{
				Columns:       []string{"Guarantor", "Coverage", "Condition"},
				MinFields:     3,
				FreeTextIndex: 2,
			},
			Instructions: []string{
				"Guarantor: the name of the guarantor.",
				"Coverage: what the guarantee covers.",
				"Condition: coverage conditions and guarantee details.",
			},
		},
	}
}

// Registry resolves the extraction schema for a category, optionally with
// user-supplied overrides layered on top of the built-ins.
type Registry struct {
	schemas map[constants.Category]Schema
}

func NewRegistry() *Registry {
	return &Registry{schemas: defaultRegistry()}
}

func (r *Registry) Schema(cat constants.Category) (Schema, bool) {
	s, ok := r.schemas[cat]
	return s, ok
}
