package constants

// Column names shared between extraction schemas and the case aggregator.
const (
	ColCaseID        = "Case_ID"
	ColTransactionID = "Transaction_ID"
	ColDrugName      = "Drug_Name"
	ColQuantity      = "Quantity"
	ColDate          = "Date"
	ColDiagnosis     = "Diagnosis"
	ColDiagnosisType = "Diagnosis_Type"
)

// CombinedColumns is the fixed projection of the merged per-case output.
var CombinedColumns = []string{
	ColCaseID,
	ColTransactionID,
	ColDate,
	ColDrugName,
	ColQuantity,
	ColDiagnosis,
	ColDiagnosisType,
}
