package constants

// DocStatus is the canonical status for rows in the batch job ledger.
type DocStatus string

// Stable values (store these exact strings in the ledger).
const (
	DocStatusQueued    DocStatus = "QUEUED"     // discovered, not yet processed
	DocStatusRunning   DocStatus = "RUNNING"    // in progress
	DocStatusOCROK     DocStatus = "OCR_OK"     // stage 1 completed (searchable PDF produced)
	DocStatusSplitOK   DocStatus = "SPLIT_OK"   // stage 2 completed (derived PDFs written)
	DocStatusExtractOK DocStatus = "EXTRACT_OK" // stage 3 completed (rows extracted)
	DocStatusSkipped   DocStatus = "SKIPPED"    // unreadable or empty source, left out of the run
	DocStatusFailed    DocStatus = "FAILED"     // terminal failure
)
