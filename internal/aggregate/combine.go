// Package aggregate merges per-document-type extraction output into one
// record set per patient case.
package aggregate

import (
	"log/slog"
	"sort"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
	"github.com/joseph-ayodele/medbill-pipeline/internal/common"
	"github.com/joseph-ayodele/medbill-pipeline/internal/extract"
)

// CaseRows collects one case's extraction results. The OK flags distinguish
// "extraction succeeded with an empty table" from "extraction never happened
// or failed". Only the former counts as a present side for the join.
type CaseRows struct {
	Invoice   []extract.ExtractedRow
	Report    []extract.ExtractedRow
	InvoiceOK bool
	ReportOK  bool
}

// CaseRecord is the merged view of one invoice-row/report-row pairing,
// projected to the fixed output columns.
type CaseRecord struct {
	CaseID        string
	TransactionID string
	Date          string
	DrugName      string
	Quantity      string
	Diagnosis     string
	DiagnosisType string
}

// Values returns the record in constants.CombinedColumns order.
func (r CaseRecord) Values() []string {
	return []string{r.CaseID, r.TransactionID, r.Date, r.DrugName, r.Quantity, r.Diagnosis, r.DiagnosisType}
}

type Aggregator struct {
	logger *slog.Logger
}

func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Combine outer-joins each case's invoice and report rows on the case
// identifier. A case missing either side entirely is excluded from the
// output and reported in skipped; incomplete case data fails loud, it is
// never silently defaulted. Output is ordered by case identifier.
func (a *Aggregator) Combine(cases map[string]*CaseRows) (records []CaseRecord, skipped []string) {
	ids := make([]string, 0, len(cases))
	for id := range cases {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		c := cases[id]
		if !c.InvoiceOK || !c.ReportOK {
			a.logger.Warn("aggregate.incomplete_case",
				"case_id", id,
				"invoice_ok", c.InvoiceOK,
				"report_ok", c.ReportOK,
				"error", common.ErrIncompleteCaseData,
			)
			skipped = append(skipped, id)
			continue
		}
		records = append(records, joinCase(id, c)...)
	}
	return records, skipped
}

// joinCase produces the outer join of one case: every invoice row paired
// with every report row; unmatched rows on either side appear once with
// blank counterpart fields.
func joinCase(id string, c *CaseRows) []CaseRecord {
	switch {
	case len(c.Invoice) == 0 && len(c.Report) == 0:
		return nil
	case len(c.Report) == 0:
		out := make([]CaseRecord, 0, len(c.Invoice))
		for _, inv := range c.Invoice {
			out = append(out, mergeRows(id, inv.Fields, nil))
		}
		return out
	case len(c.Invoice) == 0:
		out := make([]CaseRecord, 0, len(c.Report))
		for _, rep := range c.Report {
			out = append(out, mergeRows(id, nil, rep.Fields))
		}
		return out
	default:
		out := make([]CaseRecord, 0, len(c.Invoice)*len(c.Report))
		for _, inv := range c.Invoice {
			for _, rep := range c.Report {
				out = append(out, mergeRows(id, inv.Fields, rep.Fields))
			}
		}
		return out
	}
}

func mergeRows(id string, invoice, report map[string]string) CaseRecord {
	rec := CaseRecord{CaseID: id}
	if invoice != nil {
		rec.TransactionID = invoice[constants.ColTransactionID]
		rec.Date = invoice[constants.ColDate]
		rec.DrugName = invoice[constants.ColDrugName]
		rec.Quantity = invoice[constants.ColQuantity]
	}
	if report != nil {
		rec.Diagnosis = report[constants.ColDiagnosis]
		rec.DiagnosisType = report[constants.ColDiagnosisType]
	}
	return rec
}
