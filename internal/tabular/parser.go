// Package tabular repairs CSV-shaped LLM text into well-formed rows.
//
// Model output is not guaranteed well-formed CSV: commas inside a drug name
// or diagnosis description are a recurring failure mode, as are markdown code
// fences and commentary lines around the data. The parser makes exactly two
// bounded repair attempts and then gives up with ErrMalformedTabularOutput.
package tabular

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/medbill-pipeline/internal/common"
)

// RowSchema declares the shape every data line is normalized into.
type RowSchema struct {
	// Columns is the output column order. len(Columns) == MinFields.
	Columns []string

	// MinFields is the minimum number of comma-separated fields a line must
	// carry to count as data at all.
	MinFields int

	// FreeTextIndex is the position of the single field that may legitimately
	// contain the delimiter (e.g. a drug name). Excess interior commas are
	// folded back into it. -1 when no field has that role.
	FreeTextIndex int
}

// Row maps column name to the extracted string value.
type Row map[string]string

// Parser is the single recovery parser shared by every extraction schema.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse turns a raw completion into rows per the schema. Lines without the
// delimiter are treated as commentary and discarded; a header row matching
// the schema columns is dropped. On quoting failure a second naive pass is
// attempted for two-column schemas; after that the parse fails.
func (p *Parser) Parse(raw string, schema RowSchema) ([]Row, error) {
	if schema.MinFields <= 0 || len(schema.Columns) != schema.MinFields {
		return nil, fmt.Errorf("tabular: schema columns (%d) do not match min fields (%d)", len(schema.Columns), schema.MinFields)
	}
	if schema.FreeTextIndex >= schema.MinFields {
		return nil, fmt.Errorf("tabular: free-text index %d out of range for %d fields", schema.FreeTextIndex, schema.MinFields)
	}

	lines := dataLines(StripFences(raw), schema)
	if len(lines) == 0 {
		return nil, nil
	}

	canonical := make([]string, 0, len(lines))
	for _, line := range lines {
		if c, ok := canonicalizeLine(line, schema); ok {
			canonical = append(canonical, c)
		}
	}
	if len(canonical) == 0 {
		return nil, nil
	}

	rows, err := p.parseCSV(canonical, schema)
	if err == nil {
		return rows, nil
	}
	p.logger.Warn("tabular.parse.first_pass_failed", "error", err, "lines", len(canonical))

	// Second, last repair attempt: naive split with the whole remainder
	// folded into the trailing column. Only meaningful for schemas whose
	// two columns are both free text.
	if schema.MinFields == 2 {
		repaired := make([]string, 0, len(lines))
		for _, line := range lines {
			parts := strings.SplitN(line, ",", 2)
			if len(parts) != 2 {
				continue
			}
			repaired = append(repaired, forceQuoteField(strings.TrimSpace(parts[0]))+","+forceQuoteField(strings.TrimSpace(parts[1])))
		}
		if rows, err2 := p.parseCSV(repaired, schema); err2 == nil {
			p.logger.Warn("tabular.parse.second_pass_applied", "lines", len(repaired))
			return rows, nil
		}
	}

	return nil, fmt.Errorf("%w: %v", common.ErrMalformedTabularOutput, err)
}

// StripFences removes surrounding markdown code-fence markers (with or
// without a language tag) and outer whitespace.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	return strings.Trim(strings.TrimSpace(s), "`")
}

// dataLines keeps only delimiter-bearing lines and drops a leading header
// row that just echoes the schema columns.
func dataLines(text string, schema RowSchema) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, ",") {
			continue
		}
		if len(out) == 0 && isHeaderLine(line, schema) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isHeaderLine(line string, schema RowSchema) bool {
	parts := strings.Split(line, ",")
	if len(parts) != len(schema.Columns) {
		return false
	}
	for i, part := range parts {
		if !strings.EqualFold(strings.TrimSpace(part), schema.Columns[i]) {
			return false
		}
	}
	return true
}

// canonicalizeLine rebuilds one logical line with exactly MinFields top-level
// fields. Lines with too few fields are not data and are dropped; excess
// interior delimiters are folded into the free-text field and re-quoted.
func canonicalizeLine(line string, schema RowSchema) (string, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < schema.MinFields {
		return "", false
	}
	if len(parts) > schema.MinFields && schema.FreeTextIndex < 0 {
		// No field may absorb the extras; leave the line for the CSV pass,
		// which will reject it row-wise if the quoting doesn't resolve it.
		return line, true
	}

	fields := make([]string, 0, schema.MinFields)
	if len(parts) == schema.MinFields {
		for _, part := range parts {
			fields = append(fields, strings.TrimSpace(part))
		}
	} else {
		trailing := schema.MinFields - schema.FreeTextIndex - 1
		for _, part := range parts[:schema.FreeTextIndex] {
			fields = append(fields, strings.TrimSpace(part))
		}
		middle := strings.Join(parts[schema.FreeTextIndex:len(parts)-trailing], ",")
		fields = append(fields, strings.TrimSpace(middle))
		for _, part := range parts[len(parts)-trailing:] {
			fields = append(fields, strings.TrimSpace(part))
		}
	}

	for i, f := range fields {
		fields[i] = quoteField(f)
	}
	return strings.Join(fields, ","), true
}

// quoteField re-quotes a field whose value contains the delimiter or a
// quote. Fields that already arrive quoted are trusted as-is so a correctly
// formed line survives the repair byte for byte.
func quoteField(f string) string {
	if strings.HasPrefix(f, `"`) && strings.HasSuffix(f, `"`) && len(f) >= 2 {
		return f
	}
	return forceQuoteField(f)
}

// forceQuoteField escapes unconditionally; the second pass uses it because
// by then the original quoting has already failed once.
func forceQuoteField(f string) string {
	if strings.ContainsAny(f, `",`) {
		return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return f
}

// parseCSV hands the canonicalized blob to a quote-aware CSV reader and maps
// records onto the schema columns. Rows with the wrong field count are
// dropped, not defaulted.
func (p *Parser) parseCSV(lines []string, schema RowSchema) ([]Row, error) {
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if len(rec) != schema.MinFields {
			p.logger.Warn("tabular.parse.row_dropped", "fields", len(rec), "want", schema.MinFields)
			continue
		}
		row := make(Row, schema.MinFields)
		for i, col := range schema.Columns {
			row[col] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}
