// Package pdfio adapts the PDF collaborators: per-page text extraction and
// page-subset writing. Nothing above this package touches a PDF library.
package pdfio

import (
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/medbill-pipeline/internal/common"
)

// Reader extracts per-page plain text from a PDF.
type Reader struct {
	logger *slog.Logger
}

func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// PageTexts returns the plain text of every page in physical order. A page
// whose text cannot be decoded yields an empty string (downstream treats
// empty pages as non-informative); a document that cannot be opened at all,
// or has zero pages, is unreadable.
func (r *Reader) PageTexts(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrSourceUnreadable, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Warn("pdfio.close_error", "path", path, "error", cerr)
		}
	}()

	total := reader.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("%w: %s has no pages", common.ErrSourceUnreadable, path)
	}

	texts := make([]string, 0, total)
	for pageNum := 1; pageNum <= total; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			r.logger.Warn("pdfio.null_page", "path", path, "page", pageNum)
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			r.logger.Warn("pdfio.page_text_error", "path", path, "page", pageNum, "error", err)
			texts = append(texts, "")
			continue
		}
		texts = append(texts, text)
	}

	r.logger.Debug("pdfio.page_texts.ok", "path", path, "pages", total)
	return texts, nil
}
