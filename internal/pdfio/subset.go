package pdfio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// SubsetWriter produces a new PDF containing exactly the requested pages of
// a source PDF, in the given order. Implements split.SubsetWriter.
type SubsetWriter struct {
	logger *slog.Logger
}

func NewSubsetWriter(logger *slog.Logger) *SubsetWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubsetWriter{logger: logger}
}

// WriteSubset writes dstPath with the 0-based pages of srcPath.
func (w *SubsetWriter) WriteSubset(srcPath string, pages []int, dstPath string) error {
	if len(pages) == 0 {
		return fmt.Errorf("write subset of %s: no pages selected", srcPath)
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// pdfcpu selects pages 1-based.
	selected := make([]string, len(pages))
	for i, p := range pages {
		selected[i] = strconv.Itoa(p + 1)
	}

	if err := api.CollectFile(srcPath, dstPath, selected, nil); err != nil {
		return fmt.Errorf("collect pages from %s: %w", srcPath, err)
	}
	w.logger.Debug("pdfio.subset.ok", "src", srcPath, "dst", dstPath, "pages", len(pages))
	return nil
}
