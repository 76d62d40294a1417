// Package split partitions a classified document into per-category PDFs.
package split

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
)

// PageGroups maps each category to its page indices in ascending order.
// Every classified page index appears in exactly one group.
type PageGroups map[constants.Category][]int

// Partition is a pure partition of page indices by classification: index i
// of classifications is page i of the source document.
func Partition(classifications []constants.Category) PageGroups {
	groups := make(PageGroups, len(constants.AllCategories()))
	for _, cat := range constants.AllCategories() {
		groups[cat] = nil
	}
	for page, cat := range classifications {
		groups[cat] = append(groups[cat], page)
	}
	return groups
}

// SubsetWriter writes a new PDF containing exactly the given 0-based pages
// of the source, in order.
type SubsetWriter interface {
	WriteSubset(srcPath string, pages []int, dstPath string) error
}

// Derived describes one emitted per-category PDF.
type Derived struct {
	Category constants.Category
	Path     string
	Pages    []int
}

type Splitter struct {
	writer SubsetWriter
	logger *slog.Logger
}

func NewSplitter(writer SubsetWriter, logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{writer: writer, logger: logger}
}

// Split emits one derived document per non-empty category. Categories with
// zero pages produce no artifact at all, not an empty one.
func (s *Splitter) Split(srcPath string, groups PageGroups, outDir string) ([]Derived, error) {
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))

	var derived []Derived
	for _, cat := range constants.AllCategories() {
		pages := groups[cat]
		if len(pages) == 0 {
			continue
		}
		dst := filepath.Join(outDir, fmt.Sprintf("%s_%s.pdf", base, cat.FileSuffix()))
		if err := s.writer.WriteSubset(srcPath, pages, dst); err != nil {
			return derived, fmt.Errorf("write %s subset of %s: %w", cat, srcPath, err)
		}
		s.logger.Info("split.derived.ok",
			"source", filepath.Base(srcPath),
			"category", string(cat),
			"pages", len(pages),
			"path", dst,
		)
		derived = append(derived, Derived{Category: cat, Path: dst, Pages: pages})
	}
	return derived, nil
}
