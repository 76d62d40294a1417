// Package ocr wraps the external OCR tool that turns a scanned PDF into a
// searchable one.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	OCRmyPDF string        // binary name or absolute path; if empty -> "ocrmypdf"
	Timeout  time.Duration // per-file budget; 0 = no limit
}

// Processor runs OCR one input file at a time.
type Processor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewProcessor(cfg Config, logger *slog.Logger) *Processor {
	if cfg.OCRmyPDF == "" {
		cfg.OCRmyPDF = "ocrmypdf"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Process OCRs one PDF into outputPath. The deskew and force-ocr flags
// match how scanned billing documents arrive: skewed and image-only.
func (p *Processor) Process(ctx context.Context, inputPath, outputPath string) error {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create ocr output dir: %w", err)
	}

	start := time.Now()
	_, errb, err := p.runner.Run(ctx, p.cfg.OCRmyPDF, "--deskew", "--force-ocr", inputPath, outputPath)
	if err != nil {
		return fmt.Errorf("ocrmypdf %s: %w: %s", filepath.Base(inputPath), err, truncate(string(errb), 1<<10))
	}

	p.logger.Info("ocr.ok",
		"input", filepath.Base(inputPath),
		"output", filepath.Base(outputPath),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
