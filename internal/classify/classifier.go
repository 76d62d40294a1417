// Package classify assigns each page of a scanned billing document to one of
// the four document categories.
package classify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
	"github.com/joseph-ayodele/medbill-pipeline/internal/llm"
)

// Classifier turns page text into exactly one category. It never fails:
// empty pages, LLM errors, and out-of-taxonomy answers all resolve to
// constants.DefaultCategory.
type Classifier struct {
	completer llm.Completer
	maxTokens int
	logger    *slog.Logger
}

func NewClassifier(completer llm.Completer, maxTokens int, logger *slog.Logger) *Classifier {
	if maxTokens <= 0 {
		maxTokens = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{completer: completer, maxTokens: maxTokens, logger: logger}
}

// Classify returns the category for one page. pageIndex is only for logging.
func (c *Classifier) Classify(ctx context.Context, pageText string, pageIndex int) constants.Category {
	if strings.TrimSpace(pageText) == "" {
		c.logger.Debug("classify.empty_page", "page", pageIndex, "category", string(constants.DefaultCategory))
		return constants.DefaultCategory
	}

	answer, err := c.completer.Complete(ctx, llm.CompletionRequest{
		Prompt:    buildPrompt(pageText),
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		c.logger.Warn("classify.llm_failed",
			"page", pageIndex, "error", err,
			"category", string(constants.DefaultCategory),
		)
		return constants.DefaultCategory
	}

	cat, ok := constants.ParseCategory(answer)
	if !ok {
		c.logger.Warn("classify.out_of_taxonomy",
			"page", pageIndex, "answer", answer,
			"category", string(constants.DefaultCategory),
		)
		return constants.DefaultCategory
	}

	c.logger.Info("classify.ok", "page", pageIndex, "category", string(cat))
	return cat
}

func buildPrompt(pageText string) string {
	parts := []string{
		"You are a document classification assistant. Your job is to categorize the given text " +
			"into one of the following categories:",
		"1. Bill Audit Form",
		"2. Invoice",
		"3. Letter of Guarantee",
		"4. Medical Report",
		"",
		"Below are cues for each type:",
		"Bill Audit Form: auditing of a medical bill, with patient details, itemized charges, " +
			"reconciliation or audit notes.",
		"Invoice: billing information such as line items, prices, discounts, total amounts, " +
			"and phrases like 'Invoice Number' or 'Tax Invoice'.",
		"Letter of Guarantee: a formal letter ensuring payment or coverage, naming guarantors " +
			"and guarantee conditions.",
		"Medical Report: medical information such as diagnosis, treatment plan, doctor's notes, " +
			"or prescribed medications.",
		"",
		"Precedence rules for ambiguous pages:",
		"If the text contains 'Tax Invoice', choose Invoice even when audit-like phrasing is also present.",
		"A hospital letterhead or stamp at the top of the page biases toward Invoice or Medical Report " +
			"over Bill Audit Form.",
		"",
		"You must choose exactly one of the four categories. Make the best choice even if it requires " +
			"an educated guess. If you are unsure, choose 'Medical Report'.",
		"",
		"Text: " + pageText,
		"",
		"Please provide only the category name as your answer.",
	}
	return strings.Join(parts, "\n")
}
