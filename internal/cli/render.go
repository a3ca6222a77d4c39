package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/kakeibo/internal/engine"
	"github.com/Veraticus/kakeibo/internal/model"
)

// ReviewLabel marks results that need a human to confirm them.
const ReviewLabel = "REVIEW"

// RenderResult renders a single classification inside a box.
func RenderResult(record model.TransactionRecord, result model.ClassificationResult, reviewThreshold float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Category:"), categoryLabel(result))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Confidence:"), FormatConfidence(result.Confidence, reviewThreshold))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Source:"), result.Source)
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Business:"), businessLabel(result))
	fmt.Fprintf(&b, "%s %s", BoldStyle.Render("Reasoning:"), SubtleStyle.Render(result.Reasoning))
	if len(result.MatchedEvidence) > 0 {
		fmt.Fprintf(&b, "\n%s %s", BoldStyle.Render("Evidence:"), strings.Join(result.MatchedEvidence, ", "))
	}
	if result.NeedsReview(reviewThreshold) {
		fmt.Fprintf(&b, "\n\n%s", FormatWarning("Low confidence, please review"))
	}

	return RenderBox(transactionTitle(record), b.String())
}

// RenderResults renders a batch as a table, one row per record.
func RenderResults(records []model.TransactionRecord, results []model.ClassificationResult, reviewThreshold float64) string {
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		rec := records[i]
		review := ""
		if r.NeedsReview(reviewThreshold) {
			review = WarningStyle.Render(ReviewLabel)
		}
		rows = append(rows, []string{
			rec.Date.Format("2006-01-02"),
			rec.Amount.StringFixed(0),
			truncate(firstNonEmpty(rec.MerchantName, rec.Description), 28),
			categoryLabel(r),
			FormatConfidence(r.Confidence, reviewThreshold),
			string(r.Source),
			businessLabel(r),
			review,
		})
	}
	return RenderTable(
		[]string{"Date", "Amount", "Merchant", "Category", "Conf", "Source", "Business", ""},
		rows,
	)
}

// RenderSummary renders batch statistics.
func RenderSummary(summary *engine.BatchSummary) string {
	if summary == nil {
		return ""
	}

	sources := make([]string, 0, len(summary.BySource))
	for s := range summary.BySource {
		sources = append(sources, string(s))
	}
	sort.Strings(sources)

	var b strings.Builder
	fmt.Fprintf(&b, "Classified %d transactions in %s\n", summary.Total, summary.ProcessingTime.Round(time.Millisecond))
	for _, s := range sources {
		fmt.Fprintf(&b, "  %-20s %d\n", s, summary.BySource[model.StrategyName(s)])
	}
	if summary.NeedsReview > 0 {
		b.WriteString(FormatWarning(fmt.Sprintf("%d need review", summary.NeedsReview)))
	} else {
		b.WriteString(FormatSuccess("Nothing needs review"))
	}

	return RenderBox(ChartIcon+" Summary", b.String())
}

func categoryLabel(r model.ClassificationResult) string {
	if c, ok := model.LookupCategory(r.CategoryID); ok && c.JapaneseName != "" {
		return fmt.Sprintf("%s (%s)", c.Name, c.JapaneseName)
	}
	return r.CategoryName
}

func businessLabel(r model.ClassificationResult) string {
	switch {
	case r.BusinessRatio != nil:
		return fmt.Sprintf("%.0f%%", *r.BusinessRatio*100)
	case r.IsBusiness:
		return "yes"
	default:
		return "no"
	}
}

func transactionTitle(rec model.TransactionRecord) string {
	name := firstNonEmpty(rec.MerchantName, rec.Description, "(no description)")
	return fmt.Sprintf("%s  ¥%s  %s", rec.Date.Format("2006-01-02"), rec.Amount.StringFixed(0), name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
