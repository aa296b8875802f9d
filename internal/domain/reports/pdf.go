package reports

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"giraffe/internal/domain/review"
)

// ReviewDocument carries the resolved names a review PDF needs alongside the
// review itself.
type ReviewDocument struct {
	Review       *review.Review
	BranchName   string
	ReviewerName string
}

// RenderReviewPDF writes a printable quarterly review to w.
func RenderReviewPDF(w io.Writer, doc ReviewDocument) error {
	r := doc.Review

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Quarterly Manager Review")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Manager: %s", r.SubjectLabel()))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Branch: %s", doc.BranchName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s %d", r.Quarter, r.Year))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Reviewer: %s", doc.ReviewerName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", r.Status))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Scores")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	for _, cat := range review.Categories {
		pdf.Cell(0, 7, fmt.Sprintf("%s: %s", capitalize(cat.Key), formatScore(r.CategoryScores[cat.Key])))
		pdf.Ln(6)
		for _, sub := range cat.Subcategories {
			entry := r.Scores[sub.Key]
			pdf.Cell(0, 6, fmt.Sprintf("    %s: %s", sub.Key, formatScore(entry.Score)))
			pdf.Ln(5)
		}
	}
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Overall: %s", formatScore(r.OverallScore)))
	if r.OverallScore != nil {
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 7, fmt.Sprintf("Performance level: %s", review.PerformanceLevel(*r.OverallScore)))
	}
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Branch quality metrics")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Sanitation audits: %s (%d audits)", formatScore(r.AutoMetrics.SanitationAvg), r.AutoMetrics.SanitationCount))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Dish checks: %s (%d checks)", formatScore(r.AutoMetrics.DishChecksAvg), r.AutoMetrics.DishChecksCount))
	pdf.Ln(10)

	writeTextSection(pdf, "Strengths", r.StrengthsSummary)
	writeTextSection(pdf, "Areas for improvement", r.ImprovementSummary)

	if len(r.DevelopmentGoals) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Development goals")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		for _, goal := range r.DevelopmentGoals {
			pdf.MultiCell(0, 6, fmt.Sprintf("- %s (%s)", goal.Goal, goal.Timeline), "", "L", false)
		}
		pdf.Ln(4)
	}

	writeTextSection(pdf, "Summary", r.AISummary)

	if r.ManagerAcknowledged {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 7, "Acknowledged by the reviewed manager.")
		if r.ManagerComments != "" {
			pdf.Ln(6)
			pdf.MultiCell(0, 5, "Manager comments: "+r.ManagerComments, "", "L", false)
		}
	}

	return pdf.Output(w)
}

func writeTextSection(pdf *gofpdf.Fpdf, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, body, "", "L", false)
	pdf.Ln(4)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *score)
}
