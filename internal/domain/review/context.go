package review

import (
	"fmt"
	"strings"
)

const notScored = "not yet scored"

var subcategoryLabels = map[string]string{
	SubSanitation:  "Sanitation & food safety",
	SubInventory:   "Inventory & cost control",
	SubQuality:     "Product & service quality",
	SubMaintenance: "Maintenance & order",
	SubRecruitment: "Recruitment & training",
	SubScheduling:  "Shift scheduling",
	SubRetention:   "Team climate & retention",
	SubSales:       "Sales & profitability",
	SubEfficiency:  "Operational efficiency",
	SubLeadership:  "Leadership & personal development",
}

var categoryLabels = map[string]string{
	CategoryOperational: "Operational management",
	CategoryPeople:      "People management",
	CategoryBusiness:    "Business performance",
	CategoryLeadership:  "Leadership",
}

// ContextNames carries the display names the context document needs beyond
// what the review record itself holds.
type ContextNames struct {
	BranchName   string
	ReviewerName string
}

// BuildContext renders the review into the structured text document the
// narrative pipeline submits to the text-generation service. Every
// subcategory appears, with explicit placeholders for unscored entries and
// "no data available" for missing auto metrics, so the model cannot mistake
// absence for a zero.
func BuildContext(r *Review, names ContextNames) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Quarterly performance review for %s, branch %s, period %s %d.\n", r.SubjectLabel(), names.BranchName, r.Quarter, r.Year)
	fmt.Fprintf(&b, "Reviewer: %s. Status: %s.\n\n", names.ReviewerName, r.Status)

	fmt.Fprintf(&b, "Overall weighted score: %s/100\n\n", formatScore(r.OverallScore))

	for _, cat := range Categories {
		fmt.Fprintf(&b, "%s (%.0f%%): %s/100\n", categoryLabels[cat.Key], cat.Weight*100, formatScore(r.CategoryScores[cat.Key]))
		for _, sub := range cat.Subcategories {
			entry := r.Scores[sub.Key]
			comment := entry.Comments
			if comment == "" {
				comment = "no comments"
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", subcategoryLabels[sub.Key], formatScore(entry.Score), comment)
		}
		b.WriteString("\n")
	}

	b.WriteString("System-measured context for the period:\n")
	fmt.Fprintf(&b, "- Sanitation audit average: %s (%d audits)\n", formatMetric(r.AutoMetrics.SanitationAvg), r.AutoMetrics.SanitationCount)
	fmt.Fprintf(&b, "- Dish check average: %s (%d checks)\n", formatMetric(r.AutoMetrics.DishChecksAvg), r.AutoMetrics.DishChecksCount)

	if r.StrengthsSummary != "" {
		fmt.Fprintf(&b, "\nStrengths noted by the reviewer:\n%s\n", r.StrengthsSummary)
	}
	if r.ImprovementSummary != "" {
		fmt.Fprintf(&b, "\nImprovement areas noted by the reviewer:\n%s\n", r.ImprovementSummary)
	}
	if len(r.DevelopmentGoals) > 0 {
		b.WriteString("\nDevelopment plan:\n")
		for _, goal := range r.DevelopmentGoals {
			fmt.Fprintf(&b, "- %s (timeline: %s, support: %s)\n", goal.Goal, goal.Timeline, goal.Support)
			for _, action := range goal.Actions {
				fmt.Fprintf(&b, "  * %s\n", action)
			}
		}
	}

	return b.String()
}

func formatScore(score *float64) string {
	if score == nil {
		return notScored
	}
	return fmt.Sprintf("%.1f", *score)
}

func formatMetric(avg *float64) string {
	if avg == nil {
		return "no data available"
	}
	return fmt.Sprintf("%.2f", *avg)
}
