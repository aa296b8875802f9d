package review

import (
	"context"
	"log/slog"
)

// MetricSource reads the two external quality-tracking subsystems. An
// implementation returns a nil average and a zero count when no records match.
type MetricSource interface {
	SanitationAverage(ctx context.Context, branchID string, year int, quarter string) (*float64, int, error)
	DishCheckAverage(ctx context.Context, branchID string, year int, quarter string) (*float64, int, error)
}

// CollectAutoMetrics queries both metric sources for the review period. A
// failing source degrades to "no data" with a warning instead of aborting;
// review creation must stay available when quality tracking is down. The
// result is attached once at creation and never refreshed.
func CollectAutoMetrics(ctx context.Context, src MetricSource, branchID string, year int, quarter string) (AutoMetrics, []string) {
	var metrics AutoMetrics
	var warnings []string

	avg, count, err := src.SanitationAverage(ctx, branchID, year, quarter)
	if err != nil {
		slog.Warn("sanitation metrics unavailable", "branch", branchID, "year", year, "quarter", quarter, "err", err)
		warnings = append(warnings, "sanitation audit metrics unavailable")
	} else {
		metrics.SanitationAvg = avg
		metrics.SanitationCount = count
	}

	avg, count, err = src.DishCheckAverage(ctx, branchID, year, quarter)
	if err != nil {
		slog.Warn("dish check metrics unavailable", "branch", branchID, "year", year, "quarter", quarter, "err", err)
		warnings = append(warnings, "dish check metrics unavailable")
	} else {
		metrics.DishChecksAvg = avg
		metrics.DishChecksCount = count
	}

	return metrics, warnings
}
