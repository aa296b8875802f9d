package review

import (
	"context"
	"errors"
	"testing"
)

type fakeMetricSource struct {
	sanitationAvg   *float64
	sanitationCount int
	sanitationErr   error
	dishAvg         *float64
	dishCount       int
	dishErr         error
}

func (f *fakeMetricSource) SanitationAverage(ctx context.Context, branchID string, year int, quarter string) (*float64, int, error) {
	return f.sanitationAvg, f.sanitationCount, f.sanitationErr
}

func (f *fakeMetricSource) DishCheckAverage(ctx context.Context, branchID string, year int, quarter string) (*float64, int, error) {
	return f.dishAvg, f.dishCount, f.dishErr
}

func TestCollectAutoMetrics(t *testing.T) {
	src := &fakeMetricSource{
		sanitationAvg: f(91.25), sanitationCount: 4,
		dishAvg: f(4.2), dishCount: 17,
	}
	metrics, warnings := CollectAutoMetrics(context.Background(), src, "b1", 2025, Q1)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if metrics.SanitationAvg == nil || *metrics.SanitationAvg != 91.25 || metrics.SanitationCount != 4 {
		t.Fatalf("unexpected sanitation metrics: %+v", metrics)
	}
	if metrics.DishChecksAvg == nil || *metrics.DishChecksAvg != 4.2 || metrics.DishChecksCount != 17 {
		t.Fatalf("unexpected dish check metrics: %+v", metrics)
	}
}

func TestCollectAutoMetricsNoData(t *testing.T) {
	metrics, warnings := CollectAutoMetrics(context.Background(), &fakeMetricSource{}, "b1", 2025, Q2)
	if len(warnings) != 0 {
		t.Fatalf("no data is not a warning: %v", warnings)
	}
	if metrics.SanitationAvg != nil || metrics.SanitationCount != 0 {
		t.Fatalf("expected nil average and zero count, got %+v", metrics)
	}
	if metrics.DishChecksAvg != nil || metrics.DishChecksCount != 0 {
		t.Fatalf("expected nil average and zero count, got %+v", metrics)
	}
}

func TestCollectAutoMetricsDegrades(t *testing.T) {
	src := &fakeMetricSource{
		sanitationErr: errors.New("connection refused"),
		dishAvg:       f(3.8), dishCount: 5,
	}
	metrics, warnings := CollectAutoMetrics(context.Background(), src, "b1", 2025, Q3)
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	if metrics.SanitationAvg != nil {
		t.Fatal("failed source must leave metrics empty")
	}
	if metrics.DishChecksAvg == nil || *metrics.DishChecksAvg != 3.8 {
		t.Fatalf("healthy source must still populate: %+v", metrics)
	}
}
