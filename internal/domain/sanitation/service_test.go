package sanitation

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	audits map[string]*Audit
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{audits: map[string]*Audit{}}
}

func (s *fakeStore) Create(ctx context.Context, audit *Audit) error {
	s.nextID++
	audit.ID = string(rune('0' + s.nextID))
	audit.CreatedAt = time.Now()
	audit.UpdatedAt = audit.CreatedAt
	copied := *audit
	s.audits[audit.ID] = &copied
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (*Audit, error) {
	audit, ok := s.audits[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *audit
	return &copied, nil
}

func (s *fakeStore) List(ctx context.Context, filter Filter, limit, offset int) ([]Audit, error) {
	var out []Audit
	for _, audit := range s.audits {
		out = append(out, *audit)
	}
	return out, nil
}

func (s *fakeStore) Update(ctx context.Context, audit *Audit) error {
	if _, ok := s.audits[audit.ID]; !ok {
		return ErrNotFound
	}
	copied := *audit
	s.audits[audit.ID] = &copied
	return nil
}

func TestTotals(t *testing.T) {
	cases := []struct {
		name           string
		categories     []Category
		wantScore      float64
		wantDeductions float64
	}{
		{"no findings", nil, 100, 0},
		{"single deduction", []Category{{Name: "Floors", Deduction: 3.5}}, 96.5, 3.5},
		{"multiple deductions", []Category{
			{Name: "Floors", Deduction: 2},
			{Name: "Fridges", Deduction: 4.25},
			{Name: "Prep", Deduction: 1.3},
		}, 92.45, 7.55},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, deductions := Totals(tc.categories)
			if score != tc.wantScore || deductions != tc.wantDeductions {
				t.Fatalf("Totals = (%v, %v), want (%v, %v)", score, deductions, tc.wantScore, tc.wantDeductions)
			}
		})
	}
}

func TestTotalsFloorsAtZero(t *testing.T) {
	var categories []Category
	for i := 0; i < 12; i++ {
		categories = append(categories, Category{Name: "area", Deduction: 10})
	}
	score, deductions := Totals(categories)
	if deductions != 120 {
		t.Fatalf("deductions = %v, want 120", deductions)
	}
	if score != 0 {
		t.Fatalf("score = %v, want 0", score)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	cases := []struct {
		name  string
		audit Audit
	}{
		{"missing branch", Audit{AuditorName: "Dana"}},
		{"missing auditor name", Audit{BranchID: "b1"}},
		{"unnamed category", Audit{BranchID: "b1", AuditorName: "Dana",
			Categories: []Category{{Deduction: 1}}}},
		{"negative deduction", Audit{BranchID: "b1", AuditorName: "Dana",
			Categories: []Category{{Name: "Floors", Deduction: -1}}}},
		{"deduction over cap", Audit{BranchID: "b1", AuditorName: "Dana",
			Categories: []Category{{Name: "Floors", Deduction: 10.5}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			audit := tc.audit
			if err := svc.Create(ctx, &audit); !errors.Is(err, ErrValidation) {
				t.Fatalf("Create error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateDefaultsAndTotals(t *testing.T) {
	svc := NewService(newFakeStore())
	audit := Audit{
		BranchID:    "b1",
		AuditorID:   "u1",
		AuditorName: "Dana",
		Categories:  []Category{{Name: "Fridges", Deduction: 6}},
	}
	if err := svc.Create(context.Background(), &audit); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if audit.Status != StatusInProgress {
		t.Fatalf("status = %q, want %q", audit.Status, StatusInProgress)
	}
	if audit.AuditDate.IsZero() || audit.StartTime.IsZero() {
		t.Fatal("audit date and start time should default to now")
	}
	if audit.TotalScore != 94 || audit.TotalDeductions != 6 {
		t.Fatalf("totals = (%v, %v), want (94, 6)", audit.TotalScore, audit.TotalDeductions)
	}
}

func TestUpdateRecomputesTotals(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	audit := Audit{BranchID: "b1", AuditorName: "Dana"}
	if err := svc.Create(ctx, &audit); err != nil {
		t.Fatalf("Create: %v", err)
	}

	notes := "walk-in needs descaling"
	updated, err := svc.Update(ctx, audit.ID, UpdateInput{
		Categories:   []Category{{Name: "Fridges", Deduction: 2.5}, {Name: "Floors", Deduction: 1}},
		GeneralNotes: &notes,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.TotalScore != 96.5 || updated.TotalDeductions != 3.5 {
		t.Fatalf("totals = (%v, %v), want (96.5, 3.5)", updated.TotalScore, updated.TotalDeductions)
	}
	if updated.GeneralNotes != notes {
		t.Fatalf("general notes = %q, want %q", updated.GeneralNotes, notes)
	}
}

func TestLifecycle(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	audit := Audit{BranchID: "b1", AuditorName: "Dana"}
	if err := svc.Create(ctx, &audit); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.MarkReviewed(ctx, audit.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("MarkReviewed before completion = %v, want ErrConflict", err)
	}

	completed, err := svc.Complete(ctx, audit.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q", completed.Status, StatusCompleted)
	}
	if completed.EndTime == nil {
		t.Fatal("end time should be set on completion")
	}

	if _, err := svc.Complete(ctx, audit.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("second Complete = %v, want ErrConflict", err)
	}
	if _, err := svc.Update(ctx, audit.ID, UpdateInput{}); !errors.Is(err, ErrConflict) {
		t.Fatalf("Update after completion = %v, want ErrConflict", err)
	}

	reviewed, err := svc.MarkReviewed(ctx, audit.ID)
	if err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}
	if reviewed.Status != StatusReviewed {
		t.Fatalf("status = %q, want %q", reviewed.Status, StatusReviewed)
	}
	if _, err := svc.MarkReviewed(ctx, audit.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("second MarkReviewed = %v, want ErrConflict", err)
	}
}
