package reviewshandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"giraffe/internal/domain/review"
)

func TestQuarterRangeEndpoint(t *testing.T) {
	h := &Handler{}
	router := chi.NewRouter()
	router.Get("/manager-reviews/quarter-range", h.handleQuarterRange)

	req := httptest.NewRequest(http.MethodGet, "/manager-reviews/quarter-range?year=2025&quarter=Q2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Data.Start != "2025-04-01" || payload.Data.End != "2025-06-30" {
		t.Fatalf("unexpected range: %+v", payload.Data)
	}
}

func TestQuarterRangeEndpointRejectsBadInput(t *testing.T) {
	h := &Handler{}
	router := chi.NewRouter()
	router.Get("/manager-reviews/quarter-range", h.handleQuarterRange)

	for _, query := range []string{"year=abc&quarter=Q1", "year=2025&quarter=Q5"} {
		req := httptest.NewRequest(http.MethodGet, "/manager-reviews/quarter-range?"+query, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", query, rec.Code)
		}
	}
}

func TestFailServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{fmt.Errorf("%w: year is out of range", review.ErrValidation), http.StatusBadRequest, "validation_error"},
		{review.ErrNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: already approved", review.ErrConflict), http.StatusConflict, "conflict"},
		{review.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: all models failed", review.ErrNarrativeUnavailable), http.StatusBadGateway, "narrative_unavailable"},
		{errors.New("pool exhausted"), http.StatusInternalServerError, "review_get_failed"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/manager-reviews/r1", nil)
		rec := httptest.NewRecorder()
		failServiceError(rec, req, tc.err, "review_get_failed", "failed to load review")
		if rec.Code != tc.want {
			t.Fatalf("error %v: expected status %d, got %d", tc.err, tc.want, rec.Code)
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to decode error envelope: %v", err)
		}
		if payload.Error.Code != tc.code {
			t.Fatalf("error %v: expected code %s, got %s", tc.err, tc.code, payload.Error.Code)
		}
	}
}

func TestDecodeRegenerate(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{`{"regenerate": true}`, true},
		{`{"regenerate": false}`, false},
		{`{}`, false},
		{``, false},
		{`not json`, false},
	}
	for _, tc := range cases {
		if got := decodeRegenerate(strings.NewReader(tc.body)); got != tc.want {
			t.Fatalf("body %q: expected %v, got %v", tc.body, tc.want, got)
		}
	}
}
