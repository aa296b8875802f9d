package sanitationhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"giraffe/internal/domain/audit"
	"giraffe/internal/domain/notifications"
	"giraffe/internal/domain/sanitation"
	"giraffe/internal/transport/http/api"
	"giraffe/internal/transport/http/middleware"
	"giraffe/internal/transport/http/shared"
)

type Handler struct {
	Service *sanitation.Service
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *sanitation.Service, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sanitation-audits", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleList)
		r.With(middleware.RequireHQ).Post("/", h.handleCreate)
		r.With(middleware.RequireAuth).Get("/{auditID}", h.handleGet)
		r.With(middleware.RequireHQ).Put("/{auditID}", h.handleUpdate)
		r.With(middleware.RequireHQ).Post("/{auditID}/complete", h.handleComplete)
		r.With(middleware.RequireHQ).Post("/{auditID}/review", h.handleMarkReviewed)
	})
}

func failSanitationError(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, sanitation.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, sanitation.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "audit not found", requestID)
	case errors.Is(err, sanitation.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	default:
		slog.Error(fallbackMessage, "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		BranchID        string                `json:"branchId"`
		AuditorName     string                `json:"auditorName"`
		AccompanistName string                `json:"accompanistName"`
		AuditDate       string                `json:"auditDate"`
		Categories      []sanitation.Category `json:"categories"`
		GeneralNotes    string                `json:"generalNotes"`
		EquipmentIssues string                `json:"equipmentIssues"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("branchId", payload.BranchID, "branch id is required")
	v.Required("auditorName", payload.AuditorName, "auditor name is required")
	record := sanitation.Audit{
		BranchID:        payload.BranchID,
		AuditorID:       user.UserID,
		AuditorName:     payload.AuditorName,
		AccompanistName: payload.AccompanistName,
		Categories:      payload.Categories,
		GeneralNotes:    payload.GeneralNotes,
		EquipmentIssues: payload.EquipmentIssues,
	}
	if payload.AuditDate != "" {
		if parsed, ok := v.Date("auditDate", payload.AuditDate); ok {
			record.AuditDate = parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.Create(r.Context(), &record); err != nil {
		failSanitationError(w, r, err, "audit_create_failed", "failed to create audit")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "sanitation.create", "sanitation_audit", record.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"branchId":   record.BranchID,
		"categories": len(record.Categories),
	}); err != nil {
		slog.Warn("audit sanitation.create failed", "err", err)
	}
	api.Created(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	auditID := chi.URLParam(r, "auditID")

	var payload struct {
		AuditDate       string                `json:"auditDate"`
		EndTime         *time.Time            `json:"endTime"`
		AccompanistName *string               `json:"accompanistName"`
		Categories      []sanitation.Category `json:"categories"`
		GeneralNotes    *string               `json:"generalNotes"`
		EquipmentIssues *string               `json:"equipmentIssues"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	input := sanitation.UpdateInput{
		Categories:      payload.Categories,
		EndTime:         payload.EndTime,
		AccompanistName: payload.AccompanistName,
		GeneralNotes:    payload.GeneralNotes,
		EquipmentIssues: payload.EquipmentIssues,
	}
	if payload.AuditDate != "" {
		if parsed, ok := v.Date("auditDate", payload.AuditDate); ok {
			input.AuditDate = parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	updated, err := h.Service.Update(r.Context(), auditID, input)
	if err != nil {
		failSanitationError(w, r, err, "audit_update_failed", "failed to update audit")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "sanitation.update", "sanitation_audit", auditID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"categories": len(payload.Categories),
	}); err != nil {
		slog.Warn("audit sanitation.update failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	found, err := h.Service.Get(r.Context(), chi.URLParam(r, "auditID"))
	if err != nil {
		failSanitationError(w, r, err, "audit_get_failed", "failed to load audit")
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	query := r.URL.Query()
	filter := sanitation.Filter{
		BranchID: query.Get("branchId"),
		Status:   query.Get("status"),
	}
	if !user.CanManageReviews && user.BranchID != "" {
		filter.BranchID = user.BranchID
	}

	v := shared.NewValidator()
	if raw := query.Get("from"); raw != "" {
		if parsed, ok := v.Date("from", raw); ok {
			filter.From = parsed
		}
	}
	if raw := query.Get("to"); raw != "" {
		if parsed, ok := v.Date("to", raw); ok {
			filter.To = parsed
		}
	}
	v.DateOrder("from", filter.From, "to", filter.To)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	list, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		slog.Error("sanitation audit list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audits", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	auditID := chi.URLParam(r, "auditID")
	completed, err := h.Service.Complete(r.Context(), auditID)
	if err != nil {
		failSanitationError(w, r, err, "audit_complete_failed", "failed to complete audit")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "sanitation.complete", "sanitation_audit", auditID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"totalScore": completed.TotalScore,
	}); err != nil {
		slog.Warn("audit sanitation.complete failed", "err", err)
	}
	if h.Notify != nil && completed.AuditorID != "" {
		if err := h.Notify.Create(r.Context(), completed.AuditorID, notifications.TypeAuditCompleted, "Sanitation audit completed",
			fmt.Sprintf("Audit for branch %s completed with score %.2f.", completed.BranchID, completed.TotalScore)); err != nil {
			slog.Warn("sanitation complete notification failed", "err", err)
		}
	}
	api.Success(w, completed, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkReviewed(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	auditID := chi.URLParam(r, "auditID")
	reviewed, err := h.Service.MarkReviewed(r.Context(), auditID)
	if err != nil {
		failSanitationError(w, r, err, "audit_review_failed", "failed to mark audit reviewed")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "sanitation.review", "sanitation_audit", auditID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil); err != nil {
		slog.Warn("audit sanitation.review failed", "err", err)
	}
	api.Success(w, reviewed, middleware.GetRequestID(r.Context()))
}
