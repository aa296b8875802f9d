package reviewshandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"giraffe/internal/domain/audit"
	"giraffe/internal/domain/notifications"
	"giraffe/internal/domain/reports"
	"giraffe/internal/domain/review"
	"giraffe/internal/transport/http/api"
	"giraffe/internal/transport/http/middleware"
	"giraffe/internal/transport/http/shared"
)

type Handler struct {
	Service     *review.Service
	Notify      *notifications.Service
	Audit       *audit.Service
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(service *review.Service, notify *notifications.Service, auditSvc *audit.Service, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Notify: notify, Audit: auditSvc, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/manager-reviews", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleList)
		r.With(middleware.RequireReviewAdmin).Post("/", h.handleCreate)
		r.With(middleware.RequireReviewAdmin).Get("/pending", h.handlePending)
		r.With(middleware.RequireReviewAdmin).Get("/quarter-range", h.handleQuarterRange)
		r.With(middleware.RequireReviewAdmin).Get("/history/{managerID}", h.handleHistory)
		r.With(middleware.RequireAuth).Get("/{reviewID}", h.handleGet)
		r.With(middleware.RequireAuth).Put("/{reviewID}", h.handleUpdate)
		r.With(middleware.RequireReviewAdmin).Delete("/{reviewID}", h.handleDelete)
		r.With(middleware.RequireReviewAdmin).Post("/{reviewID}/submit", h.handleTransition("submit"))
		r.With(middleware.RequireReviewAdmin).Post("/{reviewID}/complete", h.handleTransition("complete"))
		r.With(middleware.RequireReviewAdmin).Post("/{reviewID}/approve", h.handleTransition("approve"))
		r.With(middleware.RequireReviewAdmin).Post("/{reviewID}/generate-summary", h.handleGenerateSummary)
		r.With(middleware.RequireReviewAdmin).Post("/{reviewID}/ai-chat", h.handleChat)
		r.With(middleware.RequireAuth).Get("/{reviewID}/pdf", h.handlePDF)
	})
}

func actorFrom(r *http.Request) (review.Actor, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return review.Actor{}, false
	}
	return review.Actor{
		UserID:           user.UserID,
		Role:             user.Role,
		BranchID:         user.BranchID,
		CanManageReviews: user.CanManageReviews,
	}, true
}

// failServiceError translates engine errors into the transport envelope.
func failServiceError(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case review.IsValidation(err):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case review.IsNotFound(err):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case review.IsConflict(err):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	case review.IsForbidden(err):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
	case errors.Is(err, review.ErrNarrativeUnavailable):
		api.Fail(w, http.StatusBadGateway, "narrative_unavailable", "narrative generation unavailable", requestID)
	default:
		slog.Error(fallbackMessage, "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	requestHash := middleware.RequestHash(body)
	if idemKey != "" {
		cached, found, err := h.Idempotency.Check(r.Context(), actor.UserID, "manager-reviews.create", idemKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(cached)
			return
		}
	}

	var input review.CreateInput
	if err := json.Unmarshal(body, &input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	created, warnings, err := h.Service.Create(r.Context(), actor, input)
	if err != nil {
		failServiceError(w, r, err, "review_create_failed", "failed to create review")
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "review.create", "manager_review", created.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"branchId": created.BranchID,
		"year":     created.Year,
		"quarter":  created.Quarter,
	}); err != nil {
		slog.Warn("audit review.create failed", "err", err)
	}

	response := map[string]any{"review": created}
	if len(warnings) > 0 {
		response["warnings"] = warnings
	}

	if idemKey != "" {
		var buf bytes.Buffer
		envelope := api.Envelope{Success: true, Data: response, RequestID: middleware.GetRequestID(r.Context())}
		if err := json.NewEncoder(&buf).Encode(envelope); err == nil {
			if err := h.Idempotency.Save(r.Context(), actor.UserID, "manager-reviews.create", idemKey, requestHash, buf.Bytes()); err != nil {
				slog.Warn("idempotency save failed", "err", err)
			}
		}
	}

	api.Created(w, response, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	reviewID := chi.URLParam(r, "reviewID")
	found, err := h.Service.Get(r.Context(), actor, reviewID)
	if err != nil {
		failServiceError(w, r, err, "review_get_failed", "failed to load review")
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	query := r.URL.Query()
	filter := review.Filter{
		BranchID:  query.Get("branchId"),
		ManagerID: query.Get("managerId"),
		Quarter:   query.Get("quarter"),
		Status:    query.Get("status"),
	}
	if raw := query.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid year filter", middleware.GetRequestID(r.Context()))
			return
		}
		filter.Year = year
	}

	reviews, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		failServiceError(w, r, err, "review_list_failed", "failed to list reviews")
		return
	}
	api.Success(w, reviews, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	reviewID := chi.URLParam(r, "reviewID")
	var input review.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	updated, err := h.Service.UpdateScores(r.Context(), actor, reviewID, input)
	if err != nil {
		failServiceError(w, r, err, "review_update_failed", "failed to update review")
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "review.update", "manager_review", reviewID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil); err != nil {
		slog.Warn("audit review.update failed", "err", err)
	}
	if updated.ManagerAcknowledged && !actor.CanManageReviews {
		h.notifyReviewer(r, updated, notifications.TypeReviewAcknowledged, "Review acknowledged",
			fmt.Sprintf("%s acknowledged their %s %d review.", updated.SubjectLabel(), updated.Quarter, updated.Year))
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTransition(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
			return
		}

		reviewID := chi.URLParam(r, "reviewID")
		updated, err := h.Service.Transition(r.Context(), actor, reviewID, action)
		if err != nil {
			failServiceError(w, r, err, "review_transition_failed", "failed to transition review")
			return
		}

		if err := h.Audit.Record(r.Context(), actor.UserID, "review."+action, "manager_review", reviewID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"status": updated.Status}); err != nil {
			slog.Warn("audit review transition failed", "action", action, "err", err)
		}

		if updated.ManagerID != "" && h.Notify != nil {
			ntype, title, body := transitionNotification(action, updated)
			if ntype != "" {
				if err := h.Notify.Create(r.Context(), updated.ManagerID, ntype, title, body); err != nil {
					slog.Warn("review transition notification failed", "err", err)
				}
			}
		}
		api.Success(w, updated, middleware.GetRequestID(r.Context()))
	}
}

func transitionNotification(action string, r *review.Review) (string, string, string) {
	period := fmt.Sprintf("%s %d", r.Quarter, r.Year)
	switch action {
	case "submit":
		return notifications.TypeReviewSubmitted, "Review submitted", "Your performance review for " + period + " has been submitted."
	case "complete":
		return notifications.TypeReviewCompleted, "Review completed", "Your performance review for " + period + " is complete and ready to read."
	case "approve":
		return notifications.TypeReviewApproved, "Review approved", "Your performance review for " + period + " has been approved."
	}
	return "", "", ""
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	reviewID := chi.URLParam(r, "reviewID")
	if err := h.Service.Delete(r.Context(), actor, reviewID); err != nil {
		failServiceError(w, r, err, "review_delete_failed", "failed to delete review")
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "review.delete", "manager_review", reviewID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil); err != nil {
		slog.Warn("audit review.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	reviewID := chi.URLParam(r, "reviewID")
	regenerate := decodeRegenerate(r.Body)
	summary, err := h.Service.GenerateNarrative(r.Context(), actor, reviewID, regenerate)
	if err != nil {
		failServiceError(w, r, err, "summary_failed", "failed to generate summary")
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "review.generate_summary", "manager_review", reviewID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]bool{"regenerate": regenerate}); err != nil {
		slog.Warn("audit review.generate_summary failed", "err", err)
	}
	api.Success(w, map[string]string{"summary": summary}, middleware.GetRequestID(r.Context()))
}

// decodeRegenerate reads the optional {"regenerate": bool} request body. An
// empty or malformed body means false.
func decodeRegenerate(body io.Reader) bool {
	var payload struct {
		Regenerate bool `json:"regenerate"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return false
	}
	return payload.Regenerate
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	reviewID := chi.URLParam(r, "reviewID")
	var payload struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	answer, err := h.Service.Chat(r.Context(), actor, reviewID, payload.Question)
	if err != nil {
		failServiceError(w, r, err, "chat_failed", "failed to answer question")
		return
	}
	api.Success(w, map[string]string{"answer": answer}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	managerID := chi.URLParam(r, "managerID")
	history, err := h.Service.History(r.Context(), actor, managerID)
	if err != nil {
		failServiceError(w, r, err, "history_failed", "failed to load review history")
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	overview, err := h.Service.Pending(r.Context(), actor, time.Now().UTC())
	if err != nil {
		failServiceError(w, r, err, "pending_failed", "failed to load pending overview")
		return
	}
	api.Success(w, overview, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleQuarterRange(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	year, err := strconv.Atoi(query.Get("year"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid year", middleware.GetRequestID(r.Context()))
		return
	}
	quarter := query.Get("quarter")
	start, end, err := review.QuarterRange(year, quarter)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "quarter must be one of Q1, Q2, Q3, Q4", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	reviewID := chi.URLParam(r, "reviewID")
	found, err := h.Service.Get(r.Context(), actor, reviewID)
	if err != nil {
		failServiceError(w, r, err, "review_pdf_failed", "failed to load review")
		return
	}

	branchName, reviewerName := h.Service.DisplayNames(r.Context(), found)
	doc := reports.ReviewDocument{Review: found, BranchName: branchName, ReviewerName: reviewerName}
	var buf bytes.Buffer
	if err := reports.RenderReviewPDF(&buf, doc); err != nil {
		slog.Error("review pdf render failed", "review", reviewID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "review_pdf_failed", "failed to render pdf", middleware.GetRequestID(r.Context()))
		return
	}

	filename := fmt.Sprintf("review-%s-%s-%d.pdf", strings.ReplaceAll(found.SubjectLabel(), " ", "-"), found.Quarter, found.Year)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) notifyReviewer(r *http.Request, updated *review.Review, ntype, title, body string) {
	if h.Notify == nil || updated.ReviewerID == "" {
		return
	}
	if err := h.Notify.Create(r.Context(), updated.ReviewerID, ntype, title, body); err != nil {
		slog.Warn("review acknowledgement notification failed", "err", err)
	}
}
