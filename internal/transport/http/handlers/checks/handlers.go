package checkshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"giraffe/internal/domain/audit"
	"giraffe/internal/domain/checks"
	"giraffe/internal/transport/http/api"
	"giraffe/internal/transport/http/middleware"
	"giraffe/internal/transport/http/shared"
)

type Handler struct {
	Service *checks.Service
	Audit   *audit.Service
}

func NewHandler(service *checks.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dish-checks", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleList)
		r.With(middleware.RequireAuth).Post("/", h.handleCreate)
		r.With(middleware.RequireAuth).Get("/{checkID}", h.handleGet)
		r.With(middleware.RequireHQ).Delete("/{checkID}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		BranchID       string  `json:"branchId"`
		DishID         string  `json:"dishId"`
		DishNameManual string  `json:"dishNameManual"`
		ChefID         string  `json:"chefId"`
		ChefNameManual string  `json:"chefNameManual"`
		Rating         float64 `json:"rating"`
		Comments       string  `json:"comments"`
		CheckDate      string  `json:"checkDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	// Branch managers record checks for their own branch only.
	if payload.BranchID == "" {
		payload.BranchID = user.BranchID
	}
	if !user.CanManageReviews && user.BranchID != "" && payload.BranchID != user.BranchID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed for this branch", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("branchId", payload.BranchID, "branch id is required")
	if payload.DishID == "" && payload.DishNameManual == "" {
		v.Add("dishId", "a dish id or a manual dish name is required")
	}
	check := checks.DishCheck{
		BranchID:       payload.BranchID,
		DishID:         payload.DishID,
		DishNameManual: payload.DishNameManual,
		ChefID:         payload.ChefID,
		ChefNameManual: payload.ChefNameManual,
		CheckerID:      user.UserID,
		Rating:         payload.Rating,
		Comments:       payload.Comments,
	}
	if payload.CheckDate != "" {
		if parsed, ok := v.Date("checkDate", payload.CheckDate); ok {
			check.CheckDate = parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.Create(r.Context(), &check); err != nil {
		if errors.Is(err, checks.ErrValidation) {
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		slog.Error("dish check create failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "check_create_failed", "failed to record dish check", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "checks.create", "dish_check", check.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"branchId": check.BranchID,
		"dishId":   check.DishID,
		"rating":   check.Rating,
	}); err != nil {
		slog.Warn("audit checks.create failed", "err", err)
	}
	api.Created(w, check, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	check, err := h.Service.Get(r.Context(), chi.URLParam(r, "checkID"))
	if err != nil {
		if errors.Is(err, checks.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "dish check not found", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Error("dish check get failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "check_get_failed", "failed to load dish check", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, check, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	checkID := chi.URLParam(r, "checkID")

	if err := h.Service.Delete(r.Context(), checkID); err != nil {
		if errors.Is(err, checks.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "dish check not found", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Error("dish check delete failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "check_delete_failed", "failed to delete dish check", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "checks.delete", "dish_check", checkID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil); err != nil {
		slog.Warn("audit checks.delete failed", "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	query := r.URL.Query()
	filter := checks.Filter{
		BranchID: query.Get("branchId"),
		DishID:   query.Get("dishId"),
		ChefID:   query.Get("chefId"),
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
		slog.Error("dish check list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "check_list_failed", "failed to list dish checks", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}
