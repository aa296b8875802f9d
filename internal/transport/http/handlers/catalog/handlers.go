package cataloghandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"giraffe/internal/domain/audit"
	"giraffe/internal/domain/auth"
	"giraffe/internal/domain/catalog"
	"giraffe/internal/transport/http/api"
	"giraffe/internal/transport/http/middleware"
	"giraffe/internal/transport/http/shared"
)

type Handler struct {
	Service *catalog.Service
	Audit   *audit.Service
}

func NewHandler(service *catalog.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/branches", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleListBranches)
		r.With(middleware.RequireHQ).Post("/", h.handleCreateBranch)
		r.With(middleware.RequireAuth).Get("/{branchID}", h.handleGetBranch)
		r.With(middleware.RequireHQ).Put("/{branchID}", h.handleUpdateBranch)
	})
	r.Route("/dishes", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleListDishes)
		r.With(middleware.RequireHQ).Post("/", h.handleCreateDish)
		r.With(middleware.RequireAuth).Get("/{dishID}", h.handleGetDish)
	})
	r.Route("/chefs", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleListChefs)
		r.With(middleware.RequireHQ).Post("/", h.handleCreateChef)
	})
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequireHQ).Get("/", h.handleListUsers)
		r.With(middleware.RequireHQ).Post("/", h.handleCreateUser)
	})
}

func failCatalogError(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, catalog.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, catalog.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, catalog.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	default:
		slog.Error(fallbackMessage, "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

func (h *Handler) handleListBranches(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	branches, err := h.Service.ListBranches(r.Context(), includeInactive)
	if err != nil {
		failCatalogError(w, r, err, "branch_list_failed", "failed to list branches")
		return
	}
	api.Success(w, branches, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var branch catalog.Branch
	if err := json.NewDecoder(r.Body).Decode(&branch); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	branch.Active = true
	if err := h.Service.CreateBranch(r.Context(), &branch); err != nil {
		failCatalogError(w, r, err, "branch_create_failed", "failed to create branch")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "catalog.branch.create", "branch", branch.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"name": branch.Name}); err != nil {
		slog.Warn("audit catalog.branch.create failed", "err", err)
	}
	api.Created(w, branch, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetBranch(w http.ResponseWriter, r *http.Request) {
	branch, err := h.Service.GetBranch(r.Context(), chi.URLParam(r, "branchID"))
	if err != nil {
		failCatalogError(w, r, err, "branch_get_failed", "failed to load branch")
		return
	}
	api.Success(w, branch, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateBranch(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	branchID := chi.URLParam(r, "branchID")
	current, err := h.Service.GetBranch(r.Context(), branchID)
	if err != nil {
		failCatalogError(w, r, err, "branch_get_failed", "failed to load branch")
		return
	}

	var payload struct {
		Name    *string `json:"name"`
		Address *string `json:"address"`
		Phone   *string `json:"phone"`
		Active  *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Name != nil {
		current.Name = *payload.Name
	}
	if payload.Address != nil {
		current.Address = *payload.Address
	}
	if payload.Phone != nil {
		current.Phone = *payload.Phone
	}
	if payload.Active != nil {
		current.Active = *payload.Active
	}

	if err := h.Service.UpdateBranch(r.Context(), current); err != nil {
		failCatalogError(w, r, err, "branch_update_failed", "failed to update branch")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "catalog.branch.update", "branch", branchID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		slog.Warn("audit catalog.branch.update failed", "err", err)
	}
	api.Success(w, current, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDishes(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.Service.ListDishes(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		failCatalogError(w, r, err, "dish_list_failed", "failed to list dishes")
		return
	}
	api.Success(w, dishes, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDish(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var dish catalog.Dish
	if err := json.NewDecoder(r.Body).Decode(&dish); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	dish.Active = true
	if err := h.Service.CreateDish(r.Context(), &dish); err != nil {
		failCatalogError(w, r, err, "dish_create_failed", "failed to create dish")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "catalog.dish.create", "dish", dish.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"name": dish.Name}); err != nil {
		slog.Warn("audit catalog.dish.create failed", "err", err)
	}
	api.Created(w, dish, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDish(w http.ResponseWriter, r *http.Request) {
	dish, err := h.Service.GetDish(r.Context(), chi.URLParam(r, "dishID"))
	if err != nil {
		failCatalogError(w, r, err, "dish_get_failed", "failed to load dish")
		return
	}
	api.Success(w, dish, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListChefs(w http.ResponseWriter, r *http.Request) {
	chefs, err := h.Service.ListChefs(r.Context(), r.URL.Query().Get("branchId"))
	if err != nil {
		failCatalogError(w, r, err, "chef_list_failed", "failed to list chefs")
		return
	}
	api.Success(w, chefs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateChef(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var chef catalog.Chef
	if err := json.NewDecoder(r.Body).Decode(&chef); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	chef.Active = true
	if err := h.Service.CreateChef(r.Context(), &chef); err != nil {
		failCatalogError(w, r, err, "chef_create_failed", "failed to create chef")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "catalog.chef.create", "chef", chef.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"fullName": chef.FullName}); err != nil {
		slog.Warn("audit catalog.chef.create failed", "err", err)
	}
	api.Created(w, chef, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		failCatalogError(w, r, err, "user_list_failed", "failed to list users")
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.Role != auth.RoleHQAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "hq admin required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		Role     string `json:"role"`
		BranchID string `json:"branchId"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("fullName", payload.FullName, "full name is required")
	v.Enum("role", payload.Role, []string{auth.RoleHQAdmin, auth.RoleHQStaff, auth.RoleBranchManager}, "must be a valid role")
	if len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if payload.Role == auth.RoleBranchManager && payload.BranchID == "" {
		v.Add("branchId", "is required for branch managers")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	created := catalog.User{
		Email:    payload.Email,
		FullName: payload.FullName,
		Role:     payload.Role,
		BranchID: payload.BranchID,
		Active:   true,
	}
	if err := h.Service.CreateUser(r.Context(), &created, hash); err != nil {
		failCatalogError(w, r, err, "user_create_failed", "failed to create user")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "catalog.user.create", "user", created.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"email": created.Email, "role": created.Role}); err != nil {
		slog.Warn("audit catalog.user.create failed", "err", err)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}
