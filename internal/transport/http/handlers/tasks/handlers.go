package taskshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"giraffe/internal/domain/audit"
	"giraffe/internal/domain/auth"
	"giraffe/internal/domain/tasks"
	"giraffe/internal/transport/http/api"
	"giraffe/internal/transport/http/middleware"
	"giraffe/internal/transport/http/shared"
)

type Handler struct {
	Service *tasks.Service
	Audit   *audit.Service
}

func NewHandler(service *tasks.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/daily-tasks", func(r chi.Router) {
		r.With(middleware.RequireHQ).Post("/", h.handleCreate)
		r.With(middleware.RequireHQ).Get("/", h.handleList)
		r.With(middleware.RequireHQ).Put("/{taskID}", h.handleUpdate)
		r.With(middleware.RequireHQ).Get("/assignments", h.handleListAssignments)
		r.With(middleware.RequireAuth).Get("/my-tasks", h.handleMyTasks)
		r.With(middleware.RequireAuth).Post("/assignments/{assignmentID}/complete", h.handleComplete)
		r.With(middleware.RequireAuth).Delete("/assignments/{assignmentID}/complete", h.handleUncomplete)
	})
}

func failTaskError(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, tasks.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, tasks.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "task assignment not found", requestID)
	case errors.Is(err, tasks.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	default:
		slog.Error(fallbackMessage, "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		TaskType    string   `json:"taskType"`
		DishID      string   `json:"dishId"`
		Frequency   string   `json:"frequency"`
		StartDate   string   `json:"startDate"`
		EndDate     string   `json:"endDate"`
		BranchIDs   []string `json:"branchIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("title", payload.Title, "title is required")
	v.Required("taskType", payload.TaskType, "task type is required")
	task := tasks.Task{
		Title:       payload.Title,
		Description: payload.Description,
		TaskType:    payload.TaskType,
		DishID:      payload.DishID,
		Frequency:   payload.Frequency,
		CreatedBy:   user.UserID,
	}
	if payload.StartDate != "" {
		if parsed, ok := v.Date("startDate", payload.StartDate); ok {
			task.StartDate = parsed
		}
	}
	if payload.EndDate != "" {
		if parsed, ok := v.Date("endDate", payload.EndDate); ok {
			task.EndDate = &parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.Create(r.Context(), &task, payload.BranchIDs); err != nil {
		failTaskError(w, r, err, "task_create_failed", "failed to create task")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "tasks.create", "daily_task", task.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"taskType": task.TaskType,
		"branches": len(payload.BranchIDs),
	}); err != nil {
		slog.Warn("audit tasks.create failed", "err", err)
	}
	api.Created(w, task, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var active *bool
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "validation_error", "active must be a boolean", middleware.GetRequestID(r.Context()))
			return
		}
		active = &parsed
	}

	list, err := h.Service.List(r.Context(), active)
	if err != nil {
		slog.Error("task list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "task_list_failed", "failed to list tasks", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	taskID := chi.URLParam(r, "taskID")

	var payload struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	updated, err := h.Service.Update(r.Context(), taskID, tasks.UpdateInput{
		Title:       payload.Title,
		Description: payload.Description,
		IsActive:    payload.IsActive,
	})
	if err != nil {
		failTaskError(w, r, err, "task_update_failed", "failed to update task")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "tasks.update", "daily_task", taskID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil); err != nil {
		slog.Warn("audit tasks.update failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := tasks.AssignmentFilter{
		BranchID: query.Get("branchId"),
	}

	v := shared.NewValidator()
	if raw := query.Get("taskDate"); raw != "" {
		if parsed, ok := v.Date("taskDate", raw); ok {
			filter.TaskDate = parsed
		}
	}
	if raw := query.Get("isCompleted"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			v.Add("isCompleted", "isCompleted must be a boolean")
		} else {
			filter.IsCompleted = &parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	list, err := h.Service.ListAssignments(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		slog.Error("task assignment list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "assignment_list_failed", "failed to list assignments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	var date time.Time
	if raw := r.URL.Query().Get("taskDate"); raw != "" {
		if parsed, ok := v.Date("taskDate", raw); ok {
			date = parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	list, err := h.Service.BranchTasks(r.Context(), user.BranchID, date)
	if err != nil {
		failTaskError(w, r, err, "my_tasks_failed", "failed to list branch tasks")
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

// restrictBranch limits branch managers to their own branch; HQ may complete
// on behalf of any branch.
func restrictBranch(user auth.UserContext) string {
	if user.CanManageReviews {
		return ""
	}
	return user.BranchID
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	assignmentID := chi.URLParam(r, "assignmentID")

	var payload struct {
		Notes   string `json:"notes"`
		CheckID string `json:"checkId"`
	}
	if r.Body != nil {
		// Body is optional; a bare POST completes with no notes.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	done, err := h.Service.Complete(r.Context(), assignmentID, user.UserID, restrictBranch(user), payload.Notes, payload.CheckID)
	if err != nil {
		failTaskError(w, r, err, "task_complete_failed", "failed to complete task")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "tasks.complete", "task_assignment", assignmentID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"branchId": done.BranchID,
	}); err != nil {
		slog.Warn("audit tasks.complete failed", "err", err)
	}
	api.Success(w, done, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUncomplete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	assignmentID := chi.URLParam(r, "assignmentID")

	reopened, err := h.Service.Uncomplete(r.Context(), assignmentID, restrictBranch(user))
	if err != nil {
		failTaskError(w, r, err, "task_uncomplete_failed", "failed to reopen task")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "tasks.uncomplete", "task_assignment", assignmentID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"branchId": reopened.BranchID,
	}); err != nil {
		slog.Warn("audit tasks.uncomplete failed", "err", err)
	}
	api.Success(w, reopened, middleware.GetRequestID(r.Context()))
}
