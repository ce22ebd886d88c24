package payrollhandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diazhh/erp-ace-sub000/internal/auth"
	"github.com/diazhh/erp-ace-sub000/internal/domain/audit"
	"github.com/diazhh/erp-ace-sub000/internal/domain/payroll"
	"github.com/diazhh/erp-ace-sub000/internal/transport/http/api"
	"github.com/diazhh/erp-ace-sub000/internal/transport/http/middleware"
	"github.com/diazhh/erp-ace-sub000/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Audit   *audit.Service
}

func NewHandler(service *payroll.Service, auditor *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

type periodPayload struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type periodStatusPayload struct {
	Status string `json:"status"`
}

type entryPayload struct {
	EmployeeID string `json:"employeeId"`
	payroll.EntryInputs
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequireRole(auth.RoleOperator, auth.RoleSupervisor, auth.RoleAdmin)
	write := middleware.RequireRole(auth.RoleSupervisor, auth.RoleAdmin)

	r.Route("/payroll", func(r chi.Router) {
		r.With(read).Get("/periods", h.handleListPeriods)
		r.With(write).Post("/periods", h.handleCreatePeriod)
		r.With(read).Get("/periods/{periodID}", h.handleGetPeriod)
		r.With(write).Put("/periods/{periodID}/status", h.handleUpdatePeriodStatus)
		r.With(write).Post("/periods/{periodID}/recalculate", h.handleRecalculatePeriod)
		r.With(read).Get("/periods/{periodID}/summary", h.handlePeriodSummary)
		r.With(read).Get("/periods/{periodID}/entries", h.handleListEntries)
		r.With(write).Post("/periods/{periodID}/entries", h.handleCreateEntry)
		r.With(read).Get("/entries/{entryID}", h.handleGetEntry)
		r.With(write).Put("/entries/{entryID}", h.handleUpdateEntry)
	})
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	periods, total, err := h.Service.ListPeriods(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"periods": periods, "total": total}, requestID)
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload periodPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestID) {
		return
	}

	period, err := h.Service.CreatePeriod(r.Context(), payload.Name, start, end)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "payroll.period.create", "payroll_period", period.ID, nil, period)
	api.Created(w, period, requestID)
}

func (h *Handler) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	period, err := h.Service.GetPeriod(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, period, requestID)
}

func (h *Handler) handleUpdatePeriodStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload periodStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		return
	}

	periodID := chi.URLParam(r, "periodID")
	before, err := h.Service.GetPeriod(r.Context(), periodID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	period, err := h.Service.UpdatePeriodStatus(r.Context(), periodID, payload.Status)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "payroll.period.status", "payroll_period", period.ID, before, period)
	api.Success(w, period, requestID)
}

func (h *Handler) handleRecalculatePeriod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	periodID := chi.URLParam(r, "periodID")
	summary, err := h.Service.RecalculatePeriod(r.Context(), periodID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "payroll.period.recalculate", "payroll_period", periodID, nil, summary)
	api.Success(w, summary, requestID)
}

func (h *Handler) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	summary, err := h.Service.PeriodSummary(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, summary, requestID)
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	entries, err := h.Service.ListEntries(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, entries, requestID)
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	if v.Reject(w, requestID) {
		return
	}

	entry, err := h.Service.CreateEntry(r.Context(), chi.URLParam(r, "periodID"), payload.EmployeeID, payload.EntryInputs)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "payroll.entry.create", "payroll_entry", entry.ID, nil, entry)
	api.Created(w, entry, requestID)
}

func (h *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	entry, err := h.Service.GetEntry(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, entry, requestID)
}

func (h *Handler) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		return
	}

	entryID := chi.URLParam(r, "entryID")
	before, err := h.Service.GetEntry(r.Context(), entryID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	entry, err := h.Service.UpdateEntry(r.Context(), entryID, payload.EntryInputs)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "payroll.entry.update", "payroll_entry", entry.ID, before, entry)
	api.Success(w, entry, requestID)
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	user, _ := middleware.GetUser(r.Context())
	err := h.Audit.Record(r.Context(), user.UserID, action, entityType, entityID,
		middleware.GetRequestID(r.Context()), r.RemoteAddr, before, after)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
