package pettycashhandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/diazhh/erp-ace-sub000/internal/auth"
	"github.com/diazhh/erp-ace-sub000/internal/domain/audit"
	"github.com/diazhh/erp-ace-sub000/internal/domain/pettycash"
	"github.com/diazhh/erp-ace-sub000/internal/platform/metrics"
	"github.com/diazhh/erp-ace-sub000/internal/transport/http/api"
	"github.com/diazhh/erp-ace-sub000/internal/transport/http/middleware"
	"github.com/diazhh/erp-ace-sub000/internal/transport/http/shared"
)

type Handler struct {
	Service *pettycash.Service
	Audit   *audit.Service
}

func NewHandler(service *pettycash.Service, auditor *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

type fundPayload struct {
	Name              string              `json:"name"`
	Currency          string              `json:"currency"`
	InitialAmount     decimal.Decimal     `json:"initialAmount"`
	MinimumBalance    decimal.Decimal     `json:"minimumBalance"`
	MaximumExpense    decimal.NullDecimal `json:"maximumExpense"`
	RequiresApproval  bool                `json:"requiresApproval"`
	ApprovalThreshold decimal.NullDecimal `json:"approvalThreshold"`
	CustodianID       string              `json:"custodianId"`
}

type fundStatusPayload struct {
	Status string `json:"status"`
}

type checkExpensePayload struct {
	Amount decimal.Decimal `json:"amount"`
}

type entryPayload struct {
	EntryType   string          `json:"entryType"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

type payPayload struct {
	PaymentReference string `json:"paymentReference"`
}

// fundView decorates a fund with its derived replenishment flag.
type fundView struct {
	pettycash.Fund
	NeedsReplenishment bool `json:"needsReplenishment"`
}

func viewOf(fund pettycash.Fund) fundView {
	return fundView{Fund: fund, NeedsReplenishment: fund.NeedsReplenishment()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequireRole(auth.RoleOperator, auth.RoleSupervisor, auth.RoleAdmin)
	write := middleware.RequireRole(auth.RoleSupervisor, auth.RoleAdmin)

	r.Route("/petty-cash", func(r chi.Router) {
		r.With(read).Get("/funds", h.handleListFunds)
		r.With(write).Post("/funds", h.handleCreateFund)
		r.With(read).Get("/funds/{fundID}", h.handleGetFund)
		r.With(write).Put("/funds/{fundID}/status", h.handleUpdateFundStatus)
		r.With(write).Post("/funds/{fundID}/close", h.handleCloseFund)
		r.With(read).Post("/funds/{fundID}/check-expense", h.handleCheckExpense)
		r.With(read).Get("/funds/{fundID}/entries", h.handleListEntries)
		r.With(read).Post("/funds/{fundID}/entries", h.handleCreateEntry)
		r.With(read).Get("/entries/{entryID}", h.handleGetEntry)
		r.With(write).Post("/entries/{entryID}/approve", h.handleApproveEntry)
		r.With(write).Post("/entries/{entryID}/reject", h.handleRejectEntry)
		r.With(write).Post("/entries/{entryID}/pay", h.handlePayEntry)
		r.With(write).Post("/entries/{entryID}/cancel", h.handleCancelEntry)
	})
}

func (h *Handler) handleListFunds(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	funds, total, err := h.Service.ListFunds(r.Context(), r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	views := make([]fundView, 0, len(funds))
	for _, fund := range funds {
		views = append(views, viewOf(fund))
	}
	api.Success(w, map[string]any{"funds": views, "total": total}, requestID)
}

func (h *Handler) handleCreateFund(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload fundPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, requestID) {
		return
	}

	user, _ := middleware.GetUser(r.Context())
	fund, err := h.Service.CreateFund(r.Context(), pettycash.CreateFundRequest{
		Name:              payload.Name,
		Currency:          payload.Currency,
		InitialAmount:     payload.InitialAmount,
		MinimumBalance:    payload.MinimumBalance,
		MaximumExpense:    payload.MaximumExpense,
		RequiresApproval:  payload.RequiresApproval,
		ApprovalThreshold: payload.ApprovalThreshold,
		CustodianID:       payload.CustodianID,
		CreatedBy:         user.UserID,
	})
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "pettycash.fund.create", "petty_cash_fund", fund.ID, nil, fund)
	api.Created(w, viewOf(fund), requestID)
}

func (h *Handler) handleGetFund(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	fund, err := h.Service.GetFund(r.Context(), chi.URLParam(r, "fundID"))
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, viewOf(fund), requestID)
}

func (h *Handler) handleUpdateFundStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload fundStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		return
	}

	fundID := chi.URLParam(r, "fundID")
	before, err := h.Service.GetFund(r.Context(), fundID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	fund, err := h.Service.UpdateFundStatus(r.Context(), fundID, payload.Status)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "pettycash.fund.status", "petty_cash_fund", fund.ID, before, fund)
	api.Success(w, viewOf(fund), requestID)
}

func (h *Handler) handleCloseFund(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	fundID := chi.URLParam(r, "fundID")
	before, err := h.Service.GetFund(r.Context(), fundID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	fund, err := h.Service.CloseFund(r.Context(), fundID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "pettycash.fund.close", "petty_cash_fund", fund.ID, before, fund)
	api.Success(w, viewOf(fund), requestID)
}

func (h *Handler) handleCheckExpense(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload checkExpensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		return
	}
	decision, err := h.Service.CheckExpense(r.Context(), chi.URLParam(r, "fundID"), payload.Amount)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, decision, requestID)
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	entries, total, err := h.Service.ListEntries(r.Context(), chi.URLParam(r, "fundID"), r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"entries": entries, "total": total}, requestID)
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("entryType", payload.EntryType, "is required")
	if v.Reject(w, requestID) {
		return
	}

	user, _ := middleware.GetUser(r.Context())
	entry, err := h.Service.CreateEntry(r.Context(), chi.URLParam(r, "fundID"), pettycash.EntryRequest{
		EntryType:   payload.EntryType,
		Amount:      payload.Amount,
		Description: payload.Description,
		CreatedBy:   user.UserID,
	})
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	if entry.Status == pettycash.StatusApproved {
		metrics.PettyCashEntriesApproved.WithLabelValues(entry.EntryType).Inc()
	}
	h.record(r, "pettycash.entry.create", "petty_cash_entry", entry.ID, nil, entry)
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

func (h *Handler) handleApproveEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	entryID := chi.URLParam(r, "entryID")
	before, err := h.Service.GetEntry(r.Context(), entryID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	user, _ := middleware.GetUser(r.Context())
	entry, err := h.Service.ApproveEntry(r.Context(), entryID, user.UserID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	metrics.PettyCashEntriesApproved.WithLabelValues(entry.EntryType).Inc()
	h.record(r, "pettycash.entry.approve", "petty_cash_entry", entry.ID, before, entry)
	api.Success(w, entry, requestID)
}

func (h *Handler) handleRejectEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload rejectPayload
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
	user, _ := middleware.GetUser(r.Context())
	entry, err := h.Service.RejectEntry(r.Context(), entryID, user.UserID, payload.Reason)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "pettycash.entry.reject", "petty_cash_entry", entry.ID, before, entry)
	api.Success(w, entry, requestID)
}

func (h *Handler) handlePayEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload payPayload
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
	user, _ := middleware.GetUser(r.Context())
	entry, err := h.Service.PayEntry(r.Context(), entryID, user.UserID, payload.PaymentReference)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "pettycash.entry.pay", "petty_cash_entry", entry.ID, before, entry)
	api.Success(w, entry, requestID)
}

func (h *Handler) handleCancelEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	entryID := chi.URLParam(r, "entryID")
	before, err := h.Service.GetEntry(r.Context(), entryID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	entry, err := h.Service.CancelEntry(r.Context(), entryID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "pettycash.entry.cancel", "petty_cash_entry", entry.ID, before, entry)
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
