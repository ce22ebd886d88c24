package loanshandler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/diazhh/erp-ace-sub000/internal/auth"
	"github.com/diazhh/erp-ace-sub000/internal/domain/audit"
	"github.com/diazhh/erp-ace-sub000/internal/domain/loans"
	"github.com/diazhh/erp-ace-sub000/internal/platform/metrics"
	"github.com/diazhh/erp-ace-sub000/internal/transport/http/api"
	"github.com/diazhh/erp-ace-sub000/internal/transport/http/middleware"
	"github.com/diazhh/erp-ace-sub000/internal/transport/http/shared"
)

type Handler struct {
	Service *loans.Service
	Audit   *audit.Service
}

func NewHandler(service *loans.Service, auditor *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

type loanPayload struct {
	EmployeeID        string          `json:"employeeId"`
	Amount            decimal.Decimal `json:"amount"`
	TotalInstallments int             `json:"totalInstallments"`
	StartDate         string          `json:"startDate"`
	Reason            string          `json:"reason"`
}

type paymentPayload struct {
	Amount            decimal.Decimal `json:"amount"`
	InstallmentNumber int             `json:"installmentNumber"`
	PaymentDate       string          `json:"paymentDate"`
	Method            string          `json:"method"`
	PayrollEntryID    string          `json:"payrollEntryId"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequireRole(auth.RoleOperator, auth.RoleSupervisor, auth.RoleAdmin)
	write := middleware.RequireRole(auth.RoleSupervisor, auth.RoleAdmin)

	r.Route("/loans", func(r chi.Router) {
		r.With(read).Get("/", h.handleListLoans)
		r.With(write).Post("/", h.handleOriginate)
		r.With(read).Get("/{loanID}", h.handleGetLoan)
		r.With(read).Get("/{loanID}/schedule", h.handleSchedule)
		r.With(read).Get("/{loanID}/payments", h.handleListPayments)
		r.With(write).Post("/{loanID}/payments", h.handleApplyPayment)
		r.With(write).Post("/{loanID}/cancel", h.handleCancel)
		r.With(write).Post("/{loanID}/pause", h.handlePause)
		r.With(write).Post("/{loanID}/resume", h.handleResume)
	})
}

func (h *Handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	employeeID := r.URL.Query().Get("employeeId")
	list, total, err := h.Service.ListLoans(r.Context(), employeeID, page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"loans": list, "total": total}, requestID)
}

func (h *Handler) handleOriginate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loanPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	v.Positive("amount", payload.Amount)
	startDate := time.Now().UTC()
	if payload.StartDate != "" {
		parsed, ok := v.Date("startDate", payload.StartDate)
		if ok {
			startDate = parsed
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	loan, err := h.Service.Originate(r.Context(), payload.EmployeeID, payload.Amount, payload.TotalInstallments, startDate, payload.Reason)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, "loans.originate", "employee_loan", loan.ID, nil, loan)
	api.Created(w, loan, requestID)
}

func (h *Handler) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	loan, err := h.Service.GetLoan(r.Context(), chi.URLParam(r, "loanID"))
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, loan, requestID)
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	schedule, err := h.Service.LoanSchedule(r.Context(), chi.URLParam(r, "loanID"))
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, schedule, requestID)
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	payments, err := h.Service.ListPayments(r.Context(), chi.URLParam(r, "loanID"))
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	api.Success(w, payments, requestID)
}

func (h *Handler) handleApplyPayment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload paymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Positive("amount", payload.Amount)
	var paymentDate time.Time
	if payload.PaymentDate != "" {
		parsed, ok := v.Date("paymentDate", payload.PaymentDate)
		if ok {
			paymentDate = parsed
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	loanID := chi.URLParam(r, "loanID")
	before, err := h.Service.GetLoan(r.Context(), loanID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	loan, payment, err := h.Service.ApplyPayment(r.Context(), loanID, loans.PaymentRequest{
		Amount:            payload.Amount,
		InstallmentNumber: payload.InstallmentNumber,
		PaymentDate:       paymentDate,
		Method:            payload.Method,
		PayrollEntryID:    payload.PayrollEntryID,
	})
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	metrics.LoanPaymentsApplied.Inc()
	h.record(r, "loans.payment.apply", "employee_loan", loan.ID, before, loan)
	api.Created(w, map[string]any{"loan": loan, "payment": payment}, requestID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, "loans.cancel", h.Service.Cancel)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, "loans.pause", h.Service.Pause)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, "loans.resume", h.Service.Resume)
}

func (h *Handler) handleStatusChange(w http.ResponseWriter, r *http.Request, action string, change func(ctx context.Context, loanID string) (loans.Loan, error)) {
	requestID := middleware.GetRequestID(r.Context())
	loanID := chi.URLParam(r, "loanID")
	before, err := h.Service.GetLoan(r.Context(), loanID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	loan, err := change(r.Context(), loanID)
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	h.record(r, action, "employee_loan", loan.ID, before, loan)
	api.Success(w, loan, requestID)
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	user, _ := middleware.GetUser(r.Context())
	err := h.Audit.Record(r.Context(), user.UserID, action, entityType, entityID,
		middleware.GetRequestID(r.Context()), r.RemoteAddr, before, after)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
