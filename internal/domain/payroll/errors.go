package payroll

import "github.com/diazhh/erp-ace-sub000/internal/domain/apperr"

var (
	ErrPeriodNotFound  = apperr.NotFound("period_not_found", "payroll period not found")
	ErrEntryNotFound   = apperr.NotFound("entry_not_found", "payroll entry not found")
	ErrPeriodImmutable = apperr.StateConflict("period_paid", "payroll period is paid; entries are immutable")
)
