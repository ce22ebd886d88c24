package loans

import "github.com/diazhh/erp-ace-sub000/internal/domain/apperr"

var (
	ErrLoanNotFound = apperr.NotFound("loan_not_found", "employee loan not found")
)
