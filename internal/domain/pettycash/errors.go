package pettycash

import "github.com/diazhh/erp-ace-sub000/internal/domain/apperr"

var (
	ErrFundNotFound  = apperr.NotFound("fund_not_found", "petty cash fund not found")
	ErrEntryNotFound = apperr.NotFound("entry_not_found", "petty cash entry not found")
)
