package loans

const (
	StatusActive    = "ACTIVE"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
	StatusPaused    = "PAUSED"

	MethodPayroll  = "PAYROLL"
	MethodCash     = "CASH"
	MethodTransfer = "TRANSFER"

	// codePrefix is fixed; the numeric part comes from one global sequence,
	// not a per-employee one.
	codePrefix = "LOAN"
)
