package pettycash

const (
	FundStatusActive    = "ACTIVE"
	FundStatusInactive  = "INACTIVE"
	FundStatusSuspended = "SUSPENDED"
	FundStatusClosed    = "CLOSED"
)

const (
	EntryTypeExpense       = "EXPENSE"
	EntryTypeReplenishment = "REPLENISHMENT"
	EntryTypeAdjustment    = "ADJUSTMENT"
	EntryTypeInitial       = "INITIAL"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)
