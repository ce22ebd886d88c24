package payroll

const (
	PeriodStatusDraft      = "DRAFT"
	PeriodStatusCalculated = "CALCULATED"
	PeriodStatusApproved   = "APPROVED"
	PeriodStatusPaid       = "PAID"
	PeriodStatusCancelled  = "CANCELLED"

	EntryStatusPending   = "PENDING"
	EntryStatusPaid      = "PAID"
	EntryStatusCancelled = "CANCELLED"

	WarningNegativeNet = "negative_net"
)
