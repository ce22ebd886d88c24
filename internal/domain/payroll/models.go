package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Period struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// EntryInputs are the stored input fields of a payroll entry. Every derived
// field is computed from these by CalculateTotals.
type EntryInputs struct {
	BaseSalary         decimal.Decimal `json:"baseSalary"`
	TotalDays          int             `json:"totalDays"`
	DaysWorked         int             `json:"daysWorked"`
	Overtime           decimal.Decimal `json:"overtime"`
	Bonus              decimal.Decimal `json:"bonus"`
	Commission         decimal.Decimal `json:"commission"`
	FoodAllowance      decimal.Decimal `json:"foodAllowance"`
	TransportAllowance decimal.Decimal `json:"transportAllowance"`
	OtherIncome        decimal.Decimal `json:"otherIncome"`
	ISLRDeduction      decimal.Decimal `json:"islrDeduction"`
	LoanDeduction      decimal.Decimal `json:"loanDeduction"`
	OtherDeductions    decimal.Decimal `json:"otherDeductions"`
}

// EntryTotals are the derived fields of a payroll entry.
type EntryTotals struct {
	ProportionalSalary decimal.Decimal `json:"proportionalSalary"`
	GrossPay           decimal.Decimal `json:"grossPay"`
	SSODeduction       decimal.Decimal `json:"ssoDeduction"`
	RPEDeduction       decimal.Decimal `json:"rpeDeduction"`
	FAVDeduction       decimal.Decimal `json:"favDeduction"`
	TotalDeductions    decimal.Decimal `json:"totalDeductions"`
	NetPay             decimal.Decimal `json:"netPay"`
	Warnings           []string        `json:"warnings,omitempty"`
}

type Entry struct {
	ID         string `json:"id"`
	PeriodID   string `json:"periodId"`
	EmployeeID string `json:"employeeId"`
	EntryInputs
	EntryTotals
	PaymentStatus string    `json:"paymentStatus"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type PeriodSummary struct {
	TotalGross      decimal.Decimal `json:"totalGross"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	TotalNet        decimal.Decimal `json:"totalNet"`
	EntryCount      int             `json:"entryCount"`
	Warnings        map[string]int  `json:"warnings"`
}
