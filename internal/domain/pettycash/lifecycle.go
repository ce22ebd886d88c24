package pettycash

import "github.com/diazhh/erp-ace-sub000/internal/domain/apperr"

var entryTransitions = map[string][]string{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusPaid, StatusCancelled},
	StatusRejected:  {},
	StatusPaid:      {},
	StatusCancelled: {},
}

// CheckTransition validates an entry status move against the lifecycle.
func CheckTransition(from, to string) error {
	for _, allowed := range entryTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return apperr.StateConflict("invalid_entry_transition", "cannot move entry from %s to %s", from, to)
}

// ReverseType returns the entry type whose balance effect undoes the given
// one, used when cancelling an approved entry. Adjustments reverse by
// negating their amount, so they map to themselves; the opening INITIAL
// entry cannot be undone.
func ReverseType(entryType string) (string, error) {
	switch entryType {
	case EntryTypeExpense:
		return EntryTypeReplenishment, nil
	case EntryTypeReplenishment:
		return EntryTypeExpense, nil
	case EntryTypeAdjustment:
		return EntryTypeAdjustment, nil
	case EntryTypeInitial:
		return "", apperr.StateConflict("initial_entry_immutable", "the opening entry of a fund cannot be cancelled")
	default:
		return "", apperr.Validation("invalid_entry_type", "unknown entry type %q", entryType)
	}
}

var fundTransitions = map[string][]string{
	FundStatusActive:    {FundStatusInactive, FundStatusSuspended, FundStatusClosed},
	FundStatusInactive:  {FundStatusActive, FundStatusClosed},
	FundStatusSuspended: {FundStatusActive, FundStatusClosed},
	FundStatusClosed:    {},
}

func checkFundTransition(from, to string) error {
	for _, allowed := range fundTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return apperr.StateConflict("invalid_fund_transition", "cannot move fund from %s to %s", from, to)
}
