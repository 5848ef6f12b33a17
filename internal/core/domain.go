package core

import "time"

const (
	// OwesMe means the other person owes the user.
	OwesMe Direction = "owes_me"
	// IOwe means the user owes the other person.
	IOwe Direction = "i_owe"
)

const (
	OneTime   ObligationType = "one_time"
	Recurring ObligationType = "recurring"
)

const (
	StatusActive  Status = "active"
	StatusSettled Status = "settled"
)

type (
	Direction      string
	ObligationType string
	Status         string

	// Transaction is one payment recorded against an obligation.
	Transaction struct {
		Amount Money     `json:"amount"`
		Note   string    `json:"note,omitempty"`
		PaidAt time.Time `json:"paid_at"`
	}

	// Obligation is one person's stake in a split. RemainingAmount and
	// Status are owned by the ledger engine; the client never recomputes
	// them locally.
	Obligation struct {
		ID               string         `json:"id"`
		PersonName       string         `json:"person_name"`
		Direction        Direction      `json:"direction"`
		Type             ObligationType `json:"type"`
		TotalAmount      Money          `json:"total_amount"`
		ExpectedPerCycle Money          `json:"expected_per_cycle,omitempty"`
		RemainingAmount  Money          `json:"remaining_amount"`
		Status           Status         `json:"status"`
		Note             string         `json:"note,omitempty"`
		// TrxnID groups obligations created together from one
		// multi-person split. Empty for standalone obligations.
		TrxnID       string        `json:"trxn_id,omitempty"`
		CreatedAt    time.Time     `json:"created_at"`
		Transactions []Transaction `json:"transactions"`
	}
)

// IsActive reports whether the obligation can still be settled, edited,
// paid against, or deleted from the active view.
func (o Obligation) IsActive() bool {
	return o.Status == StatusActive
}
