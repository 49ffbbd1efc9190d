package domain

// SessionContext carries the principal and workstation identity explicitly so
// one engine can serve several customers in sequence.
type SessionContext struct {
	PrincipalClientID string
	CashierID         string
	BranchID          string
	Channel           string
}
