package services

import (
	"sort"
	"strings"
	"time"

	"github.com/arcbank/funds-engine/src/internal/config"
	"github.com/arcbank/funds-engine/src/internal/domain"
)

// ReversalPolicy decides which history entries a reversal may be requested
// for. Policies are selected whole; they are never combined.
type ReversalPolicy struct {
	Name            string
	ReversibleTypes map[domain.OperationType]struct{}
	BlockedStatuses map[domain.TransactionStatus]struct{}
	// Window is exclusive: an entry exactly Window old is no longer eligible.
	Window time.Duration
}

var blockedReversalStatuses = map[domain.TransactionStatus]struct{}{
	domain.TransactionStatusReversed: {},
	domain.TransactionStatusRefunded: {},
	domain.TransactionStatusFailed:   {},
	domain.TransactionStatusPending:  {},
}

// OutboundPolicy lets the payer claw back money it sent.
func OutboundPolicy(window time.Duration) ReversalPolicy {
	return ReversalPolicy{
		Name: config.ReversalPolicyOutbound,
		ReversibleTypes: map[domain.OperationType]struct{}{
			domain.OperationInternalTransferOut:  {},
			domain.OperationInterbankTransferOut: {},
		},
		BlockedStatuses: blockedReversalStatuses,
		Window:          window,
	}
}

// InboundPolicy lets the receiving side return money it was sent in error.
func InboundPolicy(window time.Duration) ReversalPolicy {
	return ReversalPolicy{
		Name: config.ReversalPolicyInbound,
		ReversibleTypes: map[domain.OperationType]struct{}{
			domain.OperationInternalTransferIn:  {},
			domain.OperationInterbankTransferIn: {},
		},
		BlockedStatuses: blockedReversalStatuses,
		Window:          window,
	}
}

// PolicyFromConfig maps the configured policy name; anything but "inbound"
// selects the outbound policy.
func PolicyFromConfig(cfg config.Config) ReversalPolicy {
	if cfg.ReversalPolicy == config.ReversalPolicyInbound {
		return InboundPolicy(cfg.ReversalWindow)
	}
	return OutboundPolicy(cfg.ReversalWindow)
}

func (p ReversalPolicy) Eligible(tx domain.Transaction, now time.Time) bool {
	if _, ok := p.ReversibleTypes[tx.OperationType]; !ok {
		return false
	}
	if _, blocked := p.BlockedStatuses[tx.Status]; blocked {
		return false
	}
	if tx.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(tx.CreatedAt) < p.Window
}

// EligibleForReversal returns the entries of transactions that policy allows
// reversing at now, newest first. The input is not modified.
func EligibleForReversal(transactions []domain.Transaction, now time.Time, policy ReversalPolicy) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if policy.Eligible(tx, now) {
			out = append(out, tx)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return compareIDs(out[i].ID, out[j].ID) > 0
	})
	return out
}

// compareIDs orders numeric ids numerically and everything else lexically.
func compareIDs(a, b string) int {
	if digitsOnly(a) && digitsOnly(b) {
		na, nb := trimLeadingZeros(a), trimLeadingZeros(b)
		switch {
		case len(na) != len(nb):
			if len(na) < len(nb) {
				return -1
			}
			return 1
		case na != nb:
			a, b = na, nb
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func trimLeadingZeros(value string) string {
	trimmed := strings.TrimLeft(value, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func digitsOnly(value string) bool {
	if value == "" {
		return false
	}
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
