package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ExecutionType string

const (
	ExecutionInternalTransfer  ExecutionType = "INTERNAL_TRANSFER"
	ExecutionInterbankTransfer ExecutionType = "INTERBANK_TRANSFER"
)

// ExternalBeneficiary is a destination held at another participant bank. It is
// never resolved against the internal account registry.
type ExternalBeneficiary struct {
	BankCode              string
	BankName              string
	ExternalAccountNumber string
	BeneficiaryName       string
}

// Destination holds exactly one of Internal or External.
type Destination struct {
	Internal *AccountRef
	External *ExternalBeneficiary
}

func (d Destination) IsZero() bool {
	return d.Internal == nil && d.External == nil
}

func (d Destination) Label() string {
	switch {
	case d.Internal != nil:
		return d.Internal.DisplayNumber
	case d.External != nil:
		return d.External.BankName + " " + d.External.ExternalAccountNumber
	default:
		return ""
	}
}

// TransferIntent lives only as long as its workflow instance.
type TransferIntent struct {
	SourceAccountID string
	BeneficiaryName string
	Destination     Destination
	Amount          decimal.Decimal
	Channel         string
	Description     string
	BranchID        string
}

// ExecutionRequest is what the workflow submits to the transaction gateway.
type ExecutionRequest struct {
	Reference       string
	Type            ExecutionType
	SourceAccountID string
	Destination     Destination
	Amount          decimal.Decimal
	Channel         string
	Description     string
	BranchID        string
}

// ExecutionResult is the normalized gateway answer to an execution request.
// ResultingBalance is only valid when the gateway echoed the post-transaction
// balance.
type ExecutionResult struct {
	TransactionID    string
	Reference        string
	ResultingBalance decimal.NullDecimal
	Message          string
}

// Receipt is the record shown once a transfer reaches SUCCESS.
type Receipt struct {
	TransactionID       string
	Reference           string
	Amount              decimal.Decimal
	SourceDisplayNumber string
	Destination         string
	BeneficiaryName     string
	ExecutedAt          time.Time
}

// Text renders the receipt as plain text for printing or saving.
func (r Receipt) Text() string {
	var b strings.Builder
	b.WriteString("TRANSFER RECEIPT\n")
	writeReceiptLine(&b, "Transaction", r.TransactionID)
	writeReceiptLine(&b, "Reference", r.Reference)
	if !r.ExecutedAt.IsZero() {
		writeReceiptLine(&b, "Date", r.ExecutedAt.Format("2006-01-02 15:04:05 MST"))
	}
	writeReceiptLine(&b, "From account", r.SourceDisplayNumber)
	writeReceiptLine(&b, "To", r.Destination)
	writeReceiptLine(&b, "Beneficiary", r.BeneficiaryName)
	writeReceiptLine(&b, "Amount", "$"+r.Amount.StringFixed(2))
	return b.String()
}

func writeReceiptLine(b *strings.Builder, label string, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%-12s %s\n", label+":", value)
}
