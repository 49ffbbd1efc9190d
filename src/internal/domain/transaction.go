package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OperationType string

const (
	OperationDeposit              OperationType = "DEPOSIT"
	OperationWithdrawal           OperationType = "WITHDRAWAL"
	OperationInternalTransferOut  OperationType = "INTERNAL_TRANSFER_OUT"
	OperationInternalTransferIn   OperationType = "INTERNAL_TRANSFER_IN"
	OperationInterbankTransferOut OperationType = "INTERBANK_TRANSFER_OUT"
	OperationInterbankTransferIn  OperationType = "INTERBANK_TRANSFER_IN"
	OperationReversal             OperationType = "REVERSAL"
)

// IsDebit reports whether the operation takes money out of the viewed account.
func (o OperationType) IsDebit() bool {
	switch o {
	case OperationWithdrawal, OperationInternalTransferOut, OperationInterbankTransferOut:
		return true
	default:
		return false
	}
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
	TransactionStatusRefunded  TransactionStatus = "REFUNDED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is a server-authoritative history record, already normalized
// from the gateway's wire shape and oriented to the account it was fetched for.
type Transaction struct {
	ID                   string
	Reference            string
	SourceAccountID      string
	DestinationAccountID string
	ExternalAccount      string
	ExternalBankCode     string
	OperationType        OperationType
	Amount               decimal.Decimal
	ResultingBalance     decimal.Decimal
	CreatedAt            time.Time
	Status               TransactionStatus
	Channel              string
	Description          string
}
