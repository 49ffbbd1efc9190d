package service_interfaces

import (
	"context"
	"time"

	"github.com/arcbank/funds-engine/src/internal/domain"
)

type ReversalService interface {
	Reasons(ctx context.Context) []domain.ReasonCode
	LoadHistory(ctx context.Context, accountID string, now time.Time) ([]domain.Transaction, error)
	SubmitReversal(ctx context.Context, session domain.SessionContext, transactionID string, reasonCode string) (domain.ReversalAck, error)
}
