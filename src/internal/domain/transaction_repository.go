package domain

import "context"

// TransactionGateway is the remote transaction service the engine orchestrates.
type TransactionGateway interface {
	Execute(ctx context.Context, req ExecutionRequest) (ExecutionResult, error)
	ListByAccount(ctx context.Context, accountID string) ([]Transaction, error)
	RequestReversal(ctx context.Context, req ReversalRequest) (ReversalAck, error)
	ReversalReasons(ctx context.Context) ([]ReasonCode, error)
}
