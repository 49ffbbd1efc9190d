package service_interfaces

import (
	"context"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/usecase/services"
)

type TransferService interface {
	Begin(session domain.SessionContext, sourceAccountID string) (*services.TransferWorkflow, error)
}

// TransferWorkflow is the command surface a front-end drives.
type TransferWorkflow interface {
	SubmitDestination(ctx context.Context, in services.DestinationInput) error
	SubmitAmount(in services.AmountInput) error
	Confirm(ctx context.Context) (domain.Receipt, error)
	Back() error
	Abandon() error
	Snapshot() services.WorkflowSnapshot
}
