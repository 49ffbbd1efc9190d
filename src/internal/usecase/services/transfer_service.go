package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
)

// TransferService starts transfer workflows and holds what they share.
type TransferService struct {
	resolver                 *AccountResolver
	banks                    *ParticipantBankService
	gateway                  domain.TransactionGateway
	reconciler               *BalanceReconciler
	book                     domain.AccountBook
	externalAccountMinLength int
	defaultChannel           string
	defaultBranchID          string
	now                      func() time.Time
}

func NewTransferService(
	resolver *AccountResolver,
	banks *ParticipantBankService,
	gateway domain.TransactionGateway,
	reconciler *BalanceReconciler,
	book domain.AccountBook,
	externalAccountMinLength int,
	defaultChannel string,
	defaultBranchID string,
) *TransferService {
	if externalAccountMinLength <= 0 {
		externalAccountMinLength = 8
	}
	return &TransferService{
		resolver:                 resolver,
		banks:                    banks,
		gateway:                  gateway,
		reconciler:               reconciler,
		book:                     book,
		externalAccountMinLength: externalAccountMinLength,
		defaultChannel:           strings.TrimSpace(defaultChannel),
		defaultBranchID:          strings.TrimSpace(defaultBranchID),
		now:                      time.Now,
	}
}

// Begin opens a workflow paying from sourceAccountID, which must be one of
// the principal's accounts in the book.
func (s *TransferService) Begin(session domain.SessionContext, sourceAccountID string) (*TransferWorkflow, error) {
	sourceAccountID = strings.TrimSpace(sourceAccountID)
	if _, ok := s.book.Get(sourceAccountID); !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("source account %q is not available", sourceAccountID))
	}

	channel := firstNonBlank(session.Channel, s.defaultChannel)
	branchID := firstNonBlank(session.BranchID, s.defaultBranchID)

	w := &TransferWorkflow{
		svc:     s,
		session: session,
		id:      uuid.NewString(),
		state:   StateCollectDestination,
		intent: domain.TransferIntent{
			SourceAccountID: sourceAccountID,
			Channel:         channel,
			BranchID:        branchID,
		},
	}

	logger.Info("transfer workflow started", logger.Fields{
		"workflowId":      w.id,
		"sourceAccountId": sourceAccountID,
		"channel":         channel,
	})
	return w, nil
}
