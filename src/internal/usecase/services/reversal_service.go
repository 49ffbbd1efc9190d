package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
)

// ReversalService is the reversal desk: it loads an account's history,
// narrows it to what the policy allows reversing and submits one reversal
// request at a time.
type ReversalService struct {
	gateway    domain.TransactionGateway
	catalog    *ReasonCatalog
	reconciler *BalanceReconciler
	policy     ReversalPolicy
	now        func() time.Time

	submitting atomic.Bool

	mu        sync.RWMutex
	loaded    bool
	accountID string
	eligible  map[string]domain.Transaction
}

func NewReversalService(
	gateway domain.TransactionGateway,
	catalog *ReasonCatalog,
	reconciler *BalanceReconciler,
	policy ReversalPolicy,
) *ReversalService {
	return &ReversalService{
		gateway:    gateway,
		catalog:    catalog,
		reconciler: reconciler,
		policy:     policy,
		now:        time.Now,
	}
}

func (s *ReversalService) Policy() ReversalPolicy {
	return s.policy
}

// Reasons returns the catalog entries a customer can pick from.
func (s *ReversalService) Reasons(ctx context.Context) []domain.ReasonCode {
	return s.catalog.Load(ctx)
}

// LoadHistory fetches accountID's transactions and returns the ones eligible
// for reversal at now, newest first. The eligible set is remembered and
// checked by SubmitReversal.
func (s *ReversalService) LoadHistory(ctx context.Context, accountID string, now time.Time) ([]domain.Transaction, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, domain.NewValidationError("account id is required")
	}

	history, err := s.gateway.ListByAccount(ctx, accountID)
	if err != nil {
		logger.Error("reversal service load history failed", err, logger.Fields{"accountId": accountID})
		return nil, err
	}

	eligible := EligibleForReversal(history, now, s.policy)

	index := make(map[string]domain.Transaction, len(eligible))
	for _, tx := range eligible {
		index[tx.ID] = tx
	}

	s.mu.Lock()
	s.loaded = true
	s.accountID = accountID
	s.eligible = index
	s.mu.Unlock()

	logger.Info("reversal service history loaded", logger.Fields{
		"accountId": accountID,
		"total":     len(history),
		"eligible":  len(eligible),
		"policy":    s.policy.Name,
	})
	return eligible, nil
}

// SubmitReversal sends a single reversal request. It is never retried; on
// failure nothing local changes and the caller decides what to do next.
func (s *ReversalService) SubmitReversal(ctx context.Context, session domain.SessionContext, transactionID string, reasonCode string) (domain.ReversalAck, error) {
	transactionID = strings.TrimSpace(transactionID)
	code, validCode := domain.NormalizeReasonCode(reasonCode)

	var problems []string
	if transactionID == "" {
		problems = append(problems, "transaction id is required")
	}
	if !validCode {
		problems = append(problems, "reason code must be four letters or digits")
	}
	if len(problems) > 0 {
		return domain.ReversalAck{}, domain.NewValidationError(problems...)
	}

	s.mu.RLock()
	loaded, accountID := s.loaded, s.accountID
	_, eligible := s.eligible[transactionID]
	s.mu.RUnlock()
	if loaded && !eligible {
		return domain.ReversalAck{}, domain.NewBusinessRuleError(
			domain.ErrReversalNotEligible,
			"transaction "+transactionID+" is not eligible for reversal",
		)
	}

	if !s.submitting.CompareAndSwap(false, true) {
		return domain.ReversalAck{}, domain.ErrOperationInFlight
	}
	defer s.submitting.Store(false)

	if !s.catalog.Known(code) {
		logger.Warn("reversal service reason code not in catalog", logger.Fields{"reasonCode": code})
	}

	req := domain.ReversalRequest{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		ReasonCode:    code,
		RequestedAt:   s.now(),
	}

	logger.Info("reversal service submit request", logger.Fields{
		"requestId":     req.ID,
		"transactionId": transactionID,
		"reasonCode":    code,
	})

	ack, err := s.gateway.RequestReversal(ctx, req)
	if err != nil {
		logger.Error("reversal service submit failed", err, logger.Fields{
			"requestId": req.ID,
			"kind":      domain.KindOf(err).String(),
		})
		return domain.ReversalAck{}, err
	}
	ack.Request = req
	ack.RefreshRequired = true

	s.mu.Lock()
	delete(s.eligible, transactionID)
	s.mu.Unlock()

	if ack.ResultingBalance.Valid && accountID != "" {
		result := domain.ExecutionResult{ResultingBalance: ack.ResultingBalance}
		if err := s.reconciler.ApplyResult(ctx, session, accountID, result); err != nil {
			logger.Error("reversal service balance reconciliation failed", err, logger.Fields{"requestId": req.ID})
		}
	}

	logger.Info("reversal service submit success", logger.Fields{"requestId": req.ID})
	return ack, nil
}
