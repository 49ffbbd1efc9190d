package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
)

type TransferState string

const (
	StateCollectDestination  TransferState = "COLLECT_DESTINATION"
	StateValidateDestination TransferState = "VALIDATE_DESTINATION"
	StateCollectAmount       TransferState = "COLLECT_AMOUNT"
	StateConfirm             TransferState = "CONFIRM"
	StateExecuting           TransferState = "EXECUTING"
	StateSuccess             TransferState = "SUCCESS"
	StateFailed              TransferState = "FAILED"
	StateAbandoned           TransferState = "ABANDONED"
)

// Terminal reports whether no further command can change the workflow.
// FAILED is not terminal: the customer may confirm again or step back.
func (s TransferState) Terminal() bool {
	return s == StateSuccess || s == StateAbandoned
}

type DestinationKind string

const (
	DestinationInternal  DestinationKind = "INTERNAL"
	DestinationInterbank DestinationKind = "INTERBANK"
)

type DestinationInput struct {
	Kind            DestinationKind
	BeneficiaryName string
	// Identifier is an account number or national identification for
	// internal transfers and the external account number for interbank ones.
	Identifier string
	BankCode   string
}

type AmountInput struct {
	Amount string
	// SourceAccountID switches the paying account when set.
	SourceAccountID string
	Description     string
}

// WorkflowSnapshot is a copy of the workflow's state for front-ends.
type WorkflowSnapshot struct {
	ID        string
	State     TransferState
	Intent    domain.TransferIntent
	LastError error
	Receipt   *domain.Receipt
}

var amountPattern = regexp.MustCompile(`^(\d+(\.\d{0,2})?|\.\d{1,2})$`)
var externalAccountPattern = regexp.MustCompile(`^[0-9-]+$`)

// TransferWorkflow drives one transfer from destination entry to a terminal
// state. Commands are serialized; while a remote call is outstanding every
// command except Abandon and Snapshot fails with domain.ErrOperationInFlight.
type TransferWorkflow struct {
	svc     *TransferService
	session domain.SessionContext
	id      string

	mu        sync.Mutex
	state     TransferState
	inFlight  bool
	epoch     uint64
	intent    domain.TransferIntent
	reference string
	lastErr   error
	receipt   *domain.Receipt
}

func (w *TransferWorkflow) Snapshot() WorkflowSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := WorkflowSnapshot{
		ID:        w.id,
		State:     w.state,
		Intent:    w.intent,
		LastError: w.lastErr,
	}
	if w.intent.Destination.Internal != nil {
		ref := *w.intent.Destination.Internal
		snap.Intent.Destination.Internal = &ref
	}
	if w.intent.Destination.External != nil {
		ext := *w.intent.Destination.External
		snap.Intent.Destination.External = &ext
	}
	if w.receipt != nil {
		receipt := *w.receipt
		snap.Receipt = &receipt
	}
	return snap
}

func (w *TransferWorkflow) SubmitDestination(ctx context.Context, in DestinationInput) error {
	w.mu.Lock()
	if err := w.checkCommand(StateCollectDestination); err != nil {
		w.mu.Unlock()
		return err
	}

	name := strings.TrimSpace(in.BeneficiaryName)
	identifier := strings.TrimSpace(in.Identifier)
	var problems []string
	if name == "" {
		problems = append(problems, "beneficiary name is required")
	}
	if identifier == "" {
		problems = append(problems, "destination account is required")
	}
	if len(problems) > 0 {
		err := domain.NewValidationError(problems...)
		w.lastErr = err
		w.mu.Unlock()
		return err
	}

	switch in.Kind {
	case DestinationInterbank:
		defer w.mu.Unlock()
		return w.acceptInterbank(ctx, name, identifier, in.BankCode)
	case DestinationInternal, "":
		return w.resolveInternal(ctx, name, identifier)
	default:
		err := domain.NewValidationError(fmt.Sprintf("unknown destination kind %q", in.Kind))
		w.lastErr = err
		w.mu.Unlock()
		return err
	}
}

// acceptInterbank validates against the local registry only; the external
// account is never looked up. Caller holds w.mu.
func (w *TransferWorkflow) acceptInterbank(ctx context.Context, name string, accountNumber string, bankCode string) error {
	bank, err := w.svc.banks.Lookup(ctx, bankCode)
	if err != nil {
		w.lastErr = err
		return err
	}

	digits := strings.ReplaceAll(accountNumber, "-", "")
	if !externalAccountPattern.MatchString(accountNumber) || len(digits) < w.svc.externalAccountMinLength {
		err := domain.NewValidationError(fmt.Sprintf(
			"external account number must contain at least %d digits and only digits or dashes",
			w.svc.externalAccountMinLength,
		))
		w.lastErr = err
		return err
	}

	w.intent.BeneficiaryName = name
	w.intent.Destination = domain.Destination{External: &domain.ExternalBeneficiary{
		BankCode:              bank.BankCode,
		BankName:              bank.BankName,
		ExternalAccountNumber: accountNumber,
		BeneficiaryName:       name,
	}}
	w.state = StateCollectAmount
	w.lastErr = nil

	logger.Info("transfer workflow interbank destination accepted", logger.Fields{
		"workflowId": w.id,
		"bankCode":   bank.BankCode,
	})
	return nil
}

// resolveInternal is entered with w.mu held and releases it.
func (w *TransferWorkflow) resolveInternal(ctx context.Context, name string, identifier string) error {
	sourceID := w.intent.SourceAccountID
	epoch := w.beginRemote(StateValidateDestination)
	w.mu.Unlock()

	account, err := w.svc.resolver.ResolveByAccountNumber(ctx, identifier, sourceID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.endRemote(epoch) {
		return domain.ErrWorkflowClosed
	}

	if err != nil {
		w.state = StateCollectDestination
		w.lastErr = err
		logger.Info("transfer workflow destination rejected", logger.Fields{
			"workflowId": w.id,
			"kind":       domain.KindOf(err).String(),
		})
		return err
	}

	ref := account.Ref()
	w.intent.BeneficiaryName = name
	w.intent.Destination = domain.Destination{Internal: &ref}
	w.state = StateCollectAmount
	w.lastErr = nil

	logger.Info("transfer workflow internal destination resolved", logger.Fields{
		"workflowId":           w.id,
		"destinationAccountId": ref.AccountID,
	})
	return nil
}

func (w *TransferWorkflow) SubmitAmount(in AmountInput) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkCommand(StateCollectAmount); err != nil {
		return err
	}

	amount, err := parseAmount(in.Amount)
	if err != nil {
		w.lastErr = err
		return err
	}

	sourceID := w.intent.SourceAccountID
	if switchTo := strings.TrimSpace(in.SourceAccountID); switchTo != "" {
		sourceID = switchTo
	}
	source, ok := w.svc.book.Get(sourceID)
	if !ok {
		err := domain.NewValidationError(fmt.Sprintf("source account %q is not available", sourceID))
		w.lastErr = err
		return err
	}
	if internal := w.intent.Destination.Internal; internal != nil && internal.AccountID == source.ID {
		err := domain.NewBusinessRuleError(domain.ErrSameAccount, "cannot transfer to the same account")
		w.lastErr = err
		return err
	}
	if amount.GreaterThan(source.Balance) {
		err := domain.NewBusinessRuleError(
			domain.ErrInsufficientBalance,
			fmt.Sprintf("amount %s exceeds the available balance of %s", amount.StringFixed(2), source.Balance.StringFixed(2)),
		)
		w.lastErr = err
		return err
	}

	w.intent.SourceAccountID = source.ID
	w.intent.Amount = amount
	w.intent.Description = strings.TrimSpace(in.Description)
	if w.intent.Description == "" {
		w.intent.Description = defaultDescription(w.intent)
	}
	w.reference = ""
	w.state = StateConfirm
	w.lastErr = nil
	return nil
}

// Confirm sends the execution request. Exactly one request is outstanding per
// workflow; a failed attempt may be confirmed again with the same reference.
func (w *TransferWorkflow) Confirm(ctx context.Context) (domain.Receipt, error) {
	w.mu.Lock()
	if err := w.checkCommand(StateConfirm, StateFailed); err != nil {
		w.mu.Unlock()
		return domain.Receipt{}, err
	}

	if w.reference == "" {
		w.reference = uuid.NewString()
	}
	req := w.executionRequest()
	epoch := w.beginRemote(StateExecuting)
	w.mu.Unlock()

	logger.Info("transfer workflow execute request", logger.Fields{
		"workflowId": w.id,
		"payload":    logger.SanitizePayload(req),
	})

	result, err := w.svc.gateway.Execute(ctx, req)

	w.mu.Lock()
	if !w.endRemote(epoch) {
		w.mu.Unlock()
		logger.Warn("transfer workflow dropped late execution result", logger.Fields{
			"workflowId": w.id,
			"reference":  req.Reference,
		})
		return domain.Receipt{}, domain.ErrWorkflowClosed
	}

	if err != nil {
		w.state = StateFailed
		w.lastErr = err
		w.mu.Unlock()
		logger.Error("transfer workflow execution failed", err, logger.Fields{
			"workflowId": w.id,
			"kind":       domain.KindOf(err).String(),
		})
		return domain.Receipt{}, err
	}

	receipt := w.buildReceipt(result)
	w.receipt = &receipt
	w.state = StateSuccess
	w.lastErr = nil
	w.mu.Unlock()

	logger.Info("transfer workflow execution success", logger.Fields{
		"workflowId":    w.id,
		"transactionId": result.TransactionID,
	})

	if err := w.svc.reconciler.ApplyResult(ctx, w.session, req.SourceAccountID, result); err != nil {
		logger.Error("transfer workflow balance reconciliation failed", err, logger.Fields{"workflowId": w.id})
	}
	return receipt, nil
}

// Back moves one step toward destination entry.
func (w *TransferWorkflow) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkCommand(StateCollectAmount, StateConfirm, StateFailed); err != nil {
		if err == domain.ErrInvalidTransition && w.state == StateCollectDestination {
			return domain.NewBusinessRuleError(domain.ErrInvalidTransition, "already at the first step")
		}
		return err
	}

	switch w.state {
	case StateCollectAmount:
		w.intent.Destination = domain.Destination{}
		w.intent.BeneficiaryName = ""
		w.state = StateCollectDestination
	case StateConfirm, StateFailed:
		w.state = StateCollectAmount
	}
	w.reference = ""
	w.lastErr = nil
	return nil
}

// Abandon ends the workflow. A remote call still in flight is not cancelled,
// but its result is discarded when it arrives.
func (w *TransferWorkflow) Abandon() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Terminal() {
		return domain.ErrWorkflowClosed
	}

	previous := w.state
	w.state = StateAbandoned
	w.epoch++
	w.inFlight = false

	logger.Info("transfer workflow abandoned", logger.Fields{
		"workflowId": w.id,
		"from":       string(previous),
	})
	return nil
}

// checkCommand requires w.mu.
func (w *TransferWorkflow) checkCommand(allowed ...TransferState) error {
	if w.state.Terminal() {
		return domain.ErrWorkflowClosed
	}
	if w.inFlight {
		return domain.ErrOperationInFlight
	}
	for _, state := range allowed {
		if w.state == state {
			return nil
		}
	}
	return domain.ErrInvalidTransition
}

func (w *TransferWorkflow) beginRemote(state TransferState) uint64 {
	w.state = state
	w.inFlight = true
	return w.epoch
}

// endRemote reports whether the result of the call started at epoch still
// applies.
func (w *TransferWorkflow) endRemote(epoch uint64) bool {
	if w.epoch != epoch {
		return false
	}
	w.inFlight = false
	return true
}

func (w *TransferWorkflow) executionRequest() domain.ExecutionRequest {
	executionType := domain.ExecutionInternalTransfer
	if w.intent.Destination.External != nil {
		executionType = domain.ExecutionInterbankTransfer
	}

	return domain.ExecutionRequest{
		Reference:       w.reference,
		Type:            executionType,
		SourceAccountID: w.intent.SourceAccountID,
		Destination:     w.intent.Destination,
		Amount:          w.intent.Amount,
		Channel:         w.intent.Channel,
		Description:     w.intent.Description,
		BranchID:        w.intent.BranchID,
	}
}

func (w *TransferWorkflow) buildReceipt(result domain.ExecutionResult) domain.Receipt {
	source, _ := w.svc.book.Get(w.intent.SourceAccountID)
	reference := result.Reference
	if reference == "" {
		reference = w.reference
	}

	return domain.Receipt{
		TransactionID:       result.TransactionID,
		Reference:           reference,
		Amount:              w.intent.Amount,
		SourceDisplayNumber: source.DisplayNumber,
		Destination:         w.intent.Destination.Label(),
		BeneficiaryName:     w.intent.BeneficiaryName,
		ExecutedAt:          w.svc.now(),
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if !amountPattern.MatchString(raw) {
		return decimal.Decimal{}, domain.NewValidationError("amount must be a number with at most two decimals")
	}

	normalized := strings.TrimSuffix(raw, ".")
	if strings.HasPrefix(normalized, ".") {
		normalized = "0" + normalized
	}
	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, domain.NewValidationError("amount must be a number with at most two decimals")
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, domain.NewValidationError("amount must be greater than zero")
	}
	return amount, nil
}

func defaultDescription(intent domain.TransferIntent) string {
	if ext := intent.Destination.External; ext != nil {
		return fmt.Sprintf("RED EXTERNA: %s - %s", ext.BankName, intent.BeneficiaryName)
	}
	return "Transferencia a " + intent.BeneficiaryName
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
