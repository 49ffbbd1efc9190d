package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/usecase/service_interfaces"
	"github.com/arcbank/funds-engine/src/internal/usecase/services"
)

const (
	actionTransfer = "transfer"
	actionReversal = "reversal"
	actionRefresh  = "refresh"
	actionCustomer = "customer"
	actionQuit     = "quit"
)

type teller struct {
	accounts    service_interfaces.AccountService
	banks       service_interfaces.ParticipantBankService
	transfers   service_interfaces.TransferService
	reversals   service_interfaces.ReversalService
	catalog     *services.ReasonCatalog
	location    *time.Location
	workstation domain.SessionContext
	session     domain.SessionContext
}

func (t *teller) run(ctx context.Context) error {
	if err := t.identifyCustomer(ctx); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var action string
		err := huh.NewSelect[string]().
			Title("What does the customer need?").
			Options(
				huh.NewOption("Transfer funds", actionTransfer),
				huh.NewOption("Request a reversal", actionReversal),
				huh.NewOption("Refresh balances", actionRefresh),
				huh.NewOption("Serve another customer", actionCustomer),
				huh.NewOption("Quit", actionQuit),
			).
			Value(&action).
			Run()
		if err != nil {
			return err
		}

		switch action {
		case actionTransfer:
			err = t.transfer(ctx)
		case actionReversal:
			err = t.reversal(ctx)
		case actionRefresh:
			var accounts []domain.Account
			accounts, err = t.accounts.Refresh(ctx, t.session)
			if err == nil {
				printAccounts(accounts)
			}
		case actionCustomer:
			err = t.identifyCustomer(ctx)
		case actionQuit:
			return nil
		}

		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			fmt.Println(services.UserMessage(err, t.catalog))
		}
	}
}

func (t *teller) identifyCustomer(ctx context.Context) error {
	for {
		var identification string
		err := huh.NewInput().
			Title("Customer identification").
			Value(&identification).
			Run()
		if err != nil {
			return err
		}

		session, accounts, err := t.accounts.OpenSession(ctx, identification, t.workstation)
		if err != nil {
			fmt.Println(services.UserMessage(err, t.catalog))
			continue
		}

		t.session = session
		printAccounts(accounts)
		return nil
	}
}

func (t *teller) pickAccount(title string) (string, error) {
	accounts := t.accounts.Accounts()
	if len(accounts) == 0 {
		return "", domain.NewValidationError("the customer has no accounts")
	}

	options := make([]huh.Option[string], 0, len(accounts))
	for _, account := range accounts {
		label := fmt.Sprintf("%s  %s  $%s", account.DisplayNumber, account.Type, account.Balance.StringFixed(2))
		options = append(options, huh.NewOption(label, account.ID))
	}

	var accountID string
	err := huh.NewSelect[string]().Title(title).Options(options...).Value(&accountID).Run()
	return accountID, err
}

func (t *teller) transfer(ctx context.Context) error {
	sourceID, err := t.pickAccount("Pay from")
	if err != nil {
		return err
	}

	workflow, err := t.transfers.Begin(t.session, sourceID)
	if err != nil {
		return err
	}

	for {
		snap := workflow.Snapshot()
		switch snap.State {
		case services.StateCollectDestination:
			err = t.collectDestination(ctx, workflow)
			if errors.Is(err, huh.ErrUserAborted) {
				return workflow.Abandon()
			}
		case services.StateCollectAmount:
			err = t.collectAmount(workflow)
			if errors.Is(err, huh.ErrUserAborted) {
				err = workflow.Back()
			}
		case services.StateConfirm, services.StateFailed:
			err = t.confirm(ctx, workflow, snap)
		case services.StateSuccess:
			fmt.Println(snap.Receipt.Text())
			printAccounts(t.accounts.Accounts())
			return nil
		case services.StateAbandoned:
			fmt.Println("Transfer cancelled.")
			return nil
		default:
			return fmt.Errorf("unexpected transfer state %s", snap.State)
		}

		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			fmt.Println(services.UserMessage(err, t.catalog))
		}
	}
}

func (t *teller) collectDestination(ctx context.Context, workflow service_interfaces.TransferWorkflow) error {
	in := services.DestinationInput{Kind: services.DestinationInternal}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[services.DestinationKind]().
				Title("Destination").
				Options(
					huh.NewOption("Account at this bank", services.DestinationInternal),
					huh.NewOption("Account at another bank", services.DestinationInterbank),
				).
				Value(&in.Kind),
			huh.NewInput().Title("Beneficiary name").Value(&in.BeneficiaryName),
		),
	).Run()
	if err != nil {
		return err
	}

	if in.Kind == services.DestinationInterbank {
		banks, err := t.banks.GetParticipantBanks(ctx)
		if err != nil {
			return err
		}
		options := make([]huh.Option[string], 0, len(banks))
		for _, bank := range banks {
			options = append(options, huh.NewOption(bank.BankName, bank.BankCode))
		}

		err = huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().Title("Bank").Options(options...).Value(&in.BankCode),
				huh.NewInput().Title("External account number").Value(&in.Identifier),
			),
		).Run()
		if err != nil {
			return err
		}
	} else {
		err = huh.NewInput().
			Title("Account number or customer identification").
			Value(&in.Identifier).
			Run()
		if err != nil {
			return err
		}
	}

	return workflow.SubmitDestination(ctx, in)
}

func (t *teller) collectAmount(workflow service_interfaces.TransferWorkflow) error {
	var in services.AmountInput

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Amount").Placeholder("0.00").Value(&in.Amount),
			huh.NewInput().Title("Description (optional)").Value(&in.Description),
		),
	).Run()
	if err != nil {
		return err
	}

	return workflow.SubmitAmount(in)
}

func (t *teller) confirm(ctx context.Context, workflow service_interfaces.TransferWorkflow, snap services.WorkflowSnapshot) error {
	const (
		choiceSend   = "send"
		choiceBack   = "back"
		choiceCancel = "cancel"
	)

	title := fmt.Sprintf("Send $%s to %s (%s)?",
		snap.Intent.Amount.StringFixed(2),
		snap.Intent.BeneficiaryName,
		snap.Intent.Destination.Label(),
	)
	if snap.State == services.StateFailed {
		title = "The transfer failed. " + services.UserMessage(snap.LastError, t.catalog)
	}

	sendLabel := "Send"
	if snap.State == services.StateFailed {
		sendLabel = "Try again"
	}

	var choice string
	err := huh.NewSelect[string]().
		Title(title).
		Options(
			huh.NewOption(sendLabel, choiceSend),
			huh.NewOption("Change amount", choiceBack),
			huh.NewOption("Cancel transfer", choiceCancel),
		).
		Value(&choice).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return workflow.Abandon()
	}
	if err != nil {
		return err
	}

	switch choice {
	case choiceBack:
		return workflow.Back()
	case choiceCancel:
		return workflow.Abandon()
	default:
		_, err := workflow.Confirm(ctx)
		return err
	}
}

func (t *teller) reversal(ctx context.Context) error {
	accountID, err := t.pickAccount("Account to review")
	if err != nil {
		return err
	}

	eligible, err := t.reversals.LoadHistory(ctx, accountID, time.Now())
	if err != nil {
		return err
	}
	if len(eligible) == 0 {
		fmt.Println("No transactions are eligible for reversal.")
		return nil
	}

	txOptions := make([]huh.Option[string], 0, len(eligible))
	for _, tx := range eligible {
		label := fmt.Sprintf("%s  %-22s $%s  %s",
			tx.CreatedAt.In(t.location).Format("2006-01-02 15:04"),
			tx.OperationType,
			tx.Amount.StringFixed(2),
			tx.Description,
		)
		txOptions = append(txOptions, huh.NewOption(label, tx.ID))
	}

	reasons := t.reversals.Reasons(ctx)
	reasonOptions := make([]huh.Option[string], 0, len(reasons))
	for _, reason := range reasons {
		reasonOptions = append(reasonOptions, huh.NewOption(reason.Code+" - "+reason.Description, reason.Code))
	}

	var transactionID, reasonCode string
	confirmed := false
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Transaction").Options(txOptions...).Value(&transactionID),
			huh.NewSelect[string]().Title("Reason").Options(reasonOptions...).Value(&reasonCode),
			huh.NewConfirm().Title("Submit the reversal request?").Affirmative("Submit").Negative("Cancel").Value(&confirmed),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	ack, err := t.reversals.SubmitReversal(ctx, t.session, transactionID, reasonCode)
	if err != nil {
		return err
	}

	message := ack.Message
	if message == "" {
		message = "Reversal requested."
	}
	fmt.Printf("%s (%s)\n", message, t.catalog.Describe(reasonCode))
	if ack.RefreshRequired {
		if _, err := t.reversals.LoadHistory(ctx, accountID, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

func printAccounts(accounts []domain.Account) {
	for _, account := range accounts {
		fmt.Printf("%s  %-8s $%s\n", account.DisplayNumber, account.Type, account.Balance.StringFixed(2))
	}
}
