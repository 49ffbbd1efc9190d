package services_test

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/arcbank/funds-engine/src/internal/adapter/repository/memory"
	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/usecase/services"
)

type participantBankRepoStub struct {
	banks []domain.ParticipantBank
	err   error
}

func (s participantBankRepoStub) GetAll(context.Context) ([]domain.ParticipantBank, error) {
	return s.banks, s.err
}

var testBanks = participantBankRepoStub{banks: []domain.ParticipantBank{
	{BankName: "BANCO PICHINCHA", BankCode: "0010"},
	{BankName: "BANCO GUAYAQUIL", BankCode: "0017"},
	{BankName: "ARCBANK", BankCode: "ARCBANK"},
}}

// gatewayStub stands in for the remote gateway on both its transaction and
// directory surfaces and counts every call.
type gatewayStub struct {
	mu sync.Mutex

	accountsByNumber map[string]domain.Account
	clientsByID      map[string]domain.Client
	accountsByClient map[string][]domain.Account
	numberErr        error
	clientErr        error
	listErr          error
	listCalls        int

	executeFn    func(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error)
	executed     []domain.ExecutionRequest
	history      []domain.Transaction
	historyErr   error
	reversalFn   func(req domain.ReversalRequest) (domain.ReversalAck, error)
	reversals    []domain.ReversalRequest
	reasons      []domain.ReasonCode
	reasonsErr   error
	reasonsCalls int
}

func (g *gatewayStub) GetByAccountNumber(_ context.Context, number string) (domain.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.numberErr != nil {
		return domain.Account{}, g.numberErr
	}
	account, ok := g.accountsByNumber[number]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (g *gatewayStub) GetClientByIdentification(_ context.Context, identification string) (domain.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clientErr != nil {
		return domain.Client{}, g.clientErr
	}
	client, ok := g.clientsByID[identification]
	if !ok {
		return domain.Client{}, domain.ErrAccountNotFound
	}
	return client, nil
}

func (g *gatewayStub) ListAccountsByClient(_ context.Context, clientID string) ([]domain.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]domain.Account(nil), g.accountsByClient[clientID]...), nil
}

func (g *gatewayStub) Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
	g.mu.Lock()
	g.executed = append(g.executed, req)
	fn := g.executeFn
	g.mu.Unlock()

	if fn == nil {
		return domain.ExecutionResult{TransactionID: "1", Reference: req.Reference}, nil
	}
	return fn(ctx, req)
}

func (g *gatewayStub) ListByAccount(context.Context, string) ([]domain.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.history, g.historyErr
}

func (g *gatewayStub) RequestReversal(_ context.Context, req domain.ReversalRequest) (domain.ReversalAck, error) {
	g.mu.Lock()
	g.reversals = append(g.reversals, req)
	fn := g.reversalFn
	g.mu.Unlock()

	if fn == nil {
		return domain.ReversalAck{Message: "ok"}, nil
	}
	return fn(req)
}

func (g *gatewayStub) ReversalReasons(context.Context) ([]domain.ReasonCode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reasonsCalls++
	return g.reasons, g.reasonsErr
}

func (g *gatewayStub) executedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.executed)
}

func (g *gatewayStub) listCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listCalls
}

var (
	savings = domain.Account{
		ID:            "10",
		ClientID:      "7",
		DisplayNumber: "2200000010",
		OwnerName:     "Ana Torres",
		Type:          domain.AccountTypeSavings,
		Balance:       decimal.RequireFromString("50.00"),
	}
	checking = domain.Account{
		ID:            "11",
		ClientID:      "7",
		DisplayNumber: "2200000011",
		OwnerName:     "Ana Torres",
		Type:          domain.AccountTypeChecking,
		Balance:       decimal.RequireFromString("1000.00"),
	}
	payee = domain.Account{
		ID:            "20",
		ClientID:      "8",
		DisplayNumber: "2200000020",
		OwnerName:     "Luis Vera",
		Type:          domain.AccountTypeSavings,
		Balance:       decimal.RequireFromString("5.00"),
	}
	session = domain.SessionContext{PrincipalClientID: "7", CashierID: "cashier-1", BranchID: "3", Channel: "CAJERO"}
)

func newGatewayStub() *gatewayStub {
	return &gatewayStub{
		accountsByNumber: map[string]domain.Account{
			savings.DisplayNumber:  savings,
			checking.DisplayNumber: checking,
			payee.DisplayNumber:    payee,
		},
		clientsByID: map[string]domain.Client{
			"0912345678": {ID: "8", Identification: "0912345678", FullName: "Luis Vera"},
		},
		accountsByClient: map[string][]domain.Account{
			"7": {savings, checking},
			"8": {payee},
		},
	}
}

type engine struct {
	gateway    *gatewayStub
	book       *memory.AccountBook
	catalog    *services.ReasonCatalog
	reconciler *services.BalanceReconciler
	transfers  *services.TransferService
}

func newEngine(gateway *gatewayStub) engine {
	book := memory.NewAccountBook([]domain.Account{savings, checking})
	reconciler := services.NewBalanceReconciler(gateway, book)
	return engine{
		gateway:    gateway,
		book:       book,
		catalog:    services.NewReasonCatalog(gateway),
		reconciler: reconciler,
		transfers: services.NewTransferService(
			services.NewAccountResolver(gateway),
			services.NewParticipantBankService(testBanks, "ARCBANK"),
			gateway,
			reconciler,
			book,
			8,
			"WEB",
			"1",
		),
	}
}
