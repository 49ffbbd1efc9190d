package memory

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/arcbank/funds-engine/src/internal/domain"
)

// AccountBook is the process-wide account collection. Entries are only ever
// replaced whole; the latest write wins.
type AccountBook struct {
	mu       sync.RWMutex
	order    []string
	accounts map[string]domain.Account
}

func NewAccountBook(accounts []domain.Account) *AccountBook {
	b := &AccountBook{}
	b.ReplaceAll(accounts)
	return b
}

func (b *AccountBook) Get(accountID string) (domain.Account, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	account, ok := b.accounts[accountID]
	return account, ok
}

func (b *AccountBook) List() []domain.Account {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.Account, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.accounts[id])
	}
	return out
}

// SetBalance reports false when the account is not part of the book.
func (b *AccountBook) SetBalance(accountID string, balance decimal.Decimal) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, ok := b.accounts[accountID]
	if !ok {
		return false
	}
	account.Balance = balance
	b.accounts[accountID] = account
	return true
}

func (b *AccountBook) ReplaceAll(accounts []domain.Account) {
	order := make([]string, 0, len(accounts))
	byID := make(map[string]domain.Account, len(accounts))
	for _, account := range accounts {
		if _, dup := byID[account.ID]; !dup {
			order = append(order, account.ID)
		}
		byID[account.ID] = account
	}

	b.mu.Lock()
	b.order = order
	b.accounts = byID
	b.mu.Unlock()
}
