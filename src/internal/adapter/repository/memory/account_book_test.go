package memory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/arcbank/funds-engine/src/internal/domain"
)

func TestAccountBookSetBalance(t *testing.T) {
	book := NewAccountBook([]domain.Account{
		{ID: "1", DisplayNumber: "1000000001", Balance: decimal.RequireFromString("10.00")},
	})

	require.True(t, book.SetBalance("1", decimal.RequireFromString("875.50")))
	require.False(t, book.SetBalance("missing", decimal.NewFromInt(1)))

	account, ok := book.Get("1")
	require.True(t, ok)
	require.True(t, account.Balance.Equal(decimal.RequireFromString("875.50")))
}

func TestAccountBookReplaceAllKeepsOrder(t *testing.T) {
	book := NewAccountBook(nil)
	book.ReplaceAll([]domain.Account{{ID: "b"}, {ID: "a"}, {ID: "b", OwnerName: "later"}})

	list := book.List()
	require.Len(t, list, 2)
	require.Equal(t, "b", list[0].ID)
	require.Equal(t, "later", list[0].OwnerName)
	require.Equal(t, "a", list[1].ID)
}
