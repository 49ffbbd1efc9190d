package gateway

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/arcbank/funds-engine/src/internal/domain"
)

func TestWireIDMarshal(t *testing.T) {
	cases := map[string]string{
		"10":     `10`,
		"0":      `0`,
		"01":     `"01"`,
		"001":    `"001"`,
		"ACC-10": `"ACC-10"`,
		"":       `""`,
	}
	for in, want := range cases {
		raw, err := json.Marshal(wireID(in))
		require.NoError(t, err, in)
		require.JSONEq(t, want, string(raw), in)
	}
}

func TestExecuteRequestKeepsZeroPaddedBranch(t *testing.T) {
	req, err := toExecuteRequest(domain.ExecutionRequest{
		Type:            domain.ExecutionInternalTransfer,
		SourceAccountID: "10",
		Destination:     domain.Destination{Internal: &domain.AccountRef{AccountID: "20"}},
		Amount:          decimal.RequireFromString("5"),
		BranchID:        "01",
	})
	require.NoError(t, err)

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "01", body["idSucursal"])
	require.Equal(t, float64(10), body["idCuentaOrigen"])
	require.Equal(t, float64(20), body["idCuentaDestino"])
}
