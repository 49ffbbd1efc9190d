package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReasonCodeCandidatesInOrder(t *testing.T) {
	message := "HTTP 422 during [POST] to [switch]: AM04 - Fondos insuficientes (AM04, ref MS03)"

	require.Equal(t, []string{"HTTP", "POST", "AM04", "MS03"}, ReasonCodeCandidates(message))
	require.Nil(t, ReasonCodeCandidates("timeout"))
}

func TestExtractReasonCodeSkipsProtocolWords(t *testing.T) {
	code, ok := ExtractReasonCode("during [POST] to [switch]: AM04 - Fondos insuficientes")
	require.True(t, ok)
	require.Equal(t, "AM04", code)

	_, ok = ExtractReasonCode("HTTP POST failed")
	require.False(t, ok)
}
