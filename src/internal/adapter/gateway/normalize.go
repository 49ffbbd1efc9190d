package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
)

var executionTypeWire = map[domain.ExecutionType]string{
	domain.ExecutionInternalTransfer:  "TRANSFERENCIA_INTERNA",
	domain.ExecutionInterbankTransfer: "TRANSFERENCIA_INTERBANCARIA",
}

var statusFromWire = map[string]domain.TransactionStatus{
	"COMPLETADA": domain.TransactionStatusCompleted,
	"COMPLETED":  domain.TransactionStatusCompleted,
	"REVERSADA":  domain.TransactionStatusReversed,
	"REVERSED":   domain.TransactionStatusReversed,
	"DEVUELTA":   domain.TransactionStatusRefunded,
	"REFUNDED":   domain.TransactionStatusRefunded,
	"FALLIDA":    domain.TransactionStatusFailed,
	"FAILED":     domain.TransactionStatusFailed,
	"PENDIENTE":  domain.TransactionStatusPending,
	"PENDING":    domain.TransactionStatusPending,
}

var localTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func toExecuteRequest(req domain.ExecutionRequest) (executeRequest, error) {
	wireType, ok := executionTypeWire[req.Type]
	if !ok {
		return executeRequest{}, fmt.Errorf("unsupported execution type %q", req.Type)
	}

	out := executeRequest{
		TipoOperacion:  wireType,
		IDCuentaOrigen: wireID(req.SourceAccountID),
		Monto:          json.Number(req.Amount.StringFixed(2)),
		Canal:          req.Channel,
		Descripcion:    req.Description,
		IDSucursal:     wireIDPtr(req.BranchID),
		Referencia:     req.Reference,
	}

	switch {
	case req.Destination.Internal != nil:
		out.IDCuentaDestino = wireIDPtr(req.Destination.Internal.AccountID)
	case req.Destination.External != nil:
		out.CuentaExterna = req.Destination.External.ExternalAccountNumber
		out.IDBancoExterno = req.Destination.External.BankCode
		out.NombreDestinatario = req.Destination.External.BeneficiaryName
	default:
		return executeRequest{}, fmt.Errorf("execution request has no destination")
	}

	return out, nil
}

func toExecutionResult(rec transactionRecord) domain.ExecutionResult {
	return domain.ExecutionResult{
		TransactionID:    firstID(rec.IDTransaccion, rec.ID),
		Reference:        strings.TrimSpace(rec.Referencia),
		ResultingBalance: resultingBalance(rec),
		Message:          strings.TrimSpace(rec.Mensaje),
	}
}

// toTransaction orients rec to the account the history was fetched for, so an
// internal transfer reads as OUT for the payer and IN for the payee.
func toTransaction(rec transactionRecord, viewerAccountID string, loc *time.Location) domain.Transaction {
	source := string(rec.IDCuentaOrigen)
	rawType := strings.ToUpper(strings.TrimSpace(firstNonEmpty(rec.TipoOperacion, rec.OperationType)))

	tx := domain.Transaction{
		ID:                   firstID(rec.IDTransaccion, rec.ID),
		Reference:            strings.TrimSpace(rec.Referencia),
		SourceAccountID:      source,
		DestinationAccountID: string(rec.IDCuentaDestino),
		ExternalAccount:      strings.TrimSpace(rec.CuentaExterna),
		ExternalBankCode:     strings.TrimSpace(rec.IDBancoExterno),
		OperationType:        operationFromWire(rawType, source, viewerAccountID),
		Amount:               rec.Monto.Decimal,
		ResultingBalance:     resultingBalance(rec).Decimal,
		CreatedAt:            parseTimestamp(firstRaw(rec.FechaCreacion, rec.Fecha), loc),
		Status:               statusFrom(firstNonEmpty(rec.Estado, rec.Status)),
		Channel:              strings.TrimSpace(rec.Canal),
		Description:          strings.TrimSpace(rec.Descripcion),
	}

	return tx
}

func operationFromWire(rawType string, sourceAccountID string, viewerAccountID string) domain.OperationType {
	switch rawType {
	case "DEPOSITO", "DEPOSIT":
		return domain.OperationDeposit
	case "RETIRO", "WITHDRAWAL":
		return domain.OperationWithdrawal
	case "TRANSFERENCIA_INTERNA", "INTERNAL_TRANSFER":
		if viewerAccountID != "" && sourceAccountID != "" && sourceAccountID != viewerAccountID {
			return domain.OperationInternalTransferIn
		}
		return domain.OperationInternalTransferOut
	case "INTERNAL_TRANSFER_OUT":
		return domain.OperationInternalTransferOut
	case "INTERNAL_TRANSFER_IN":
		return domain.OperationInternalTransferIn
	case "TRANSFERENCIA_SALIDA", "TRANSFERENCIA_INTERBANCARIA", "INTERBANK_TRANSFER", "INTERBANK_TRANSFER_OUT":
		return domain.OperationInterbankTransferOut
	case "TRANSFERENCIA_ENTRADA", "INTERBANK_TRANSFER_IN":
		return domain.OperationInterbankTransferIn
	case "REVERSO", "REVERSAL":
		return domain.OperationReversal
	default:
		logger.Warn("gateway unknown operation type", logger.Fields{"operationType": rawType})
		return domain.OperationType(rawType)
	}
}

// statusFrom maps anything unrecognized to PENDING so it can never be taken
// for a completed, reversible record.
func statusFrom(raw string) domain.TransactionStatus {
	status, ok := statusFromWire[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return domain.TransactionStatusPending
	}
	return status
}

func toAccount(rec accountRecord) domain.Account {
	balance := rec.Saldo
	if !balance.Valid {
		balance = rec.SaldoDisponible
	}

	return domain.Account{
		ID:            firstID(rec.IDCuenta, rec.ID),
		ClientID:      string(rec.IDCliente),
		DisplayNumber: strings.TrimSpace(rec.NumeroCuenta),
		OwnerName:     strings.TrimSpace(rec.NombreTitular),
		Type:          domain.ParseAccountType(rec.TipoCuenta),
		Balance:       balance.Decimal,
	}
}

func toReasonCode(rec reasonRecord) (domain.ReasonCode, bool) {
	code, ok := domain.NormalizeReasonCode(firstNonEmpty(rec.Code, rec.Codigo))
	if !ok {
		return domain.ReasonCode{}, false
	}
	return domain.ReasonCode{
		Code:        code,
		Description: strings.TrimSpace(firstNonEmpty(rec.Description, rec.Descripcion)),
	}, true
}

func resultingBalance(rec transactionRecord) decimal.NullDecimal {
	if rec.SaldoResultante.Valid {
		return rec.SaldoResultante
	}
	return rec.NuevoSaldo
}

// parseTimestamp accepts RFC 3339, zone-less local timestamps (read in loc)
// and the [y,m,d,h,min,s,nanos] arrays some serializers emit.
func parseTimestamp(raw json.RawMessage, loc *time.Location) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}

	if raw[0] == '[' {
		var parts []int
		if err := json.Unmarshal(raw, &parts); err != nil || len(parts) < 3 {
			return time.Time{}
		}
		for len(parts) < 7 {
			parts = append(parts, 0)
		}
		return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], parts[6], loc)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstID(ids ...wireID) string {
	for _, id := range ids {
		if s := strings.TrimSpace(string(id)); s != "" {
			return s
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstRaw(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(bytes.TrimSpace(v)) > 0 {
			return v
		}
	}
	return nil
}
