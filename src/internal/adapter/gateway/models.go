package gateway

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// wireID accepts ids sent either as JSON numbers or strings. Canonical
// numeric ids go back as numbers, which is what the transaction service
// expects; zero-padded ones ("01") stay quoted so the padding survives.
type wireID string

func (id wireID) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(id))
	if s != "" && digitsOnly(s) && (s == "0" || s[0] != '0') {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

func (id *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

func wireIDPtr(id string) *wireID {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	w := wireID(id)
	return &w
}

type executeRequest struct {
	TipoOperacion      string      `json:"tipoOperacion"`
	IDCuentaOrigen     wireID      `json:"idCuentaOrigen"`
	IDCuentaDestino    *wireID     `json:"idCuentaDestino,omitempty"`
	CuentaExterna      string      `json:"cuentaExterna,omitempty"`
	IDBancoExterno     string      `json:"idBancoExterno,omitempty"`
	NombreDestinatario string      `json:"nombreDestinatario,omitempty"`
	Monto              json.Number `json:"monto"`
	Canal              string      `json:"canal"`
	Descripcion        string      `json:"descripcion"`
	IDSucursal         *wireID     `json:"idSucursal,omitempty"`
	Referencia         string      `json:"referencia,omitempty"`
}

type reversalRequest struct {
	Motivo string `json:"motivo"`
}

// transactionRecord is the transaction service's response DTO. Several
// fields have been renamed across service versions; both spellings are read.
type transactionRecord struct {
	IDTransaccion   wireID              `json:"idTransaccion"`
	ID              wireID              `json:"id"`
	Referencia      string              `json:"referencia"`
	TipoOperacion   string              `json:"tipoOperacion"`
	OperationType   string              `json:"operationType"`
	IDCuentaOrigen  wireID              `json:"idCuentaOrigen"`
	IDCuentaDestino wireID              `json:"idCuentaDestino"`
	CuentaExterna   string              `json:"cuentaExterna"`
	IDBancoExterno  string              `json:"idBancoExterno"`
	Monto           decimal.NullDecimal `json:"monto"`
	SaldoResultante decimal.NullDecimal `json:"saldoResultante"`
	NuevoSaldo      decimal.NullDecimal `json:"nuevoSaldo"`
	FechaCreacion   json.RawMessage     `json:"fechaCreacion"`
	Fecha           json.RawMessage     `json:"fecha"`
	Descripcion     string              `json:"descripcion"`
	Canal           string              `json:"canal"`
	Estado          string              `json:"estado"`
	Status          string              `json:"status"`
	Mensaje         string              `json:"mensaje"`
}

type accountRecord struct {
	IDCuenta        wireID              `json:"idCuenta"`
	ID              wireID              `json:"id"`
	IDCliente       wireID              `json:"idCliente"`
	NumeroCuenta    string              `json:"numeroCuenta"`
	NombreTitular   string              `json:"nombreTitular"`
	TipoCuenta      string              `json:"tipoCuenta"`
	Saldo           decimal.NullDecimal `json:"saldo"`
	SaldoDisponible decimal.NullDecimal `json:"saldoDisponible"`
}

type clientRecord struct {
	IDCliente      wireID `json:"idCliente"`
	Identificacion string `json:"identificacion"`
	NombreCompleto string `json:"nombreCompleto"`
}

type reasonRecord struct {
	Code        string `json:"code"`
	Codigo      string `json:"codigo"`
	Description string `json:"description"`
	Descripcion string `json:"descripcion"`
}

type errorBody struct {
	Mensaje string `json:"mensaje"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	for _, candidate := range []string{b.Mensaje, b.Error, b.Message} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

func digitsOnly(value string) bool {
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
