package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
)

const maxResponseBytes = 1 << 20

const (
	opExecute            = "execute_transaction"
	opListTransactions   = "list_transactions"
	opRequestReversal    = "request_reversal"
	opReversalReasons    = "reversal_reasons"
	opAccountByNumber    = "account_by_number"
	opClientByIdentifier = "client_by_identification"
	opAccountsByClient   = "accounts_by_client"
)

type Options struct {
	BaseURL            string
	ChannelID          string
	ChannelKey         string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	// Location is used for timestamps the gateway sends without a zone.
	Location   *time.Location
	Registerer prometheus.Registerer
	HTTPClient *http.Client
	// KnownReasonCode picks the reason code out of rejection messages that
	// carry several code-shaped tokens. Optional.
	KnownReasonCode func(code string) bool
}

// Client talks to the transaction gateway. It implements
// domain.TransactionGateway and domain.AccountDirectory.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics
	location   *time.Location
	knownCode  func(code string) bool
}

var _ domain.TransactionGateway = (*Client)(nil)
var _ domain.AccountDirectory = (*Client)(nil)

func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if parsed, err := url.Parse(baseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("gateway base url %q is not absolute", opts.BaseURL)
	}
	if strings.TrimSpace(opts.ChannelID) != "" && strings.TrimSpace(opts.ChannelKey) == "" {
		return nil, fmt.Errorf("gateway channel %q: %w", opts.ChannelID, errMissingChannelCredentials)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	authed := *httpClient
	authed.Transport = newChannelAuth(opts.ChannelID, opts.ChannelKey, httpClient.Transport)

	location := opts.Location
	if location == nil {
		location = time.UTC
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &authed,
		breaker:    newBreaker(opts.BreakerMaxFailures, opts.BreakerOpenTimeout),
		metrics:    newMetrics(opts.Registerer),
		location:   location,
		knownCode:  opts.KnownReasonCode,
	}, nil
}

// newBreaker trips on consecutive transport faults only. Rejections and
// not-found answers prove the gateway is healthy and count as successes.
func newBreaker(maxFailures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "transaction-gateway",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("gateway circuit breaker state changed", logger.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
		IsSuccessful: func(err error) bool {
			var transportErr *domain.TransportError
			return err == nil || !errors.As(err, &transportErr)
		},
	})
}

func (c *Client) Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
	body, err := toExecuteRequest(req)
	if err != nil {
		return domain.ExecutionResult{}, err
	}

	var rec transactionRecord
	if err := c.do(ctx, call{operation: opExecute, method: http.MethodPost, path: "/transactions", body: body, out: &rec}); err != nil {
		return domain.ExecutionResult{}, err
	}

	result := toExecutionResult(rec)
	if result.Reference == "" {
		result.Reference = req.Reference
	}
	return result, nil
}

func (c *Client) ListByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, domain.NewValidationError("account id is required")
	}

	var recs []transactionRecord
	path := "/transactions/account/" + url.PathEscape(accountID)
	if err := c.do(ctx, call{operation: opListTransactions, method: http.MethodGet, path: path, out: &recs}); err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toTransaction(rec, accountID, c.location))
	}
	return out, nil
}

// RequestReversal never retries; a lost answer leaves the outcome to the next
// history refresh.
func (c *Client) RequestReversal(ctx context.Context, req domain.ReversalRequest) (domain.ReversalAck, error) {
	var rec transactionRecord
	path := "/transactions/" + url.PathEscape(req.TransactionID) + "/reversal"
	err := c.do(ctx, call{
		operation: opRequestReversal,
		method:    http.MethodPost,
		path:      path,
		body:      reversalRequest{Motivo: req.ReasonCode},
		out:       &rec,
	})
	if err != nil {
		return domain.ReversalAck{}, err
	}

	return domain.ReversalAck{
		Request:          req,
		Message:          strings.TrimSpace(rec.Mensaje),
		ResultingBalance: resultingBalance(rec),
		RefreshRequired:  true,
	}, nil
}

func (c *Client) ReversalReasons(ctx context.Context) ([]domain.ReasonCode, error) {
	var recs []reasonRecord
	if err := c.do(ctx, call{operation: opReversalReasons, method: http.MethodGet, path: "/transactions/reversal-reasons", out: &recs}); err != nil {
		return nil, err
	}

	out := make([]domain.ReasonCode, 0, len(recs))
	for _, rec := range recs {
		if reason, ok := toReasonCode(rec); ok {
			out = append(out, reason)
		}
	}
	return out, nil
}

func (c *Client) GetByAccountNumber(ctx context.Context, accountNumber string) (domain.Account, error) {
	var rec accountRecord
	path := "/accounts/by-number/" + url.PathEscape(accountNumber)
	if err := c.do(ctx, call{operation: opAccountByNumber, method: http.MethodGet, path: path, out: &rec, lookup: true}); err != nil {
		return domain.Account{}, err
	}

	account := toAccount(rec)
	if account.ID == "" {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (c *Client) GetClientByIdentification(ctx context.Context, identification string) (domain.Client, error) {
	var rec clientRecord
	path := "/clients/identification/" + url.PathEscape(identification)
	if err := c.do(ctx, call{operation: opClientByIdentifier, method: http.MethodGet, path: path, out: &rec, lookup: true}); err != nil {
		return domain.Client{}, err
	}

	client := domain.Client{
		ID:             string(rec.IDCliente),
		Identification: strings.TrimSpace(rec.Identificacion),
		FullName:       strings.TrimSpace(rec.NombreCompleto),
	}
	if client.ID == "" {
		return domain.Client{}, domain.ErrAccountNotFound
	}
	return client, nil
}

// ListAccountsByClient drops records that belong to another client; some
// gateway versions ignore the clientId filter.
func (c *Client) ListAccountsByClient(ctx context.Context, clientID string) ([]domain.Account, error) {
	var recs []accountRecord
	path := "/accounts?clientId=" + url.QueryEscape(clientID)
	if err := c.do(ctx, call{operation: opAccountsByClient, method: http.MethodGet, path: path, out: &recs}); err != nil {
		return nil, err
	}

	out := make([]domain.Account, 0, len(recs))
	for _, rec := range recs {
		account := toAccount(rec)
		if account.ID == "" {
			continue
		}
		if account.ClientID != "" && account.ClientID != clientID {
			continue
		}
		out = append(out, account)
	}
	return out, nil
}

type call struct {
	operation string
	method    string
	path      string
	body      any
	out       any
	// lookup maps a 404 to domain.ErrAccountNotFound.
	lookup bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	timer := c.metrics.timer(cl.operation)
	defer timer.ObserveDuration()

	logger.Info("gateway request", logger.Fields{
		"operation": cl.operation,
		"method":    cl.method,
		"path":      cl.path,
		"payload":   logger.SanitizePayload(cl.body),
	})

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.send(ctx, cl)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &domain.TransportError{Operation: cl.operation, Err: err}
	}

	c.metrics.observe(cl.operation, outcome(err))
	if err != nil {
		logger.Error("gateway request failed", err, logger.Fields{
			"operation": cl.operation,
			"kind":      domain.KindOf(err).String(),
		})
		return err
	}

	logger.Info("gateway request success", logger.Fields{"operation": cl.operation})
	return nil
}

func (c *Client) send(ctx context.Context, cl call) error {
	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", cl.operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", cl.operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Operation: cl.operation, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &domain.TransportError{Operation: cl.operation, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if cl.out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, cl.out); err != nil {
			return &domain.TransportError{
				Operation:  cl.operation,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("decode response: %w", err),
			}
		}
		return nil
	case resp.StatusCode == http.StatusNotFound && cl.lookup:
		return domain.ErrAccountNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		message := errorMessage(raw, resp.StatusCode)
		code := c.reasonCode(message)
		return &domain.RemoteRejectionError{
			Operation:  cl.operation,
			StatusCode: resp.StatusCode,
			Code:       code,
			Message:    message,
		}
	default:
		return &domain.TransportError{
			Operation:  cl.operation,
			StatusCode: resp.StatusCode,
			Err:        errors.New(errorMessage(raw, resp.StatusCode)),
		}
	}
}

// reasonCode prefers the first candidate the catalog knows and otherwise
// falls back to the first non-protocol token.
func (c *Client) reasonCode(message string) string {
	if c.knownCode != nil {
		for _, candidate := range domain.ReasonCodeCandidates(message) {
			if c.knownCode(candidate) {
				return candidate
			}
		}
	}
	code, _ := domain.ExtractReasonCode(message)
	return code
}

func errorMessage(raw []byte, status int) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if text := body.text(); text != "" {
			return text
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "{") && len(text) < 512 {
		return text
	}
	return http.StatusText(status)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.KindOf(err).String()
}
