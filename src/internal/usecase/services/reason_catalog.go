package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
)

var builtinReasonCodes = []domain.ReasonCode{
	{Code: "AM04", Description: "Insufficient funds in the account"},
	{Code: "AC01", Description: "Destination account number does not exist"},
	{Code: "AC03", Description: "Currency not allowed, only US dollars are accepted"},
	{Code: "AC04", Description: "Destination account is closed"},
	{Code: "AG01", Description: "Operation restricted by the institution"},
	{Code: "CH03", Description: "Amount exceeds the allowed limit"},
	{Code: "DUPL", Description: "Transfer was already processed (duplicate)"},
	{Code: "MD01", Description: "Duplicate operation, already processed"},
	{Code: "MS03", Description: "Technical error at the counterparty"},
	{Code: "RC01", Description: "Invalid message format"},
	{Code: "BE01", Description: "Inconsistent data, rejected for security"},
}

// ReasonCatalog holds the standardized reason codes offered for reversals and
// used to translate gateway rejections. A successful remote load is cached;
// failures fall back to the built-in list and are retried on the next Load.
type ReasonCatalog struct {
	gateway domain.TransactionGateway
	group   singleflight.Group

	mu           sync.RWMutex
	loaded       []domain.ReasonCode
	descriptions map[string]string
}

func NewReasonCatalog(gateway domain.TransactionGateway) *ReasonCatalog {
	descriptions := make(map[string]string, len(builtinReasonCodes))
	for _, reason := range builtinReasonCodes {
		descriptions[reason.Code] = reason.Description
	}
	return &ReasonCatalog{gateway: gateway, descriptions: descriptions}
}

// Load never fails: an unreachable or empty remote catalog yields the
// built-in list.
func (c *ReasonCatalog) Load(ctx context.Context) []domain.ReasonCode {
	c.mu.RLock()
	cached := c.loaded
	c.mu.RUnlock()
	if cached != nil {
		return cloneReasons(cached)
	}

	result, _, _ := c.group.Do("reversal-reasons", func() (any, error) {
		return c.fetch(ctx), nil
	})
	return cloneReasons(result.([]domain.ReasonCode))
}

func (c *ReasonCatalog) fetch(ctx context.Context) []domain.ReasonCode {
	if c.gateway == nil {
		return builtinReasonCodes
	}

	fetched, err := c.gateway.ReversalReasons(ctx)
	if err != nil {
		logger.Error("reason catalog remote load failed, using built-in list", err, nil)
		return builtinReasonCodes
	}
	if len(fetched) == 0 {
		logger.Warn("reason catalog remote list empty, using built-in list", nil)
		return builtinReasonCodes
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.ReasonCode, 0, len(fetched))
	for _, reason := range fetched {
		if reason.Description == "" {
			reason.Description = c.descriptions[reason.Code]
		}
		c.descriptions[reason.Code] = reason.Description
		out = append(out, reason)
	}
	c.loaded = out

	logger.Info("reason catalog loaded", logger.Fields{"count": len(out)})
	return out
}

// Describe returns the description for code, or code itself when unknown.
func (c *ReasonCatalog) Describe(code string) string {
	normalized, _ := domain.NormalizeReasonCode(code)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if description, ok := c.descriptions[normalized]; ok && description != "" {
		return description
	}
	return code
}

// Translate rewrites a gateway message that embeds a known reason code as
// "<description> (<CODE>)". Anything else is returned unchanged.
func (c *ReasonCatalog) Translate(message string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, code := range domain.ReasonCodeCandidates(message) {
		if description := c.descriptions[code]; description != "" {
			return fmt.Sprintf("%s (%s)", description, code)
		}
	}
	return message
}

// Known reports whether code is in the catalog. Submission does not require
// it; the gateway has the final word.
func (c *ReasonCatalog) Known(code string) bool {
	normalized, _ := domain.NormalizeReasonCode(code)

	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.descriptions[normalized]
	return ok
}

func cloneReasons(in []domain.ReasonCode) []domain.ReasonCode {
	out := make([]domain.ReasonCode, len(in))
	copy(out, in)
	return out
}
