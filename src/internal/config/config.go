package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

const envPrefix = "FUNDS"

const defaultGatewayURL = "http://localhost:8080/api"
const defaultChannel = "WEB"
const defaultBranchID = "1"
const defaultOwnBankCode = "ARCBANK"
const defaultTimezone = "America/Guayaquil"

const (
	ReversalPolicyOutbound = "outbound"
	ReversalPolicyInbound  = "inbound"
)

type Config struct {
	GatewayURL               string
	ChannelID                string
	ChannelKey               string
	Channel                  string
	CashierID                string
	BranchID                 string
	OwnBankCode              string
	HTTPTimeout              time.Duration
	BreakerMaxFailures       uint32
	BreakerOpenTimeout       time.Duration
	ExternalAccountMinLength int
	ReversalPolicy           string
	ReversalWindow           time.Duration
	BankRegistryFile         string
	Location                 *time.Location
	LogLevel                 string
	LogFormat                string
	// MetricsAddr serves Prometheus metrics when set, e.g. ":9108".
	MetricsAddr string
}

// Load reads FUNDS_* environment variables on top of the defaults below.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("gateway_url", defaultGatewayURL)
	v.SetDefault("channel_id", "")
	v.SetDefault("channel_key", "")
	v.SetDefault("channel", defaultChannel)
	v.SetDefault("branch_id", defaultBranchID)
	v.SetDefault("cashier_id", "")
	v.SetDefault("own_bank_code", defaultOwnBankCode)
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("breaker_max_failures", 5)
	v.SetDefault("breaker_open_timeout", 30*time.Second)
	v.SetDefault("external_account_min_length", 8)
	v.SetDefault("reversal_policy", ReversalPolicyOutbound)
	v.SetDefault("reversal_window", 24*time.Hour)
	v.SetDefault("bank_registry_file", "")
	v.SetDefault("timezone", defaultTimezone)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("metrics_addr", "")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	var errs []string

	gatewayURL := strings.TrimRight(strings.TrimSpace(v.GetString("gateway_url")), "/")
	if parsed, err := url.Parse(gatewayURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, "gateway_url must be an absolute URL")
	}

	// An empty channel id sends unsigned requests.
	channelID := strings.TrimSpace(v.GetString("channel_id"))
	channelKey := strings.TrimSpace(v.GetString("channel_key"))
	if channelID != "" && channelKey == "" {
		errs = append(errs, "channel_key is required when channel_id is set")
	}

	policy := strings.ToLower(strings.TrimSpace(v.GetString("reversal_policy")))
	if policy != ReversalPolicyOutbound && policy != ReversalPolicyInbound {
		errs = append(errs, "reversal_policy must be one of outbound, inbound")
	}

	minLength := v.GetInt("external_account_min_length")
	if minLength <= 0 {
		errs = append(errs, "external_account_min_length must be greater than zero")
	}

	window := v.GetDuration("reversal_window")
	if window <= 0 {
		errs = append(errs, "reversal_window must be greater than zero")
	}

	location, err := time.LoadLocation(strings.TrimSpace(v.GetString("timezone")))
	if err != nil {
		errs = append(errs, "timezone is not a valid IANA zone")
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return Config{
		GatewayURL:               gatewayURL,
		ChannelID:                channelID,
		ChannelKey:               channelKey,
		Channel:                  strings.ToUpper(strings.TrimSpace(v.GetString("channel"))),
		CashierID:                strings.TrimSpace(v.GetString("cashier_id")),
		BranchID:                 strings.TrimSpace(v.GetString("branch_id")),
		OwnBankCode:              strings.ToUpper(strings.TrimSpace(v.GetString("own_bank_code"))),
		HTTPTimeout:              v.GetDuration("http_timeout"),
		BreakerMaxFailures:       v.GetUint32("breaker_max_failures"),
		BreakerOpenTimeout:       v.GetDuration("breaker_open_timeout"),
		ExternalAccountMinLength: minLength,
		ReversalPolicy:           policy,
		ReversalWindow:           window,
		BankRegistryFile:         strings.TrimSpace(v.GetString("bank_registry_file")),
		Location:                 location,
		LogLevel:                 strings.TrimSpace(v.GetString("log_level")),
		LogFormat:                strings.TrimSpace(v.GetString("log_format")),
		MetricsAddr:              strings.TrimSpace(v.GetString("metrics_addr")),
	}, nil
}
