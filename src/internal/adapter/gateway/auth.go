package gateway

import (
	"errors"
	"net/http"

	"github.com/arcbank/funds-engine/src/internal/logger"
)

var errMissingChannelCredentials = errors.New("channel credentials are not configured")

// channelAuth signs every outgoing request with the channel's basic-auth
// credentials. An empty channel id leaves requests unsigned; a channel id
// without a key is a configuration error and no request is sent.
type channelAuth struct {
	channelID  string
	channelKey string
	base       http.RoundTripper
}

func newChannelAuth(channelID, channelKey string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &channelAuth{channelID: channelID, channelKey: channelKey, base: base}
}

func (t *channelAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.channelID == "" {
		return t.base.RoundTrip(req)
	}
	if t.channelKey == "" {
		logger.Error("gateway channel auth missing configuration", errMissingChannelCredentials, logger.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
		})
		return nil, errMissingChannelCredentials
	}

	signed := req.Clone(req.Context())
	signed.SetBasicAuth(t.channelID, t.channelKey)
	return t.base.RoundTrip(signed)
}
