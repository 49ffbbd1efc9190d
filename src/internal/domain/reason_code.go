package domain

import (
	"regexp"
	"strings"
)

var reasonCodeToken = regexp.MustCompile(`\b([A-Z]{2}[A-Z0-9]{2})\b`)
var reasonCodeShape = regexp.MustCompile(`^[A-Z0-9]{4}$`)

// Upper-case words that show up in forwarded HTTP client errors
// ("[POST] to [switch]") and are never reason codes.
var protocolTokens = map[string]struct{}{
	"POST": {},
	"HEAD": {},
	"HTTP": {},
	"JSON": {},
	"NULL": {},
}

// ReasonCodeCandidates returns every distinct token in message shaped like a
// standardized four-character reason code, in order of appearance.
func ReasonCodeCandidates(message string) []string {
	matches := reasonCodeToken.FindAllStringSubmatch(message, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		if _, ok := seen[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
		out = append(out, match[1])
	}
	return out
}

// ExtractReasonCode returns the first candidate in message that is not a
// protocol word ("AM04 - Fondos insuficientes" gives AM04).
func ExtractReasonCode(message string) (string, bool) {
	for _, candidate := range ReasonCodeCandidates(message) {
		if _, ok := protocolTokens[candidate]; ok {
			continue
		}
		return candidate, true
	}
	return "", false
}

// NormalizeReasonCode upper-cases code and reports whether it has the
// structural shape of a reason code. The catalog itself is advisory.
func NormalizeReasonCode(code string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	return normalized, reasonCodeShape.MatchString(normalized)
}
