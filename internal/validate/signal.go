package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/merchant-ops/internal/model"
)

// numberPattern tolerates an optional leading "$" and whitespace.
var numberPattern = regexp.MustCompile(`\$?\s*(-?\d+(?:\.\d+)?)`)

// ErrMalformedSignal is returned when a provenance string has no
// "<key>: <value>" shape or no numeric payload.
var ErrMalformedSignal = eris.New("validate: malformed signal")

// ParseSignal reads a rendered provenance string back into its typed form.
func ParseSignal(raw string) (model.Signal, error) {
	key, rest, found := strings.Cut(raw, ":")
	if !found {
		return model.Signal{}, eris.Wrapf(ErrMalformedSignal, "missing separator in %q", raw)
	}
	m := numberPattern.FindStringSubmatch(strings.ReplaceAll(rest, ",", ""))
	if m == nil {
		return model.Signal{}, eris.Wrapf(ErrMalformedSignal, "no numeric value in %q", raw)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return model.Signal{}, eris.Wrapf(ErrMalformedSignal, "parse %q", m[1])
	}
	return model.Signal{Kind: model.SignalKind(strings.TrimSpace(key)), Value: v}, nil
}

// competitorClaims extracts every competitor price a proposal cites.
// Entries that mention a competitor price without a readable number carry no
// checkable claim and are skipped.
func competitorClaims(signals []string) []float64 {
	var claims []float64
	for _, raw := range signals {
		if !strings.Contains(raw, string(model.SignalCompetitorPrice)) {
			continue
		}
		sig, err := ParseSignal(raw)
		if err != nil {
			continue
		}
		claims = append(claims, sig.Value)
	}
	return claims
}
