package payload

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"signal-relay/internal/model"
)

// Summarize extracts the signal kind, symbol and price from an alert payload.
// Anything missing or unparseable is left zero; non-object payloads yield an
// empty Signal.
func Summarize(p model.Payload) model.Signal {
	obj, ok := p.(map[string]any)
	if !ok {
		return model.Signal{}
	}

	var s model.Signal
	if v, ok := obj["signal"].(string); ok {
		s.Kind = strings.ToUpper(strings.TrimSpace(v))
	}
	for _, key := range []string{"symbol", "ticker"} {
		if v, ok := obj[key].(string); ok && v != "" {
			s.Symbol = strings.TrimSpace(v)
			break
		}
	}
	if price, ok := parsePrice(obj["price"]); ok {
		s.Price = price
	}
	return s
}

// parsePrice accepts JSON numbers and numeric strings. Alert templates in
// French locales send "64 250,5"-style values, so commas are read as the
// decimal separator and spaces are dropped.
func parsePrice(v any) (decimal.Decimal, bool) {
	switch p := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(p.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(p), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(p), ",", ".")
		s = strings.ReplaceAll(s, " ", "")
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}
