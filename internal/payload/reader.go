// Package payload turns arbitrary webhook bodies into a normalized payload.
package payload

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"signal-relay/internal/model"
)

// Read parses a request body tolerantly, whatever its declared content type.
// It never fails: text that is not a single JSON value comes back as the
// raw case with the original, untrimmed text.
//
// A body that decodes to JSON null is reported as raw text, so the
// normalized payload is never null.
func Read(body []byte) model.Body {
	text := string(body)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.Body{Kind: model.BodyJSON, Value: map[string]any{}}
	}

	v, err := decode(trimmed)
	if err != nil {
		return model.Body{Kind: model.BodyRaw, Raw: text}
	}
	if v == nil {
		return model.Body{Kind: model.BodyRaw, Raw: trimmed}
	}

	return model.Body{Kind: model.BodyJSON, Value: v, Raw: trimmed}
}

var errTrailingData = errors.New("trailing data after JSON value")

// decode reads exactly one JSON value. Numbers are kept as json.Number so
// prices and large identifiers survive the round trip unchanged.
func decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}
