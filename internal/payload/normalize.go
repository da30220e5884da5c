package payload

import "signal-relay/internal/model"

// Normalize produces the payload relayed downstream and echoed to the caller.
// Decoded JSON is passed through verbatim; raw text is wrapped as
// {"rawMessage": text}.
func Normalize(b model.Body) model.Payload {
	if b.Kind == model.BodyJSON {
		return b.Value
	}
	return map[string]any{model.RawMessageKey: b.Raw}
}
