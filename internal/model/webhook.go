// Package model defines shared types for the relay.
package model

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InboundRequest is the transient view of a webhook call.
type InboundRequest struct {
	Header    http.Header
	Body      []byte
	RemoteIP  string
	RequestID string
}

// BodyKind tags which case of Body is populated.
type BodyKind int

const (
	// BodyJSON holds a decoded JSON value. Empty bodies decode to an empty object.
	BodyJSON BodyKind = iota
	// BodyRaw holds text that could not be decoded as JSON.
	BodyRaw
)

// Body is the result of tolerant body reading: either a decoded JSON value
// or the raw text it failed to decode.
type Body struct {
	Kind  BodyKind
	Value any
	Raw   string
}

// Outcome returns a bounded label describing how the body was read.
func (b Body) Outcome() string {
	switch {
	case b.Kind == BodyRaw:
		return "raw"
	case b.Raw == "":
		return "empty"
	default:
		return "json"
	}
}

// Payload is the normalized, JSON-encodable value relayed and echoed back.
type Payload any

// RawMessageKey is the field wrapping bodies that are not valid JSON.
const RawMessageKey = "rawMessage"

// ForwardResult is the outcome of a downstream forward. Used for logging only.
type ForwardResult struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Err        error
}

// OK reports whether the downstream answered with a 2xx status.
func (r ForwardResult) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Signal is a best-effort summary of a trading alert payload.
type Signal struct {
	Kind   string
	Symbol string
	Price  decimal.Decimal
}

var knownSignals = map[string]bool{
	"BUY":          true,
	"SELL":         true,
	"BUY_CONFIRM":  true,
	"SELL_CONFIRM": true,
}

// Known reports whether the signal kind is one the alert templates emit.
func (s Signal) Known() bool {
	return knownSignals[s.Kind]
}

// Record is the archived copy of a received webhook.
type Record struct {
	ID         uuid.UUID
	ReceivedAt time.Time
	RemoteIP   string
	RequestID  string
	Outcome    string
	Signal     Signal
	Payload    []byte // JSON-encoded normalized payload
}
