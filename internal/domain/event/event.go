package event

import (
	"encoding/json"
	"math"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/result"
	"github.com/kailas-cloud/trailsearch/internal/domain/trace"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

// Type tags a streaming event.
type Type string

// Event types.
const (
	TypeStart     Type = "start"
	TypeToken     Type = "token"
	TypeToolTrace Type = "tool_trace"
	TypeDone      Type = "done"
	TypeError     Type = "error"
)

// Event is one unit of the ordered output stream. The set of implementations
// is closed: Start, Token, ToolTrace, Done and Error.
type Event interface {
	Type() Type
	isEvent()
}

// IsTerminal reports whether e ends the stream.
func IsTerminal(e Event) bool {
	t := e.Type()
	return t == TypeDone || t == TypeError
}

// Start opens the stream.
type Start struct {
	RequestID string
	Strategy  mode.Mode
}

// Token carries one chunk of model narrative.
type Token struct {
	Content string
}

// ToolTrace reports a completed tool invocation or reasoning step.
type ToolTrace struct {
	Entry trace.Entry
}

// Done closes a successful stream.
type Done struct {
	Results  []result.Result
	Filters  filter.Spec
	Trace    []trace.Entry
	Degraded bool
	Message  string
}

// Error closes a failed stream. Message is always a fixed, sanitized string.
type Error struct {
	Code    Code
	Message string
}

func (Start) Type() Type     { return TypeStart }
func (Token) Type() Type     { return TypeToken }
func (ToolTrace) Type() Type { return TypeToolTrace }
func (Done) Type() Type      { return TypeDone }
func (Error) Type() Type     { return TypeError }

func (Start) isEvent()     {}
func (Token) isEvent()     {}
func (ToolTrace) isEvent() {}
func (Done) isEvent()      {}
func (Error) isEvent()     {}

// Code classifies a terminal error.
type Code string

// Error codes.
const (
	CodeDatasetUnavailable Code = "dataset_unavailable"
	CodeSearchFailed       Code = "search_failed"
	CodeInternal           Code = "internal_error"
)

var sanitized = map[Code]string{
	CodeDatasetUnavailable: "The trail database is busy. Please try again shortly.",
	CodeSearchFailed:       "We couldn't complete your trail search. Please try again.",
	CodeInternal:           "Something went wrong. Please try again.",
}

// NewError builds an Error event with the sanitized message for code.
func NewError(code Code) Error {
	msg, ok := sanitized[code]
	if !ok {
		code, msg = CodeInternal, sanitized[CodeInternal]
	}
	return Error{Code: code, Message: msg}
}

// TrailView is the wire form of a ranked trail.
type TrailView struct {
	trail.Trail
	DistanceMiles           float64  `json:"distance_miles"`
	Score                   float64  `json:"score"`
	Why                     string   `json:"why"`
	DistanceFromCenterMiles *float64 `json:"distance_from_center_miles,omitempty"`
}

// ViewOf converts a search result into its wire form.
func ViewOf(r result.Result) TrailView {
	v := TrailView{
		Trail:         r.Trail(),
		DistanceMiles: round(r.Trail().DistanceMiles(), 2),
		Score:         round(r.Score(), 4),
		Why:           r.Why(),
	}
	if d, ok := r.DistanceFromCenter(); ok {
		d = round(d, 1)
		v.DistanceFromCenterMiles = &d
	}
	return v
}

// Views converts results, returning an empty (non-nil) slice for no results.
func Views(rs []result.Result) []TrailView {
	out := make([]TrailView, 0, len(rs))
	for _, r := range rs {
		out = append(out, ViewOf(r))
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (e Start) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      Type      `json:"type"`
		RequestID string    `json:"request_id"`
		Strategy  mode.Mode `json:"strategy"`
	}{TypeStart, e.RequestID, e.Strategy})
}

// MarshalJSON implements json.Marshaler.
func (e Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    Type   `json:"type"`
		Content string `json:"content"`
	}{TypeToken, e.Content})
}

// MarshalJSON implements json.Marshaler.
func (e ToolTrace) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  Type        `json:"type"`
		Entry trace.Entry `json:"entry"`
	}{TypeToolTrace, e.Entry})
}

// MarshalJSON implements json.Marshaler.
func (e Done) MarshalJSON() ([]byte, error) {
	tr := e.Trace
	if tr == nil {
		tr = []trace.Entry{}
	}
	return json.Marshal(struct {
		Type     Type          `json:"type"`
		Results  []TrailView   `json:"results"`
		Filters  filter.Spec   `json:"filters"`
		Trace    []trace.Entry `json:"trace"`
		Degraded bool          `json:"degraded"`
		Message  string        `json:"message,omitempty"`
	}{TypeDone, Views(e.Results), e.Filters, tr, e.Degraded, e.Message})
}

// MarshalJSON implements json.Marshaler.
func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    Type   `json:"type"`
		Code    Code   `json:"code"`
		Message string `json:"message"`
	}{TypeError, e.Code, e.Message})
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
