// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

// Count is an optional non-negative counter reported by the server.
// The zero value means the server did not report it.
type Count struct {
	value int
	valid bool
}

// NewCount returns a present Count. Negative values are treated as absent.
func NewCount(v int) Count {
	if v < 0 {
		return Count{}
	}
	return Count{value: v, valid: true}
}

// Present reports whether the server reported a value.
func (c Count) Present() bool { return c.valid }

// OrZero returns the value, or 0 when absent.
func (c Count) OrZero() int {
	if !c.valid {
		return 0
	}
	return c.value
}

// UnmarshalJSON never fails. Anything that is not a non-negative integral
// number decodes to an absent Count.
func (c *Count) UnmarshalJSON(data []byte) error {
	*c = Count{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	v, ok := integral(n)
	if !ok || v < 0 {
		return nil
	}
	*c = Count{value: v, valid: true}
	return nil
}

// integral accepts integers and floats with an exact integer value (12.0, 1e3).
func integral(n json.Number) (int, bool) {
	if v, err := n.Int64(); err == nil {
		return int(v), int64(int(v)) == v
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// MarshalJSON writes absent counts as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

// StatsPayload holds the dashboard counters returned by the server.
// A payload is never modified after it is received; a re-fetch replaces it.
type StatsPayload struct {
	ProjectsInReview Count `json:"n_in_review"`
	ProjectsFinished Count `json:"n_finished"`
	RecordsReviewed  Count `json:"n_reviewed"`
	RelevantRecords  Count `json:"n_included"`
}

// Phase is the data readiness of a FetchState.
type Phase int

const (
	// NotReady is the state before the first fetch completes.
	NotReady Phase = iota
	// Ready is the state once a fetch has completed.
	Ready
)

// String returns "ready" or "not-ready".
func (p Phase) String() string {
	if p == Ready {
		return "ready"
	}
	return "not-ready"
}

// FetchState is the readiness flag plus the most recently retrieved payload.
// The zero value is the initial state.
type FetchState struct {
	Ready   bool
	Payload *StatsPayload
}

// Phase returns Ready once a fetch has completed.
func (s FetchState) Phase() Phase {
	if s.Ready {
		return Ready
	}
	return NotReady
}

// DisplayValues are the four integers shown on the dashboard.
type DisplayValues struct {
	InReview int `json:"projects_in_review"`
	Finished int `json:"projects_finished"`
	Reviewed int `json:"records_reviewed"`
	Relevant int `json:"relevant_records"`
}

// DeriveDisplayValues applies the display fallback policy: a counter shows
// the payload value only when the state is ready and the value is present
// and non-zero. Everything else shows 0, so a reported zero and a missing
// counter look the same.
func DeriveDisplayValues(state FetchState) DisplayValues {
	if !state.Ready || state.Payload == nil {
		return DisplayValues{}
	}
	p := state.Payload
	return DisplayValues{
		InReview: p.ProjectsInReview.OrZero(),
		Finished: p.ProjectsFinished.OrZero(),
		Reviewed: p.RecordsReviewed.OrZero(),
		Relevant: p.RelevantRecords.OrZero(),
	}
}

// Card is a labelled counter.
type Card struct {
	Label string
	Value int
}

// Cards returns the counters in dashboard order.
func (v DisplayValues) Cards() []Card {
	return []Card{
		{Label: "Projects in Review", Value: v.InReview},
		{Label: "Projects Finished", Value: v.Finished},
		{Label: "Records Reviewed", Value: v.Reviewed},
		{Label: "Relevant Records", Value: v.Relevant},
	}
}
