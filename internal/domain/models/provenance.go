package models

// Source tells where an inferred value came from.
type Source string

const (
	SourceGPS     Source = "gps"
	SourceDerived Source = "derived"
	SourceManual  Source = "manual"
)

// Provenance carries an optional inferred value together with how sure we are
// about it and the ordered reason tags that produced it.
type Provenance[T any] struct {
	Value      *T       `json:"value,omitempty"`
	Confidence float64  `json:"confidence"`
	Source     Source   `json:"source"`
	Reasons    []string `json:"reasons,omitempty"`
}

// Known wraps a present value. Confidence is clamped to [0,1].
func Known[T any](v T, confidence float64, source Source, reasons ...string) Provenance[T] {
	return Provenance[T]{
		Value:      &v,
		Confidence: clamp01(confidence),
		Source:     source,
		Reasons:    append([]string(nil), reasons...),
	}
}

// Unknown is an absent value with zero confidence.
func Unknown[T any](reasons ...string) Provenance[T] {
	return Provenance[T]{
		Source:  SourceDerived,
		Reasons: append([]string(nil), reasons...),
	}
}

func (p Provenance[T]) IsKnown() bool {
	return p.Value != nil
}

// Get returns the value and whether it is present.
func (p Provenance[T]) Get() (T, bool) {
	if p.Value == nil {
		var zero T
		return zero, false
	}
	return *p.Value, true
}

// OrZero returns the value or the zero value of T.
func (p Provenance[T]) OrZero() T {
	v, _ := p.Get()
	return v
}

// WithReason returns a copy with extra reason tags appended.
func (p Provenance[T]) WithReason(reasons ...string) Provenance[T] {
	out := p
	out.Reasons = append(append([]string(nil), p.Reasons...), reasons...)
	return out
}

// Scaled returns a copy whose confidence is multiplied by factor. A factor
// above 1 is ignored: confidence may only go down here, and the reason is
// always recorded.
func (p Provenance[T]) Scaled(factor float64, reason string) Provenance[T] {
	out := p.WithReason(reason)
	if factor < 1 {
		out.Confidence = clamp01(p.Confidence * factor)
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
