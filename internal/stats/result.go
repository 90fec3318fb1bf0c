package stats

import (
	"encoding/json"
	"fmt"
)

// Kind tags an Outcome.
type Kind string

const (
	KindProportion     Kind = "proportion"
	KindMeanDifference Kind = "mean-difference"
	KindError          Kind = "error"
)

// Outcome is the result of a single test: exactly one of *ProportionResult,
// *MeanDiffResult or *TestError.
type Outcome interface {
	Kind() Kind
	outcome()
}

// ErrorKind classifies a TestError.
type ErrorKind string

const (
	ErrMissingGroup       ErrorKind = "missing-group"
	ErrInvalidDenominator ErrorKind = "invalid-denominator"
	ErrInvalidProportion  ErrorKind = "invalid-proportion"
	ErrInsufficientSample ErrorKind = "insufficient-sample"
	ErrDegenerateVariance ErrorKind = "degenerate-variance"
)

// OptFloat is a figure that may be undefined, encoded as null in JSON.
type OptFloat struct {
	V     float64
	Valid bool
}

func optRate(num, den float64) OptFloat {
	v, ok := SafeRate(num, den)
	return OptFloat{V: v, Valid: ok}
}

func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.V)
}

func (o *OptFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptFloat{}
		return nil
	}
	o.Valid = true
	return json.Unmarshal(data, &o.V)
}

func (o OptFloat) String() string {
	if !o.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%g", o.V)
}

// ProportionResult is a completed two-proportion z-test.
type ProportionResult struct {
	Statistic   float64  `json:"statistic"`
	PValue      float64  `json:"pvalue"`
	RateA       float64  `json:"rate_a"`
	RateB       float64  `json:"rate_b"`
	Diff        float64  `json:"diff"`
	DiffCI      Interval `json:"diff_ci"`
	CIA         Interval `json:"ci_a"`
	CIB         Interval `json:"ci_b"`
	Confidence  float64  `json:"confidence"`
	Numerator   string   `json:"numerator"`
	Denominator string   `json:"denominator"`
}

func (*ProportionResult) Kind() Kind { return KindProportion }
func (*ProportionResult) outcome()   {}

// Significant reports whether p < alpha.
func (r *ProportionResult) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// MeanDiffResult is a completed Welch t-test on per-row ratios.
type MeanDiffResult struct {
	Statistic float64  `json:"statistic"`
	PValue    float64  `json:"pvalue"`
	DF        float64  `json:"df"`
	MeanA     float64  `json:"mean_a"`
	MeanB     float64  `json:"mean_b"`
	Diff      float64  `json:"diff"`
	CI        Interval `json:"ci"`
	CIMethod  CIMethod `json:"ci_method"`
	NA        int      `json:"n_a"`
	NB        int      `json:"n_b"`
	Note      string   `json:"note"`
}

func (*MeanDiffResult) Kind() Kind { return KindMeanDifference }
func (*MeanDiffResult) outcome()   {}

// Significant reports whether p < alpha.
func (r *MeanDiffResult) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// CIMethod names how a mean-difference interval was built.
type CIMethod string

const (
	CINormal    CIMethod = "normal"
	CIBootstrap CIMethod = "bootstrap"
)

// TestError is returned in place of a result when preconditions fail. It
// carries whatever partial figures could still be computed.
type TestError struct {
	ErrKind     ErrorKind `json:"error_kind"`
	Message     string    `json:"message"`
	RateA       *OptFloat `json:"rate_a,omitempty"`
	RateB       *OptFloat `json:"rate_b,omitempty"`
	CountA      *int      `json:"count_a,omitempty"`
	CountB      *int      `json:"count_b,omitempty"`
	Numerator   string    `json:"numerator,omitempty"`
	Denominator string    `json:"denominator,omitempty"`
	Note        string    `json:"note,omitempty"`
}

func (*TestError) Kind() Kind { return KindError }
func (*TestError) outcome()   {}

func (e *TestError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrKind, e.Message)
}

// MarshalOutcome encodes o with a "kind" tag.
func MarshalOutcome(o Outcome) ([]byte, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(o.Kind())
	fields["kind"] = kind
	return json.Marshal(fields)
}

// UnmarshalOutcome decodes a payload produced by MarshalOutcome.
func UnmarshalOutcome(data []byte) (Outcome, error) {
	var tag struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("failed to decode outcome kind: %w", err)
	}

	var o Outcome
	switch tag.Kind {
	case KindProportion:
		o = &ProportionResult{}
	case KindMeanDifference:
		o = &MeanDiffResult{}
	case KindError:
		o = &TestError{}
	default:
		return nil, fmt.Errorf("unknown outcome kind %q", tag.Kind)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("failed to decode %s outcome: %w", tag.Kind, err)
	}
	return o, nil
}
