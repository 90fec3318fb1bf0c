package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/adsplit/adsplit/internal/campaign"
)

// Denominator selects which trial count the conversion test uses.
type Denominator string

const (
	DenominatorClicks Denominator = "clicks"
	DenominatorReach  Denominator = "reach"
	DenominatorBoth   Denominator = "both"
)

// ParseDenominator accepts clicks, reach or both in any case.
func ParseDenominator(s string) (Denominator, error) {
	switch d := Denominator(strings.ToLower(strings.TrimSpace(s))); d {
	case DenominatorClicks, DenominatorReach, DenominatorBoth:
		return d, nil
	case "":
		return DenominatorClicks, nil
	}
	return "", fmt.Errorf("invalid denominator %q: must be clicks, reach or both", s)
}

// Test names used as report keys.
const (
	TestClickConversion = "click-based conversion test"
	TestReachConversion = "reach-based conversion test"
	TestRevenuePerUnit  = "revenue-per-unit test"
)

// Labels recorded on proportion results.
const (
	LabelPurchases = "# of Purchase"
	LabelClicks    = "# of Website Clicks"
	LabelReach     = "Reach"
)

// DefaultSeed seeds the bootstrap when none is configured.
const DefaultSeed int64 = 42

// Config drives a full test run.
type Config struct {
	Denominator         Denominator `json:"denominator"`
	RevenueColumn       string      `json:"revenue_column,omitempty"`
	Alpha               float64     `json:"alpha"`
	Bootstrap           bool        `json:"bootstrap"`
	BootstrapIterations int         `json:"bootstrap_iterations"`
	Seed                *int64      `json:"seed,omitempty"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	seed := DefaultSeed
	return Config{
		Denominator:         DenominatorClicks,
		Alpha:               0.05,
		Bootstrap:           true,
		BootstrapIterations: DefaultBootstrapIterations,
		Seed:                &seed,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseDenominator(string(c.Denominator)); err != nil {
		errs = append(errs, err)
	}
	if !(c.Alpha > 0 && c.Alpha < 1) {
		errs = append(errs, fmt.Errorf("alpha must be in (0, 1), got %g", c.Alpha))
	}
	if c.Bootstrap && c.BootstrapIterations <= 0 {
		errs = append(errs, fmt.Errorf("bootstrap iterations must be positive, got %d", c.BootstrapIterations))
	}
	if c.BootstrapIterations > MaxBootstrapIterations {
		errs = append(errs, fmt.Errorf("bootstrap iterations must be at most %d, got %d", MaxBootstrapIterations, c.BootstrapIterations))
	}
	return errors.Join(errs...)
}

// NamedOutcome pairs a test name with its outcome.
type NamedOutcome struct {
	Name    string
	Outcome Outcome
}

// Report is the merged result of a run. Failure is set only when the run
// could not start (missing group), in which case Tests is empty.
type Report struct {
	Failure *TestError
	Tests   []NamedOutcome
	Config  Config
	// Aggregates holds the per-group sums the conversion tests used.
	Aggregates map[campaign.Group]GroupTotals
}

// GroupTotals are the summed counts of one group.
type GroupTotals struct {
	Rows      int     `json:"rows"`
	Purchases float64 `json:"purchases"`
	Clicks    float64 `json:"clicks"`
	Reach     float64 `json:"reach"`
}

// Get returns the outcome for name.
func (r *Report) Get(name string) (Outcome, bool) {
	for _, t := range r.Tests {
		if t.Name == name {
			return t.Outcome, true
		}
	}
	return nil, false
}

// Run validates the dataset and dispatches the conversion and
// revenue-per-unit tests. The returned error is non-nil only for an invalid
// Config; test failures are reported inside the Report.
func Run(ds campaign.Dataset, cfg Config) (*Report, error) {
	if cfg.Denominator == "" {
		cfg.Denominator = DenominatorClicks
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid test config: %w", err)
	}

	report := &Report{Config: cfg}

	present := make(map[campaign.Group]bool)
	for _, g := range ds.Groups() {
		present[g] = true
	}
	if !present[campaign.GroupA] || !present[campaign.GroupB] {
		report.Failure = &TestError{
			ErrKind: ErrMissingGroup,
			Message: "both groups A (control) and B (variant) are required",
		}
		return report, nil
	}

	totals := map[campaign.Group]GroupTotals{
		campaign.GroupA: aggregate(ds.Filter(campaign.GroupA)),
		campaign.GroupB: aggregate(ds.Filter(campaign.GroupB)),
	}
	report.Aggregates = totals
	a, b := totals[campaign.GroupA], totals[campaign.GroupB]

	if cfg.Denominator == DenominatorClicks || cfg.Denominator == DenominatorBoth {
		report.Tests = append(report.Tests, NamedOutcome{
			Name: TestClickConversion,
			Outcome: ProportionTest(
				Counts{Successes: a.Purchases, Trials: a.Clicks},
				Counts{Successes: b.Purchases, Trials: b.Clicks},
				cfg.Alpha, LabelPurchases, LabelClicks,
			),
		})
	}
	if cfg.Denominator == DenominatorReach || cfg.Denominator == DenominatorBoth {
		report.Tests = append(report.Tests, NamedOutcome{
			Name: TestReachConversion,
			Outcome: ProportionTest(
				Counts{Successes: a.Purchases, Trials: a.Reach},
				Counts{Successes: b.Purchases, Trials: b.Reach},
				cfg.Alpha, LabelPurchases, LabelReach,
			),
		})
	}

	report.Tests = append(report.Tests, NamedOutcome{
		Name: TestRevenuePerUnit,
		Outcome: MeanDiffTest(ds, MeanDiffOptions{
			RevenueColumn: cfg.RevenueColumn,
			Bootstrap:     cfg.Bootstrap,
			Iterations:    cfg.BootstrapIterations,
			Seed:          cfg.Seed,
		}),
	})

	return report, nil
}

func aggregate(rows []campaign.Observation) GroupTotals {
	t := GroupTotals{Rows: len(rows)}
	for _, r := range rows {
		t.Purchases += r.Purchases.Or(0)
		t.Clicks += r.Clicks.Or(0)
		t.Reach += r.Reach.Or(0)
	}
	return t
}

type reportJSON struct {
	Error      *json.RawMessage               `json:"error,omitempty"`
	Tests      map[string]json.RawMessage     `json:"tests,omitempty"`
	Order      []string                       `json:"order,omitempty"`
	Config     Config                         `json:"config"`
	Aggregates map[campaign.Group]GroupTotals `json:"aggregates,omitempty"`
}

func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{Config: r.Config, Aggregates: r.Aggregates}
	if r.Failure != nil {
		raw, err := MarshalOutcome(r.Failure)
		if err != nil {
			return nil, err
		}
		msg := json.RawMessage(raw)
		out.Error = &msg
		return json.Marshal(out)
	}

	out.Tests = make(map[string]json.RawMessage, len(r.Tests))
	for _, t := range r.Tests {
		raw, err := MarshalOutcome(t.Outcome)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", t.Name, err)
		}
		out.Tests[t.Name] = raw
		out.Order = append(out.Order, t.Name)
	}
	return json.Marshal(out)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var in reportJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Report{Config: in.Config, Aggregates: in.Aggregates}

	if in.Error != nil {
		o, err := UnmarshalOutcome(*in.Error)
		if err != nil {
			return err
		}
		te, ok := o.(*TestError)
		if !ok {
			return fmt.Errorf("report error has kind %s", o.Kind())
		}
		r.Failure = te
		return nil
	}

	for _, name := range in.Order {
		raw, ok := in.Tests[name]
		if !ok {
			return fmt.Errorf("report is missing test %q", name)
		}
		o, err := UnmarshalOutcome(raw)
		if err != nil {
			return err
		}
		r.Tests = append(r.Tests, NamedOutcome{Name: name, Outcome: o})
	}
	return nil
}
