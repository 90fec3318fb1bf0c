package campaign

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Value is a numeric field that may be missing. A missing value never takes
// part in arithmetic; callers check Valid first.
type Value struct {
	V     float64
	Valid bool
}

// Num returns a present value.
func Num(v float64) Value {
	return Value{V: v, Valid: true}
}

// Missing returns an absent value.
func Missing() Value {
	return Value{}
}

// thousandsGrouped matches numbers with comma thousands separators, e.g.
// "1,234,567.89". A decimal comma such as "12,5" does not match.
var thousandsGrouped = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// Parse coerces raw CSV text into a Value. Empty, non-numeric, NaN and
// infinite inputs become missing. A leading currency sign and well-formed
// thousands separators are tolerated; any other comma makes the value
// missing.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Missing()
	}
	s = strings.TrimPrefix(s, "$")
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return Missing()
		}
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	return Num(f)
}

// Positive reports whether the value is present and strictly greater than zero.
func (v Value) Positive() bool {
	return v.Valid && v.V > 0
}

// Or returns the value, or def when missing.
func (v Value) Or(def float64) float64 {
	if !v.Valid {
		return def
	}
	return v.V
}

func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.V, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Missing()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Num(f)
	return nil
}

// Sum adds all present values. The second result is the number of values
// that contributed.
func Sum(values ...Value) (float64, int) {
	total := 0.0
	n := 0
	for _, v := range values {
		if v.Valid {
			total += v.V
			n++
		}
	}
	return total, n
}
