package profiler

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/datasage-cli/internal/report"
)

// Column dtypes reported to clients. The spelling matches what the hosted
// service emits, so clients see the same names from either backend.
const (
	DtypeInt      = "int64"
	DtypeFloat    = "float64"
	DtypeBool     = "bool"
	DtypeDatetime = "datetime64[ns]"
	DtypeObject   = "object"
)

// nullTokens are cell values treated as missing, in addition to blanks.
var nullTokens = map[string]struct{}{
	"na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "#n/a": {}, "-nan": {}, "<na>": {},
}

func isNull(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	_, ok := nullTokens[strings.ToLower(v)]
	return ok
}

// colAcc accumulates one column while rows stream past.
type colAcc struct {
	name    string
	nulls   int
	seen    map[string]struct{}
	samples []string
	ints    int
	floats  int
	bools   int
	times   int
	values  int
}

func (c *colAcc) add(raw string, keep int) {
	if isNull(raw) {
		c.nulls++
		return
	}
	v := strings.TrimSpace(raw)
	c.values++
	c.seen[v] = struct{}{}
	if len(c.samples) < keep {
		c.samples = append(c.samples, v)
	}
	switch {
	case isInt(v):
		c.ints++
	case isFloat(v):
		c.floats++
	case isBool(v):
		c.bools++
	default:
		if _, ok := parseTimeMaybe(v); ok {
			c.times++
		}
	}
}

func (c *colAcc) dtype() string {
	switch {
	case c.values == 0:
		// an all-missing column is numeric with no values
		return DtypeFloat
	case c.ints == c.values:
		return DtypeInt
	case c.ints+c.floats == c.values:
		return DtypeFloat
	case c.bools == c.values:
		return DtypeBool
	case c.times == c.values:
		return DtypeDatetime
	}
	return DtypeObject
}

// Columns profiles every column of t. sample caps the number of non-null
// sample values kept per column.
func Columns(t *Table, sample int) []report.ColumnProfile {
	if sample < 0 {
		sample = 0
	}
	accs := make([]*colAcc, len(t.Header))
	for i, name := range t.Header {
		accs[i] = &colAcc{name: name, seen: map[string]struct{}{}}
	}
	for _, row := range t.Rows {
		for j, acc := range accs {
			var v string
			if j < len(row) {
				v = row[j]
			}
			acc.add(v, sample)
		}
	}

	rows := len(t.Rows)
	out := make([]report.ColumnProfile, 0, len(accs))
	for _, acc := range accs {
		dtype := acc.dtype()
		samples := make([]any, 0, len(acc.samples))
		for _, s := range acc.samples {
			samples = append(samples, typedValue(s, dtype))
		}
		out = append(out, report.ColumnProfile{
			Name:           acc.name,
			Dtype:          dtype,
			NullCount:      acc.nulls,
			NullPercentage: nullPercentage(acc.nulls, rows),
			UniqueCount:    len(acc.seen),
			SampleValues:   samples,
		})
	}
	return out
}

func nullPercentage(nulls, rows int) float64 {
	if rows == 0 {
		return 0
	}
	return round(float64(nulls)/float64(rows)*100, 2)
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// typedValue converts a sample to the JSON-friendly type for its column.
func typedValue(v, dtype string) any {
	switch dtype {
	case DtypeInt, DtypeFloat:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case DtypeBool:
		return strings.EqualFold(v, "true")
	case DtypeDatetime:
		if t, ok := parseTimeMaybe(v); ok {
			return t.Format("2006-01-02T15:04:05")
		}
	}
	return v
}

func isInt(v string) bool {
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isFloat(v string) bool {
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && !math.IsNaN(f)
}

func isBool(v string) bool {
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "false")
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "2006-01-02 15:04", "2006-01-02 15:04:05",
	"01/02/2006", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
