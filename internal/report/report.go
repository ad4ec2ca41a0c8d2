// Package report holds the wire types exchanged with the analysis service.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ColumnProfile summarizes one column of the analyzed dataset.
type ColumnProfile struct {
	Name           string  `json:"name" yaml:"name"`
	Dtype          string  `json:"dtype" yaml:"dtype"`
	NullCount      int     `json:"null_count" yaml:"null_count"`
	NullPercentage float64 `json:"null_percentage" yaml:"null_percentage"`
	UniqueCount    int     `json:"unique_count" yaml:"unique_count"`
	// SampleValues holds string, float64, bool or nil entries.
	SampleValues []any `json:"sample_values" yaml:"sample_values"`
}

// DataProfileReport is the full analysis result for one uploaded file.
type DataProfileReport struct {
	ID              string          `json:"id" yaml:"id"`
	FileName        string          `json:"file_name" yaml:"file_name"`
	RowCount        int             `json:"row_count" yaml:"row_count"`
	ColumnCount     int             `json:"column_count" yaml:"column_count"`
	Columns         []ColumnProfile `json:"columns" yaml:"columns"`
	AIInsights      string          `json:"ai_insights" yaml:"ai_insights"`
	QualityScore    float64         `json:"quality_score" yaml:"quality_score"`
	Recommendations []string        `json:"recommendations" yaml:"recommendations"`
	CreatedAt       Timestamp       `json:"created_at" yaml:"created_at"`
}

// Timestamp is a report creation time. The service may omit the zone
// designator; such values are read as UTC.
type Timestamp struct {
	time.Time
}

// naiveLayout is RFC 3339 without a zone, with optional fractional seconds.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// NewTimestamp wraps t in UTC.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t.UTC()} }

// ParseTimestamp accepts RFC 3339 or a zone-less ISO 8601 date-time.
func ParseTimestamp(s string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t}, nil
	}
	t, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return Timestamp{Time: t}, nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}

func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(t.UTC().Format(time.RFC3339Nano)), nil
}

func (t *Timestamp) UnmarshalText(b []byte) error {
	ts, err := ParseTimestamp(string(b))
	if err != nil {
		return err
	}
	*t = ts
	return nil
}

// MarshalYAML emits the same string form as JSON.
func (t Timestamp) MarshalYAML() (any, error) {
	return t.UTC().Format(time.RFC3339Nano), nil
}

// HealthStatus is the body of the service health probe.
type HealthStatus struct {
	Status      string `json:"status" yaml:"status"`
	Version     string `json:"version" yaml:"version"`
	Environment string `json:"environment" yaml:"environment"`
}

// ErrIncomplete marks a report body that is missing required fields or
// violates basic shape constraints.
var ErrIncomplete = errors.New("incomplete report")

var requiredFields = []string{
	"id", "file_name", "row_count", "column_count", "columns",
	"ai_insights", "quality_score", "recommendations", "created_at",
}

var requiredColumnFields = []string{
	"name", "dtype", "null_count", "null_percentage", "unique_count", "sample_values",
}

// Decode parses a success body into a report. Unlike json.Unmarshal it
// rejects bodies with absent or null required fields.
func Decode(body []byte) (*DataProfileReport, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	if err := requireKeys(raw, requiredFields, ""); err != nil {
		return nil, err
	}
	var cols []map[string]json.RawMessage
	if err := json.Unmarshal(raw["columns"], &cols); err != nil {
		return nil, fmt.Errorf("parse columns: %w", err)
	}
	for i, c := range cols {
		if err := requireKeys(c, requiredColumnFields, fmt.Sprintf("columns[%d].", i)); err != nil {
			return nil, err
		}
	}
	var r DataProfileReport
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func requireKeys(m map[string]json.RawMessage, keys []string, prefix string) error {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || string(v) == "null" {
			return fmt.Errorf("%w: missing %s%s", ErrIncomplete, prefix, k)
		}
	}
	return nil
}

// Validate checks the shape invariants the client relies on.
func (r *DataProfileReport) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil report", ErrIncomplete)
	}
	if r.RowCount < 0 || r.ColumnCount < 0 {
		return fmt.Errorf("%w: negative row or column count", ErrIncomplete)
	}
	if len(r.Columns) != r.ColumnCount {
		return fmt.Errorf("%w: column_count=%d but %d columns", ErrIncomplete, r.ColumnCount, len(r.Columns))
	}
	if r.QualityScore < 0 || r.QualityScore > 100 {
		return fmt.Errorf("%w: quality_score %.2f out of range", ErrIncomplete, r.QualityScore)
	}
	for i, c := range r.Columns {
		if c.NullCount < 0 || c.UniqueCount < 0 {
			return fmt.Errorf("%w: columns[%d] has negative counts", ErrIncomplete, i)
		}
		if c.NullPercentage < 0 || c.NullPercentage > 100 {
			return fmt.Errorf("%w: columns[%d] null_percentage out of range", ErrIncomplete, i)
		}
	}
	return nil
}
