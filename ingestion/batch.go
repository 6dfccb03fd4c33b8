package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Batch is one externally produced set of absorption results.
type Batch struct {
	Timestamp string   `json:"timestamp"`
	Results   []Result `json:"results"`
}

// Result is the output of one external source.
type Result struct {
	Success       bool              `json:"success"`
	Source        string            `json:"source"`
	Type          string            `json:"type,omitempty"`
	DataPoints    *float64          `json:"data_points,omitempty"`
	ContentSample []json.RawMessage `json:"content_sample,omitempty"`
}

type wireBatch struct {
	Timestamp         string   `json:"timestamp"`
	Results           []Result `json:"results"`
	AbsorptionResults []Result `json:"absorption_results"`
}

// ParseBatch decodes a batch payload. Producers that write their results under
// "absorption_results" are accepted when "results" is empty.
func ParseBatch(data []byte) (*Batch, error) {
	var w wireBatch
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBatch, err)
	}
	results := w.Results
	if len(results) == 0 {
		results = w.AbsorptionResults
	}
	return &Batch{Timestamp: w.Timestamp, Results: results}, nil
}

// TotalDataPoints sums data_points across all results, missing values counting as zero.
func (b *Batch) TotalDataPoints() float64 {
	total := 0.0
	for _, r := range b.Results {
		if r.DataPoints != nil {
			total += *r.DataPoints
		}
	}
	return total
}

// SampleText renders a content sample as text. JSON strings yield their value,
// anything else its compact JSON encoding.
func SampleText(sample json.RawMessage) string {
	var s string
	if err := json.Unmarshal(sample, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, sample); err != nil {
		return string(sample)
	}
	return buf.String()
}
