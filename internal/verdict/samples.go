package verdict

import (
	"encoding/json"
	"fmt"
)

// SampleCounts records how many underlying observations back the signal set.
// It is a tagged variant: either a single bare count, or a structured
// breakdown by sample source. On the wire it serializes as a bare number or
// as an object with named sub-counts; both shapes are accepted when decoding.
type SampleCounts struct {
	breakdown bool
	count     int

	slippage int
	monte    int
	features int
}

// Count builds a bare-count SampleCounts.
func Count(n int) SampleCounts {
	return SampleCounts{count: n}
}

// Breakdown builds a structured SampleCounts from per-source counts.
func Breakdown(slippage, monte, features int) SampleCounts {
	return SampleCounts{breakdown: true, slippage: slippage, monte: monte, features: features}
}

// IsBreakdown reports whether the counts are broken down by source.
func (s SampleCounts) IsBreakdown() bool { return s.breakdown }

// Counts returns the per-source counts. Valid only when IsBreakdown.
func (s SampleCounts) Counts() (slippage, monte, features int) {
	return s.slippage, s.monte, s.features
}

// Total returns the sum over all sources, or the bare count.
func (s SampleCounts) Total() int {
	if !s.breakdown {
		return s.count
	}
	return s.slippage + s.monte + s.features
}

// Min returns the smallest per-source count, or the bare count. Quality
// grading uses Min so the weakest evidence source dominates the grade.
func (s SampleCounts) Min() int {
	if !s.breakdown {
		return s.count
	}
	m := s.slippage
	if s.monte < m {
		m = s.monte
	}
	if s.features < m {
		m = s.features
	}
	return m
}

type sampleBreakdownJSON struct {
	Slippage int `json:"slippage"`
	Monte    int `json:"monte"`
	Features int `json:"features"`
}

func (s SampleCounts) MarshalJSON() ([]byte, error) {
	if !s.breakdown {
		return json.Marshal(s.count)
	}
	return json.Marshal(sampleBreakdownJSON{
		Slippage: s.slippage,
		Monte:    s.monte,
		Features: s.features,
	})
}

func (s *SampleCounts) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*s = Count(n)
		return nil
	}
	var br sampleBreakdownJSON
	if err := json.Unmarshal(b, &br); err != nil {
		return fmt.Errorf("sample counts: expected number or object: %w", err)
	}
	*s = Breakdown(br.Slippage, br.Monte, br.Features)
	return nil
}
