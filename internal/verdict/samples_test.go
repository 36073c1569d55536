package verdict

import (
	"encoding/json"
	"testing"
)

func TestSampleCounts_MarshalBareCount(t *testing.T) {
	b, err := json.Marshal(Count(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "42" {
		t.Fatalf("expected bare number, got %s", b)
	}
}

func TestSampleCounts_MarshalBreakdown(t *testing.T) {
	b, err := json.Marshal(Breakdown(120, 400, 500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"slippage":120,"monte":400,"features":500}`
	if string(b) != want {
		t.Fatalf("expected %s, got %s", want, b)
	}
}

func TestSampleCounts_UnmarshalBothShapes(t *testing.T) {
	var bare SampleCounts
	if err := json.Unmarshal([]byte("42"), &bare); err != nil {
		t.Fatalf("bare: %v", err)
	}
	if bare.IsBreakdown() || bare.Total() != 42 {
		t.Fatalf("expected bare count 42, got %+v", bare)
	}

	var br SampleCounts
	if err := json.Unmarshal([]byte(`{"slippage":120,"monte":400,"features":500}`), &br); err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if !br.IsBreakdown() {
		t.Fatal("expected breakdown shape")
	}
	s, m, f := br.Counts()
	if s != 120 || m != 400 || f != 500 {
		t.Fatalf("unexpected counts: %d %d %d", s, m, f)
	}

	var bad SampleCounts
	if err := json.Unmarshal([]byte(`"nope"`), &bad); err == nil {
		t.Fatal("expected error for string input")
	}
}

func TestSampleCounts_TotalAndMin(t *testing.T) {
	br := Breakdown(120, 400, 500)
	if br.Total() != 1020 {
		t.Fatalf("expected total 1020, got %d", br.Total())
	}
	if br.Min() != 120 {
		t.Fatalf("expected min 120, got %d", br.Min())
	}
	c := Count(7)
	if c.Total() != 7 || c.Min() != 7 {
		t.Fatalf("bare count: total=%d min=%d", c.Total(), c.Min())
	}
}
