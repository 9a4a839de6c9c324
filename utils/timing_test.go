package utils

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func TestDurationUS(t *testing.T) {
	d := 1234*time.Microsecond + 567*time.Nanosecond
	got := DurationUS(d)
	if math.Abs(got-1234.567) > 0.001 {
		t.Fatalf("want 1234.567µs, got %.3f", got)
	}
}

func TestPrintTimingStatsRespectsVerbose(t *testing.T) {
	oldVerbose, oldOutput := Verbose, Output
	defer func() { Verbose, Output = oldVerbose, oldOutput }()

	var buf bytes.Buffer
	Output = &buf
	stats := &TimingStats{TotalTime: 10 * time.Millisecond, ForwardPassTime: 5 * time.Millisecond}

	Verbose = false
	PrintTimingStats(stats, 2)
	if buf.Len() != 0 {
		t.Fatalf("expected no output when Verbose is false, got %q", buf.String())
	}

	Verbose = true
	PrintTimingStats(stats, 2)
	out := buf.String()
	if !strings.Contains(out, "Forward pass: 5ms (50.0%)") {
		t.Fatalf("missing forward breakdown in %q", out)
	}
	if !strings.Contains(out, "Average forward pass: 2500.0µs") {
		t.Fatalf("missing per-sample average in %q", out)
	}
}
