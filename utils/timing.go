package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// TimingStats holds timing information for an inference run
type TimingStats struct {
	TotalTime       time.Duration
	LoadTime        time.Duration
	PreprocessTime  time.Duration
	ForwardPassTime time.Duration
	SoftmaxTime     time.Duration
}

func percent(part, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// PrintTimingStats prints timing statistics for samples predictions.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats, samples int) {
	if !Verbose {
		return
	}
	if samples <= 0 {
		samples = 1
	}
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total time: %v\n", stats.TotalTime)
	fmt.Fprintf(Output, "Samples: %d\n", samples)
	fmt.Fprintln(Output, "\nBreakdown by operation:")
	fmt.Fprintf(Output, "  Weight loading: %v (%.1f%%)\n", stats.LoadTime, percent(stats.LoadTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Preprocessing: %v (%.1f%%)\n", stats.PreprocessTime, percent(stats.PreprocessTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Forward pass: %v (%.1f%%)\n", stats.ForwardPassTime, percent(stats.ForwardPassTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Softmax: %v (%.1f%%)\n", stats.SoftmaxTime, percent(stats.SoftmaxTime, stats.TotalTime))
	fmt.Fprintln(Output, "\nPer sample:")
	fmt.Fprintf(Output, "  Average forward pass: %.1fµs\n", DurationUS(stats.ForwardPassTime)/float64(samples))
	fmt.Fprintf(Output, "  Average preprocessing: %.1fµs\n", DurationUS(stats.PreprocessTime)/float64(samples))
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
