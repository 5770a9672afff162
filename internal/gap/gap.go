// Package gap holds the timestamp gap model and the per-batch scan.
package gap

import (
	"fmt"
	"time"
)

// Record is one packet's position in the capture: its 0-based index in
// file order and its capture timestamp. Indices are strictly increasing;
// timestamps are not assumed monotonic.
type Record struct {
	Index     int
	Timestamp time.Time
}

// Gap is an interval between two index-adjacent packets. EndIndex is
// always StartIndex+1. Backward is set when the capture clock moved
// backward between the two packets (Duration is negative in that case);
// such records indicate capture corruption and are reported rather than
// dropped.
type Gap struct {
	StartIndex int
	EndIndex   int
	Start      time.Time
	End        time.Time
	Duration   time.Duration
	Backward   bool
}

// Between applies the detection criterion to two index-adjacent records.
// It reports a gap when the elapsed time exceeds threshold, or a backward
// gap when the clock regressed.
func Between(prev, next Record, threshold time.Duration) (Gap, bool) {
	d := next.Timestamp.Sub(prev.Timestamp)
	if d <= threshold && d >= 0 {
		return Gap{}, false
	}

	return Gap{
		StartIndex: prev.Index,
		EndIndex:   next.Index,
		Start:      prev.Timestamp,
		End:        next.Timestamp,
		Duration:   d,
		Backward:   d < 0,
	}, true
}

// ScanBatch walks a batch once and returns every gap between adjacent
// records, in index order. Batches with fewer than two records produce
// nothing; their seams with neighboring batches are checked separately.
func ScanBatch(b Batch, threshold time.Duration) []Gap {
	var gaps []Gap
	for i := 1; i < len(b.Records); i++ {
		if g, ok := Between(b.Records[i-1], b.Records[i], threshold); ok {
			gaps = append(gaps, g)
		}
	}
	return gaps
}

// FormatDuration renders a duration the way the console and CSV show it:
// one decimal of the largest unit that fits (s, m, h, d).
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	neg := ""
	if secs < 0 {
		neg = "-"
		secs = -secs
	}

	switch {
	case secs < 60:
		return fmt.Sprintf("%s%.1fs", neg, secs)
	case secs < 3600:
		return fmt.Sprintf("%s%.1fm", neg, secs/60)
	case secs < 86400:
		return fmt.Sprintf("%s%.1fh", neg, secs/3600)
	default:
		return fmt.Sprintf("%s%.1fd", neg, secs/86400)
	}
}
