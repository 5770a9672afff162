// Package report renders a finished gap scan for people and for CSV
// consumers.
package report

import (
	"sort"
	"strconv"
	"time"

	"github.com/voicetel/pcapgap/internal/gap"
)

// Report is the run's durable output: every detected gap ordered by
// ascending start index. Gap numbers are positional, 1..N.
type Report struct {
	RunID        string
	File         string
	Threshold    time.Duration
	TotalPackets int
	Gaps         []gap.Gap
	Elapsed      time.Duration
}

// Category buckets, largest first so the summary reads worst-to-best.
const (
	catUnderMinute = "< 1 minute"
	catUnderHour   = "1 min - 1 hour"
	catUnderDay    = "1 hour - 1 day"
	catOverDay     = "> 1 day"
	catBackward    = "clock regression"
)

var categoryOrder = []string{catBackward, catOverDay, catUnderDay, catUnderHour, catUnderMinute}

func categorize(g gap.Gap) string {
	if g.Backward {
		return catBackward
	}
	switch d := g.Duration.Seconds(); {
	case d < 60:
		return catUnderMinute
	case d < 3600:
		return catUnderHour
	case d < 86400:
		return catUnderDay
	default:
		return catOverDay
	}
}

// byDuration returns the gaps re-sorted longest first, for display.
// Backward gaps sort by magnitude alongside forward ones.
func byDuration(gaps []gap.Gap) []gap.Gap {
	sorted := make([]gap.Gap, len(gaps))
	copy(sorted, gaps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return absDuration(sorted[i].Duration) > absDuration(sorted[j].Duration)
	})
	return sorted
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// utcTimestamp is the CSV and console timestamp form, microsecond
// precision in UTC.
func utcTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.000000")
}

// formatSeconds prints a threshold without trailing zeros, so "5" not
// "5.000000".
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
