package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/voicetel/pcapgap/internal/gap"
)

var base = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func mkGap(start int, at, dur time.Duration) gap.Gap {
	return gap.Gap{
		StartIndex: start,
		EndIndex:   start + 1,
		Start:      base.Add(at),
		End:        base.Add(at + dur),
		Duration:   dur,
		Backward:   dur < 0,
	}
}

func TestWriteCSV(t *testing.T) {
	rep := &Report{
		Threshold:    5 * time.Second,
		TotalPackets: 100,
		Gaps: []gap.Gap{
			mkGap(2, 2*time.Second, 8*time.Second),
			mkGap(50, time.Minute, 2*time.Hour),
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rep); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}

	wantHeader := "gap_number,packet_start,packet_end,timestamp_start_utc,timestamp_end_utc,gap_seconds,gap_duration"
	if lines[0] != wantHeader {
		t.Errorf("header mismatch:\n got %q\nwant %q", lines[0], wantHeader)
	}

	wantRow := "1,2,3,2025-03-14 09:26:55.000000,2025-03-14 09:27:03.000000,8.000000,8.0s"
	if lines[1] != wantRow {
		t.Errorf("row mismatch:\n got %q\nwant %q", lines[1], wantRow)
	}

	wantRow2 := "2,50,51,2025-03-14 09:27:53.000000,2025-03-14 11:27:53.000000,7200.000000,2.0h"
	if lines[2] != wantRow2 {
		t.Errorf("row mismatch:\n got %q\nwant %q", lines[2], wantRow2)
	}
}

func TestWriteCSV_AscendingPacketOrder(t *testing.T) {
	// CSV rows follow report order (ascending packet index), not the
	// console's duration sort.
	rep := &Report{
		Threshold: time.Second,
		Gaps: []gap.Gap{
			mkGap(1, 0, 2*time.Second),
			mkGap(5, 10*time.Second, 90*time.Second),
			mkGap(9, 3*time.Minute, 6*time.Second),
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rep); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, wantStart := range []string{"1,1,2,", "2,5,6,", "3,9,10,"} {
		if !strings.HasPrefix(lines[i+1], wantStart) {
			t.Errorf("row %d: got %q, want prefix %q", i+1, lines[i+1], wantStart)
		}
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		dur  time.Duration
		want string
	}{
		{10 * time.Second, catUnderMinute},
		{90 * time.Second, catUnderHour},
		{5 * time.Hour, catUnderDay},
		{48 * time.Hour, catOverDay},
		{-2 * time.Second, catBackward},
	}
	for _, tc := range cases {
		if got := categorize(mkGap(0, 0, tc.dur)); got != tc.want {
			t.Errorf("categorize(%v) = %q, want %q", tc.dur, got, tc.want)
		}
	}
}

func TestConsole_Render(t *testing.T) {
	rep := &Report{
		Threshold:    5 * time.Second,
		TotalPackets: 1234567,
		Elapsed:      2 * time.Second,
		Gaps: []gap.Gap{
			mkGap(2, 2*time.Second, 8*time.Second),
			mkGap(50, time.Minute, 2*time.Hour),
			mkGap(80, time.Hour, -time.Second),
		},
	}

	var buf bytes.Buffer
	c := &Console{Out: &buf, NoColor: true}
	c.Render(rep)
	out := buf.String()

	for _, want := range []string{
		"Found 3 gap(s) exceeding 5s threshold",
		"< 1 minute: 1 gap(s)",
		"1 hour - 1 day: 1 gap(s)",
		"clock regression: 1 gap(s)",
		"Packets: 50 → 51",
		"[clock regression]",
		"Total packets processed: 1,234,567",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q\noutput:\n%s", want, out)
		}
	}

	if strings.Contains(out, "\033[") {
		t.Error("NoColor output must not contain ANSI escapes")
	}

	// Duration sort: the 2h gap renders before the 8s gap.
	if strings.Index(out, "Packets: 50") > strings.Index(out, "Packets: 2 ") {
		t.Error("detailed list is not sorted by duration descending")
	}
}

func TestConsole_NoGaps(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{Out: &buf, NoColor: true}
	c.Render(&Report{Threshold: 2500 * time.Millisecond, TotalPackets: 10, Elapsed: time.Second})

	if !strings.Contains(buf.String(), "No gaps found exceeding 2.5s threshold") {
		t.Errorf("expected the no-gaps line, got:\n%s", buf.String())
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := formatSeconds(5 * time.Second); got != "5" {
		t.Errorf("formatSeconds(5s) = %q, want \"5\"", got)
	}
	if got := formatSeconds(2500 * time.Millisecond); got != "2.5" {
		t.Errorf("formatSeconds(2.5s) = %q, want \"2.5\"", got)
	}
}
