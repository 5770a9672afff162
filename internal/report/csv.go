package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/voicetel/pcapgap/internal/gap"
)

// csvHeader is a fixed contract; downstream tooling keys on these exact
// columns in this exact order.
var csvHeader = []string{
	"gap_number",
	"packet_start",
	"packet_end",
	"timestamp_start_utc",
	"timestamp_end_utc",
	"gap_seconds",
	"gap_duration",
}

// WriteCSV writes the report's gaps in ascending packet order.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, g := range r.Gaps {
		row := []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", g.StartIndex),
			fmt.Sprintf("%d", g.EndIndex),
			utcTimestamp(g.Start),
			utcTimestamp(g.End),
			fmt.Sprintf("%.6f", g.Duration.Seconds()),
			gap.FormatDuration(g.Duration),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the report to a new file at path.
func ExportCSV(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}

	if err := WriteCSV(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
