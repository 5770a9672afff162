package report

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/voicetel/pcapgap/internal/gap"
)

type palette struct {
	header string
	cyan   string
	green  string
	warn   string
	fail   string
	bold   string
	reset  string
}

var colorPalette = palette{
	header: "\033[95m",
	cyan:   "\033[96m",
	green:  "\033[92m",
	warn:   "\033[93m",
	fail:   "\033[91m",
	bold:   "\033[1m",
	reset:  "\033[0m",
}

// Console renders reports for a terminal. Zero value writes to the given
// writer with colors enabled.
type Console struct {
	Out     io.Writer
	NoColor bool
}

func (c *Console) pal() palette {
	if c.NoColor {
		return palette{}
	}
	return colorPalette
}

const rule = "═══════════════════════════════════════════════════════════════"

func (c *Console) section(title string) {
	p := c.pal()
	fmt.Fprintf(c.Out, "%s%s%s%s\n", p.header, p.bold, rule, p.reset)
	fmt.Fprintf(c.Out, "%s%s  %s%s\n", p.header, p.bold, title, p.reset)
	fmt.Fprintf(c.Out, "%s%s%s%s\n\n", p.header, p.bold, rule, p.reset)
}

// Render writes the full results and statistics sections.
func (c *Console) Render(r *Report) {
	p := c.pal()
	np := message.NewPrinter(language.English)

	c.section("RESULTS")

	if len(r.Gaps) == 0 {
		fmt.Fprintf(c.Out, "%s✓ No gaps found exceeding %ss threshold%s\n\n",
			p.green, formatSeconds(r.Threshold), p.reset)
	} else {
		np.Fprintf(c.Out, "%sFound %d gap(s) exceeding %ss threshold:%s\n\n",
			p.warn, len(r.Gaps), formatSeconds(r.Threshold), p.reset)

		c.renderSummary(r)
		c.renderGaps(r)
	}

	c.section("STATISTICS")
	np.Fprintf(c.Out, "%sTotal packets processed:%s %d\n", p.green, p.reset, r.TotalPackets)
	fmt.Fprintf(c.Out, "%sProcessing time:%s %.2f seconds\n", p.green, p.reset, r.Elapsed.Seconds())
	if r.Elapsed > 0 {
		np.Fprintf(c.Out, "%sProcessing rate:%s %.0f packets/second\n",
			p.green, p.reset, float64(r.TotalPackets)/r.Elapsed.Seconds())
	}
	fmt.Fprintln(c.Out)
}

func (c *Console) renderSummary(r *Report) {
	p := c.pal()

	buckets := make(map[string]int)
	for _, g := range r.Gaps {
		buckets[categorize(g)]++
	}

	fmt.Fprintf(c.Out, "%sGap Summary:%s\n", p.bold, p.reset)
	for _, cat := range categoryOrder {
		if n := buckets[cat]; n > 0 {
			fmt.Fprintf(c.Out, "  %s: %d gap(s)\n", cat, n)
		}
	}
	fmt.Fprintln(c.Out)
}

func (c *Console) renderGaps(r *Report) {
	p := c.pal()

	fmt.Fprintf(c.Out, "%sDetailed Gap List (sorted by duration):%s\n\n", p.bold, p.reset)
	for i, g := range byDuration(r.Gaps) {
		color := p.warn
		if g.Backward || g.Duration.Seconds() > 3600 {
			color = p.fail
		}

		fmt.Fprintf(c.Out, "%sGap #%d:%s\n", color, i+1, p.reset)
		fmt.Fprintf(c.Out, "  Packets: %d → %d\n", g.StartIndex, g.EndIndex)
		fmt.Fprintf(c.Out, "  From: %s UTC\n", utcTimestamp(g.Start))
		fmt.Fprintf(c.Out, "  To:   %s UTC\n", utcTimestamp(g.End))
		if g.Backward {
			fmt.Fprintf(c.Out, "  Duration: %s (%.2f seconds) %s[clock regression]%s\n",
				gap.FormatDuration(g.Duration), g.Duration.Seconds(), p.fail, p.reset)
		} else {
			fmt.Fprintf(c.Out, "  Duration: %s (%.2f seconds)\n",
				gap.FormatDuration(g.Duration), g.Duration.Seconds())
		}
		fmt.Fprintln(c.Out)
	}
}
