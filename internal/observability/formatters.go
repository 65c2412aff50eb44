// Package observability provides the operator-facing progress output and logger setup.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/novamedix/catalog-images/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxNameWidth truncates product names in progress lines
	maxNameWidth = 40
)

// Progress markers.
const (
	markFound    = "✅"
	markNotFound = "❌"
	markReused   = "♻"
)

// Printer handles formatted output for progress and summaries
type Printer struct {
	out    io.Writer
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		cyan:   color.New(color.FgCyan),
	}
}

// DisableColor turns off ANSI colors regardless of the terminal.
func (p *Printer) DisableColor() {
	for _, c := range []*color.Color{p.green, p.red, p.yellow, p.cyan} {
		c.DisableColor()
	}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProgress outputs one line per completed item: [i/N] name → "key" marker.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(done, total int, result types.ResolutionResult) {
	fmt.Fprintf(p.out, "[%d/%d] %s → %q ", done, total, truncate(result.Name, maxNameWidth), result.SearchKey)
	switch {
	case result.Source == types.SourceInternalReuse:
		p.cyan.Fprintln(p.out, markReused)
	case result.Found():
		p.green.Fprintln(p.out, markFound)
	default:
		p.red.Fprintln(p.out, markNotFound)
	}
}

// PrintReused outputs the reuse phase results, one line each.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintReused(results []types.ResolutionResult) {
	if len(results) == 0 {
		return
	}
	p.cyan.Fprintf(p.out, "%s %d products reuse an existing image\n", markReused, len(results))
	for i, r := range results {
		p.PrintProgress(i+1, len(results), r)
	}
}

// PrintSummary outputs the end-of-run summary box.
func (p *Printer) PrintSummary(report types.RunReport) {
	var sb strings.Builder

	title := "RUN SUMMARY"
	if report.DryRun {
		title += " (DRY RUN)"
	}

	sb.WriteString(fmt.Sprintf("Run:          %s\n", report.RunID))
	if report.Cleared > 0 {
		sb.WriteString(fmt.Sprintf("Cleared:      %d\n", report.Cleared))
	}
	sb.WriteString(fmt.Sprintf("Reused:       %d\n", report.Reused))
	sb.WriteString(fmt.Sprintf("Processed:    %d\n", report.Processed))
	sb.WriteString(fmt.Sprintf("Found:        %d\n", report.Found))
	sb.WriteString(fmt.Sprintf("Not found:    %d\n", report.NotFound))
	if report.Exhausted > 0 {
		sb.WriteString(fmt.Sprintf("  search errors: %d\n", report.Exhausted))
	}
	if report.Unresolved > 0 {
		sb.WriteString(fmt.Sprintf("  empty keys:    %d\n", report.Unresolved))
	}
	sb.WriteString(fmt.Sprintf("Unpersisted:  %d\n", report.Unpersisted))
	if report.ActiveTotal > 0 {
		pct := float64(report.WithImage) / float64(report.ActiveTotal) * 100
		sb.WriteString(fmt.Sprintf("Coverage:     %d/%d (%.1f%%)\n", report.WithImage, report.ActiveTotal, pct))
	}
	if report.LogPath != "" {
		sb.WriteString(fmt.Sprintf("Log:          %s\n", report.LogPath))
	}

	p.printBox(title, sb.String())

	if report.Unpersisted > 0 {
		p.yellow.Fprintf(p.out, "⚠ %d found images were not saved\n", report.Unpersisted) //nolint:errcheck
	}
}

// PrintKeys outputs name → key pairs for the normalize command.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintKeys(names, keys []string) {
	for i, name := range names {
		fmt.Fprintf(p.out, "%s → ", name)
		p.green.Fprintf(p.out, "%q\n", keys[i])
	}
}

// PrintCandidates outputs the chosen image and every candidate returned for a query.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCandidates(query, chosen, reason string, candidates []types.ImageCandidate) {
	var sb strings.Builder
	if chosen == "" {
		sb.WriteString("No image selected\n")
	} else {
		sb.WriteString(fmt.Sprintf("Selected (%s):\n", reason))
		sb.WriteString(fmt.Sprintf("  %s\n", chosen))
	}
	if len(candidates) > 0 {
		sb.WriteString("\nCandidates:\n")
		for i, c := range candidates {
			sb.WriteString(fmt.Sprintf("  %d. %s (%dx%d)\n", i+1, c.SourceDomain, c.Width, c.Height))
		}
	}
	p.printBox(query, sb.String())

	if chosen != "" {
		fmt.Fprintln(p.out, chosen)
	}
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
