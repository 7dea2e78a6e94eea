// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/profile-enricher/internal/resolve"
	"github.com/jonathan/profile-enricher/internal/topics"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunReport outputs a human-readable summary of a resolution run.
func (p *Printer) PrintRunReport(report *resolve.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Resolved:         %d\n", report.Resolved))
	sb.WriteString(fmt.Sprintf("Skipped:          %d\n", report.Skipped))
	sb.WriteString(fmt.Sprintf("Failed:           %d\n", report.Failed))
	if report.Pending > 0 {
		sb.WriteString(fmt.Sprintf("Still pending:    %d\n", report.Pending))
	}
	if report.AlreadyResolved > 0 {
		sb.WriteString(fmt.Sprintf("Already resolved: %d\n", report.AlreadyResolved))
	}
	sb.WriteString(fmt.Sprintf("Matches stored:   %d\n", report.Matches))

	if report.TopicStats.TokensSeen > 0 {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Topic tokens:     %d seen, %d resolved\n",
			report.TopicStats.TokensSeen, report.TopicStats.TokensResolved))
	}

	p.printBox("RESOLUTION RUN", strings.TrimRight(sb.String(), "\n"))
}

// PrintTopicReport outputs per-handle canonical topics plus the alias
// coverage stats, so operators can judge alias-table coverage.
func (p *Printer) PrintTopicReport(byHandle map[string][]string, stats topics.Stats, conflicts []topics.ConflictError) {
	var sb strings.Builder

	handles := make([]string, 0, len(byHandle))
	for handle := range byHandle {
		handles = append(handles, handle)
	}
	sort.Strings(handles)

	count := len(handles)
	if count > maxItemsToShow {
		count = maxItemsToShow
	}
	for _, handle := range handles[:count] {
		sb.WriteString(fmt.Sprintf("%s: %s\n", handle, strings.Join(byHandle[handle], ", ")))
	}
	if len(handles) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(handles)-maxItemsToShow))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Tokens:    %d seen, %d resolved\n", stats.TokensSeen, stats.TokensResolved))
	if len(conflicts) > 0 {
		sb.WriteString(fmt.Sprintf("Conflicts: %d alias entries kept first-seen\n", len(conflicts)))
	}

	p.printBox("TOPIC CANONICALIZATION", strings.TrimRight(sb.String(), "\n"))
}
