// Package ui prints human-facing CLI output.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/dvloznov/ledger-sync/internal/domain"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

// Printer writes colored output to Out.
type Printer struct {
	Out io.Writer
	Now func() time.Time
}

// NewPrinter returns a printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{Out: w, Now: time.Now}
}

// Header prints a formatted header
func (p *Printer) Header(text string) {
	line := strings.Repeat("=", 60)
	green.Fprintf(p.Out, "%s\n", line)
	green.Fprintf(p.Out, "%s\n", center(text, 60))
	green.Fprintf(p.Out, "%s\n", line)
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	green.Fprintf(p.Out, "  → %s\n", fmt.Sprintf(format, args...))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.Out, "  → %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	yellow.Fprintf(p.Out, "  ⚠ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	red.Fprintf(p.Out, "Error: %s\n", fmt.Sprintf(format, args...))
}

// History prints entries as a table, one line per run.
func (p *Printer) History(entries []domain.HistoryEntry) {
	if len(entries) == 0 {
		p.Info("No runs recorded")
		return
	}

	bold.Fprintf(p.Out, "%-20s  %-25s  %-7s  %6s  %s\n", "ACCOUNT", "DATE", "STATUS", "NEW", "WHEN")
	now := p.Now()
	for _, e := range entries {
		status := green.Sprint("ok")
		if !e.Success {
			status = red.Sprint("failed")
		}
		count := "-"
		if e.Amount != nil {
			count = humanize.Comma(int64(*e.Amount))
		}
		fmt.Fprintf(p.Out, "%-20s  %-25s  %-7s  %6s  %s\n",
			e.Title,
			e.Date.Format(time.RFC3339),
			status,
			count,
			humanize.RelTime(e.Date, now, "ago", "from now"),
		)
	}
}

// center centers text within a given width
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
