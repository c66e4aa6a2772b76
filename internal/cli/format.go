package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// fatih/color disables these automatically when stdout is not a TTY
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
)

// printer writes human-readable command output.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

// Section prints a section header
func (p *printer) Section(title string) {
	_, _ = fmt.Fprintln(p.w)
	_, _ = headerColor.Fprintf(p.w, "▸ %s\n", title)
	_, _ = fmt.Fprintln(p.w)
}

// Success prints a success message with a checkmark
func (p *printer) Success(msg string) {
	_, _ = successColor.Fprintf(p.w, "✓ %s\n", msg)
}

// Warning prints a warning message with a warning symbol
func (p *printer) Warning(msg string) {
	_, _ = warningColor.Fprintf(p.w, "⚠ %s\n", msg)
}

// Info prints an informational message
func (p *printer) Info(msg string) {
	_, _ = fmt.Fprintln(p.w, msg)
}

// LabelValue prints a label-value pair
func (p *printer) LabelValue(label, value string) {
	p.LabelValueWithColor(label, value, valueColor)
}

// LabelValueWithColor prints a label-value pair with a custom value color
func (p *printer) LabelValueWithColor(label, value string, valueClr *color.Color) {
	_, _ = labelColor.Fprintf(p.w, "  %s: ", label)
	_, _ = valueClr.Fprintln(p.w, value)
}

// List prints a list of items with bullet points
func (p *printer) List(items []string, indent int) {
	indentStr := strings.Repeat("  ", indent)
	for _, item := range items {
		_, _ = infoColor.Fprintf(p.w, "%s• %s\n", indentStr, item)
	}
}

// Block prints multi-line text indented under the current section.
func (p *printer) Block(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		_, _ = fmt.Fprintf(p.w, "  %s\n", line)
	}
}

// EmptyState prints a message when there's no data to show
func (p *printer) EmptyState(msg string) {
	_, _ = dimColor.Fprintf(p.w, "  %s\n", msg)
}

// PrintCount formats a count with the singular or plural noun.
func PrintCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
