package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ResultCardOptions configures the result card display
type ResultCardOptions struct {
	Tool       string
	Status     string
	Processing string
	Duration   time.Duration
	Body       string
	Width      int
}

// RenderResultCard displays a tool result in a bordered card colored by status
func RenderResultCard(opts ResultCardOptions) string {
	width := opts.Width
	if width <= 0 {
		width = 78
	}
	border := StatusColor(opts.Status)

	var sb strings.Builder

	title := fmt.Sprintf(" %s ", strings.ToUpper(opts.Tool))
	topPadding := width - 4 - utf8.RuneCountInString(title)
	if topPadding < 0 {
		topPadding = 0
	}
	sb.WriteString(Color(border, BoxTopLeft+strings.Repeat(BoxHorizontal, 2)))
	sb.WriteString(Color(Bold+border, title))
	sb.WriteString(Color(border, strings.Repeat(BoxHorizontal, topPadding)+BoxTopRight))
	sb.WriteString("\n")

	for _, line := range metaLines(opts, width-4) {
		sb.WriteString(cardLine(line, width, border))
	}

	sb.WriteString(Color(border, BoxTeeRight+strings.Repeat(BoxHorizontal, width-2)+BoxTeeLeft))
	sb.WriteString("\n")

	for _, line := range wrapBlock(opts.Body, width-4) {
		sb.WriteString(cardLine(line, width, border))
	}

	sb.WriteString(Color(border, BoxBottomLeft+strings.Repeat(BoxHorizontal, width-2)+BoxBottomRight))
	sb.WriteString("\n")

	return sb.String()
}

// metaLines packs the status, processing and time fields into as few lines
// as fit within limit visible columns.
func metaLines(opts ResultCardOptions, limit int) []string {
	processing := truncate(opts.Processing, limit-len("Processing: "))
	fields := []string{
		Color(Dim, "Status:") + " " + RenderBadge(opts.Status),
		Color(Dim, "Processing:") + " " + processing,
	}
	if opts.Duration > 0 {
		fields = append(fields, Color(Dim, "Time:")+" "+formatDuration(opts.Duration))
	}

	var lines []string
	current := ""
	for _, f := range fields {
		switch {
		case current == "":
			current = f
		case visibleLength(current)+2+visibleLength(f) <= limit:
			current += "  " + f
		default:
			lines = append(lines, current)
			current = f
		}
	}
	return append(lines, current)
}

func cardLine(text string, width int, border string) string {
	padding := width - 3 - visibleLength(text)
	if padding < 0 {
		padding = 0
	}
	return Color(border, BoxVertical) + " " + text + strings.Repeat(" ", padding) + Color(border, BoxVertical) + "\n"
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
