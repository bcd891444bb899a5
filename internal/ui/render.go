package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RenderHeader displays the welcome panel shown by interactive commands
func RenderHeader(version, user, backendURL, runtime string) string {
	width := 78

	var sb strings.Builder

	titleText := fmt.Sprintf(" NYRA v%s ", version)
	titleLen := utf8.RuneCountInString(titleText)
	leftDashes := 3
	rightDashes := width - 2 - leftDashes - titleLen
	if rightDashes < 0 {
		rightDashes = 0
	}

	sb.WriteString(Color(Cyan, BoxTopLeft))
	sb.WriteString(Color(Cyan, strings.Repeat(BoxHorizontal, leftDashes)))
	sb.WriteString(Color(Cyan+Bold, titleText))
	sb.WriteString(Color(Cyan, strings.Repeat(BoxHorizontal, rightDashes)))
	sb.WriteString(Color(Cyan, BoxTopRight))
	sb.WriteString("\n")

	sb.WriteString(formatCenteredLine("", width))
	sb.WriteString(formatCenteredLine(Color(Bold, fmt.Sprintf("Welcome back %s!", user)), width))
	sb.WriteString(formatCenteredLine("", width))

	sb.WriteString(formatCenteredLine(Color(Magenta, "* ▐▛███▜▌ *"), width))
	sb.WriteString(formatCenteredLine(Color(Magenta, "* ▝▜█████▛▘ *"), width))
	sb.WriteString(formatCenteredLine(Color(Magenta, "*  ▘▘ ▝▝  *"), width))

	sb.WriteString(formatCenteredLine("", width))
	sb.WriteString(formatCenteredLine(Color(Bold+Cyan, "NYRA"), width))
	sb.WriteString(formatCenteredLine(Color(Dim, "hybrid on-device + cloud AI"), width))
	sb.WriteString(formatCenteredLine("", width))

	sb.WriteString(formatInfoLine("Backend", backendURL, width))
	sb.WriteString(formatInfoLine("On-device", runtime, width))

	sb.WriteString(Color(Cyan, BoxBottomLeft+strings.Repeat(BoxHorizontal, width-2)+BoxBottomRight))
	sb.WriteString("\n")

	return sb.String()
}

// formatCenteredLine creates a centered line within the box
func formatCenteredLine(text string, width int) string {
	var sb strings.Builder

	visibleLen := visibleLength(text)
	padding := (width - 2 - visibleLen) / 2
	rightPadding := width - 2 - padding - visibleLen
	if padding < 0 {
		padding = 0
	}
	if rightPadding < 0 {
		rightPadding = 0
	}

	sb.WriteString(Color(Cyan, BoxVertical))
	sb.WriteString(strings.Repeat(" ", padding))
	sb.WriteString(text)
	sb.WriteString(strings.Repeat(" ", rightPadding))
	sb.WriteString(Color(Cyan, BoxVertical))
	sb.WriteString("\n")

	return sb.String()
}

// visibleLength returns the visible length of a string, ignoring ANSI codes
func visibleLength(s string) int {
	inEscape := false
	visible := 0
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		visible++
	}
	return visible
}

func formatInfoLine(label, value string, width int) string {
	var sb strings.Builder

	value = truncate(value, width-len(label)-6)
	visibleLen := len(label) + utf8.RuneCountInString(value) + 3
	padding := width - 2 - visibleLen
	if padding < 0 {
		padding = 0
	}

	sb.WriteString(Color(Cyan, BoxVertical))
	sb.WriteString(" ")
	sb.WriteString(Color(Dim, label+":"))
	sb.WriteString(" ")
	sb.WriteString(value)
	sb.WriteString(strings.Repeat(" ", padding))
	sb.WriteString(Color(Cyan, BoxVertical))
	sb.WriteString("\n")

	return sb.String()
}

// RenderMessage formats a chat message with role styling
func RenderMessage(role, text string) string {
	switch role {
	case "user":
		return fmt.Sprintf("%s %s", Color(Bold+Green, "You:"), text)
	case "assistant":
		return fmt.Sprintf("%s %s", Color(Bold+Blue, "NYRA:"), text)
	case "system":
		return Color(Dim, text)
	default:
		return text
	}
}

// RenderHelpLines displays chat command hints
func RenderHelpLines() string {
	var sb strings.Builder

	sb.WriteString(Color(Dim, "  Commands: "))
	sb.WriteString("exit")
	sb.WriteString(Color(Dim, " | "))
	sb.WriteString("clear")
	sb.WriteString(Color(Dim, " | "))
	sb.WriteString("reset")
	sb.WriteString(Color(Dim, " (forget history)"))
	sb.WriteString("\n")
	sb.WriteString(Color(Dim, "  Press Ctrl+C to interrupt"))
	sb.WriteString("\n\n")

	return sb.String()
}

// RenderUserPrompt returns the styled "You: " prompt
func RenderUserPrompt() string {
	return Color(Bold+Green, "You: ")
}

// RenderAssistantPrefix returns the styled "NYRA: " prefix
func RenderAssistantPrefix() string {
	return Color(Bold+Blue, "NYRA: ")
}

// RenderError formats an error message
func RenderError(err error) string {
	return Color(Red, fmt.Sprintf("Error: %v", err))
}

// RenderSuccess formats a success message
func RenderSuccess(msg string) string {
	return Color(Green, msg)
}

// RenderDim formats text in dim style
func RenderDim(msg string) string {
	return Color(Dim, msg)
}

// RenderBadge formats a status tag such as "nano" or "pro"
func RenderBadge(status string) string {
	return Color(Bold+StatusColor(status), "["+strings.ToUpper(status)+"]")
}

// truncate shortens a string if it exceeds maxLen runes
func truncate(s string, maxLen int) string {
	if maxLen <= 3 {
		return s
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

// wrapText wraps text to fit within the specified width
func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}

	var lines []string
	var current string

	for _, word := range strings.Fields(s) {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(word)+1 > width {
			if current != "" {
				lines = append(lines, current)
			}
			current = truncate(word, width)
		} else {
			if current != "" {
				current += " "
			}
			current += word
		}
	}

	if current != "" {
		lines = append(lines, current)
	}

	return lines
}

// wrapBlock wraps each line of s independently, keeping blank lines and leading
// indentation (JSON bodies stay readable).
func wrapBlock(s string, width int) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}
		if utf8.RuneCountInString(line) <= width {
			out = append(out, line)
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
		for _, w := range wrapText(line, width-len(indent)) {
			out = append(out, indent+w)
		}
	}
	return out
}
