package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/nyra-ai/nyra/internal/metrics"
	"github.com/nyra-ai/nyra/internal/orchestrate"
)

// RenderStats renders the headline statistics panel
func RenderStats(s metrics.Summary) string {
	var sb strings.Builder

	sb.WriteString(Color(Bold+Cyan, "Statistics"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %-22s %d\n", "Total requests", s.TotalRequests))
	sb.WriteString(fmt.Sprintf("  %-22s %s\n", "Avg response time", formatDuration(s.AvgLatency)))
	sb.WriteString(fmt.Sprintf("  %-22s %d\n", "On-device operations", s.OnDevice))
	sb.WriteString(fmt.Sprintf("  %-22s %d\n", "Cloud operations", s.Cloud))
	sb.WriteString(fmt.Sprintf("  %-22s %s\n", "Failed", failedCount(s.Failed)))
	sb.WriteString(fmt.Sprintf("  %-22s $%.2f\n", "Estimated cost saved", s.CostSaved))
	sb.WriteString(fmt.Sprintf("  %-22s %.0f%%\n", "Privacy score", s.PrivacyScore))

	return sb.String()
}

func failedCount(n int) string {
	if n == 0 {
		return "0"
	}
	return Color(Red, fmt.Sprintf("%d", n))
}

// RenderToolUsage renders a horizontal bar per tool
func RenderToolUsage(tools []metrics.ToolSummary, barWidth int) string {
	var sb strings.Builder

	sb.WriteString(Color(Bold+Cyan, "API usage"))
	sb.WriteString("\n")
	if len(tools) == 0 {
		sb.WriteString(RenderDim("  no interactions yet"))
		sb.WriteString("\n")
		return sb.String()
	}

	peak := tools[0].Count
	for _, ts := range tools {
		if ts.Count > peak {
			peak = ts.Count
		}
	}
	for _, ts := range tools {
		filled := 0
		if peak > 0 {
			filled = ts.Count * barWidth / peak
		}
		bar := Color(Blue, strings.Repeat(BarFull, filled)) + Color(Dim, strings.Repeat(BarEmpty, barWidth-filled))
		sb.WriteString(fmt.Sprintf("  %-12s %s %d\n", ts.Tool, bar, ts.Count))
	}
	return sb.String()
}

// RenderActivityFeed renders the most recent interactions
func RenderActivityFeed(recs []orchestrate.Interaction, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(Color(Bold+Cyan, "Recent activity"))
	sb.WriteString("\n")
	if len(recs) == 0 {
		sb.WriteString(RenderDim("  nothing yet"))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, rec := range recs {
		dot := Color(StatusColor(string(rec.Status)), "●")
		sb.WriteString(fmt.Sprintf("  %s %s %s", dot, activityTitle(rec), RenderDim(Ago(now.Sub(rec.Timestamp)))))
		sb.WriteString("\n")
	}
	return sb.String()
}

func activityTitle(rec orchestrate.Interaction) string {
	name := string(rec.Tool)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	switch {
	case !rec.Success:
		return name + " - failed"
	case rec.Processing == orchestrate.ProcessingOnDevice:
		return name + " - on-device processing"
	default:
		return name + " - cloud processing"
	}
}

// Ago renders an elapsed duration the way an activity feed does
func Ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}
