package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// timingStyles holds the lipgloss styles used when rendering a report to a
// terminal. A nil *timingStyles falls back to plain text.
type timingStyles struct {
	Keyword lipgloss.Style
	Dim     lipgloss.Style
	Warning lipgloss.Style
}

// formatTimingTree outputs the timing tree in a hierarchical format.
// Example output:
//
//	evaluate: 125ms
//	├─ expand: 85ms
//	│  ├─ resolve-dates: 45ms
//	│  └─ resolve-expressions: 5ms
//	└─ accrue: 40ms
func formatTimingTree(w io.Writer, root *timerNode, stylesInterface interface{}) {
	styles, _ := stylesInterface.(*timingStyles)

	duration := root.end.Sub(root.start)

	if styles != nil {
		name := styles.Keyword.Render(root.name)
		timing := formatDuration(duration, false)
		_, _ = fmt.Fprintf(w, "%s: %s\n", name, timing)
	} else {
		_, _ = fmt.Fprintf(w, "%s: %s\n", root.name, formatDuration(duration, false))
	}

	for i, child := range root.children {
		isLast := i == len(root.children)-1
		formatNode(w, child, "", isLast, styles)
	}
}

// formatNode recursively formats a node and its children.
func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool, styles *timingStyles) {
	duration := node.end.Sub(node.start)

	isSlowOperation := duration >= 100*time.Millisecond

	var branch, extension string
	if isLast {
		branch = "└─ "
		extension = "   "
	} else {
		branch = "├─ "
		extension = "│  "
	}

	if styles != nil {
		treeChars := styles.Dim.Render(prefix + branch)
		timing := formatDuration(duration, isSlowOperation)
		if isSlowOperation {
			timing = styles.Warning.Render(timing)
		} else {
			timing = styles.Dim.Render(timing)
		}
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", treeChars, node.name, timing)
	} else {
		_, _ = fmt.Fprintf(w, "%s%s%s: %s\n", prefix, branch, node.name, formatDuration(duration, false))
	}

	childPrefix := prefix + extension
	for i, child := range node.children {
		childIsLast := i == len(node.children)-1
		formatNode(w, child, childPrefix, childIsLast, styles)
	}
}

// formatDuration formats a duration for display.
// Shows milliseconds for < 1s, seconds for >= 1s.
// The isSlowOperation parameter is for future use (currently unused but kept for API consistency).
func formatDuration(d time.Duration, isSlowOperation bool) string {
	if d < time.Second {
		ms := float64(d) / float64(time.Millisecond)
		return fmt.Sprintf("%.0fms", ms)
	}
	s := float64(d) / float64(time.Second)
	return fmt.Sprintf("%.2fs", s)
}
