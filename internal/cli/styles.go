// Package cli holds the terminal styles and message helpers of the celt
// command.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared with the progress UI.
var (
	Teal  = lipgloss.Color("#2AA198")
	Cyan  = lipgloss.Color("#5FD7FF")
	Amber = lipgloss.Color("#FFB000")
	Red   = lipgloss.Color("#DC322F")
	Green = lipgloss.Color("#00AA00")
	Muted = lipgloss.Color("#888888")
	White = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Teal)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Amber).
			MarginTop(1)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Green)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Red)

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Amber)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Muted)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(White)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Teal).
			Padding(0, 2)
)

// Output streams, replaceable in tests.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func PrintError(message string) {
	fmt.Fprintf(Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

func PrintWarning(message string) {
	fmt.Fprintf(Stderr, "%s %s\n", WarningStyle.Render("Warning:"), message)
}

func PrintSuccess(message string) {
	fmt.Fprintf(Stdout, "%s %s\n", SuccessStyle.Render("✓"), message)
}

// PrintInfo prints one key: value line.
func PrintInfo(key, value string) {
	fmt.Fprintf(Stdout, "%s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}

func PrintSection(title string) {
	fmt.Fprintln(Stdout, HeaderStyle.Render(title))
}

// Field is one row of a summary box.
type Field struct {
	Key, Value string
}

// PrintSummary prints a titled box of aligned key/value rows.
func PrintSummary(title string, fields []Field) {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Key))
	}
	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	for _, f := range fields {
		b.WriteString("\n")
		b.WriteString(KeyStyle.Render(fmt.Sprintf("%-*s", width+1, f.Key+":")))
		b.WriteString(" ")
		b.WriteString(ValueStyle.Render(f.Value))
	}
	fmt.Fprintln(Stdout, BoxStyle.Render(b.String()))
}

// FormatDuration formats a duration with millisecond resolution below one
// second and tenths above.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", d.Seconds()*1000)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatBytes formats a byte count with binary prefixes.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatBitrate formats the average bitrate of bytes spread over d.
func FormatBitrate(bytes int64, d time.Duration) string {
	if d <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f kbit/s", float64(bytes)*8/d.Seconds()/1000)
}

// FormatSpeed formats a processing speed relative to real time.
func FormatSpeed(audio, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1fx realtime", float64(audio)/float64(elapsed))
}
