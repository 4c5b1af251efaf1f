package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// SetNoColor disables colour output when off is true. Terminal detection
// still applies otherwise.
func SetNoColor(off bool) {
	if off {
		color.NoColor = true
	}
}

// PrintLogo renders the colored critpath banner to w.
func PrintLogo(w io.Writer) {
	frame := color.New(color.FgCyan)
	bars := color.New(color.FgYellow)
	slack := color.New(color.FgCyan, color.Faint)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	bars.Fprintln(w, "   |  ####                    |")
	slack.Fprintln(w, "   |      ######....          |")
	bars.Fprintln(w, "   |            #######       |")
	brand.Fprintln(w, "   |  C R I T P A T H         |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintf(w, "   %s Working-day critical path scheduling\n", Dim("⚡"))
	fmt.Fprintln(w)
}

// taskColors is a palette of distinct bold colors for differentiating tasks.
var taskColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// taskColorIndex hashes a task ID to a palette index.
func taskColorIndex(taskID string) int {
	var h uint32
	for _, c := range taskID {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(taskColors)))
}

// TaskPrefix returns a colored [task-id] prefix string.
// Each task ID gets a distinct color from the palette.
func TaskPrefix(taskID string) string {
	c := taskColors[taskColorIndex(taskID)]
	return Dim("[") + c(taskID) + Dim("]")
}

// CriticalIcon marks critical tasks in compact listings.
func CriticalIcon(critical bool) string {
	if critical {
		return BoldYellow("⚡")
	}
	return " "
}

// FloatLabel renders a total float value: red when negative, yellow at zero,
// dim otherwise.
func FloatLabel(float int) string {
	s := fmt.Sprintf("%d", float)
	switch {
	case float < 0:
		return BoldRed(s)
	case float == 0:
		return Yellow(s)
	default:
		return Dim(s)
	}
}

// WaveLabel returns a colored wave marker.
func WaveLabel(critical bool) string {
	if critical {
		return BoldYellow("critical")
	}
	return Dim("slack")
}
