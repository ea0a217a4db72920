package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pkgtrend/pkg/alttext"
	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, upward trends
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors, downward trends
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleUp   = lipgloss.NewStyle().Foreground(colorGreen)
	styleDown = lipgloss.NewStyle().Foreground(colorRed)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconUp      = "↑"
	iconDown    = "↓"
	iconFlat    = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints series statistics on a single line.
func printStats(days, reported int, total int64, cached bool) {
	parts := []string{
		fmt.Sprintf("%d days", days),
		fmt.Sprintf("%d reported", reported),
		alttext.DefaultFormatter(float64(total)) + " downloads",
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line + StyleDim.Render(" · ") + statusStyle.Render(status))
}

// printAnalysis prints the summary statistics and classification of a.
func printAnalysis(a trend.Analysis) {
	num := func(v float64) string { return StyleNumber.Render(formatFloat(v)) }
	optional := func(v *float64) string {
		if v == nil {
			return StyleDim.Render("n/a")
		}
		return StyleNumber.Render(fmt.Sprintf("%.3f", *v))
	}

	printKeyValue("Observations", fmt.Sprint(a.Observations))
	printKeyValue("Mean", num(a.Mean))
	printKeyValue("Std dev", num(a.StandardDeviation))
	printKeyValue("CoV", optional(a.CoefficientOfVariation))
	printKeyValue("Slope", slopeIcon(a.Slope)+" "+num(a.Slope))
	printKeyValue("R²", optional(a.RSquared))
	printKeyValue("Trend", string(a.Trend))
	printKeyValue("Volatility", string(a.Volatility))
}

// printBuckets prints one line per bucket with a proportional bar.
func printBuckets(buckets []trend.Bucket) {
	const barWidth = 30
	var peak float64
	labelWidth := 0
	for _, b := range buckets {
		peak = max(peak, b.Total)
		labelWidth = max(labelWidth, len(bucketLabel(b)))
	}
	labelStyle := lipgloss.NewStyle().Foreground(colorGray).Width(labelWidth)
	for _, b := range buckets {
		n := 0
		if peak > 0 {
			n = int(b.Total / peak * barWidth)
		}
		line := "  " + labelStyle.Render(bucketLabel(b)) + " " +
			styleIconSpinner.Render(strings.Repeat("█", n)) + " " +
			StyleNumber.Render(formatFloat(b.Total))
		if len(buckets) > 1 && b.Days < buckets[0].Days {
			line += " " + StyleDim.Render(fmt.Sprintf("(%d days)", b.Days))
		}
		fmt.Println(line)
	}
}

func bucketLabel(b trend.Bucket) string {
	if b.PeriodStart == b.PeriodEnd {
		return b.PeriodStart
	}
	return b.PeriodStart + " – " + b.PeriodEnd
}

func slopeIcon(slope float64) string {
	switch {
	case slope > 0:
		return styleUp.Render(iconUp)
	case slope < 0:
		return styleDown.Render(iconDown)
	default:
		return StyleDim.Render(iconFlat)
	}
}

// formatFloat formats v with grouping and one decimal for fractions.
func formatFloat(v float64) string {
	return alttext.DefaultFormatter(v)
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
