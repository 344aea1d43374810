package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	defaultChartHeight  = 8
	minChartWidth       = 10
	terminalWidthBackup = 80
)

var barLevels = []rune(" ▁▂▃▄▅▆▇█")

// RenderScoreChart prints a column chart of values, resampled to width columns. A width of
// zero fits the terminal.
func RenderScoreChart(w io.Writer, title string, values []float64, width, height int, forceColor bool) error {
	if len(values) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	minVal, maxVal := minMax(values)
	if minVal > 0 {
		minVal = 0
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		maxVal = minVal + 1
	}
	top := fmt.Sprintf("%.0f", maxVal)
	bottom := fmt.Sprintf("%.0f", minVal)
	axisWidth := max(displayWidth(top), displayWidth(bottom))
	if width <= 0 {
		width = ChartWidthFor(terminalWidth(), axisWidth)
	}
	if width < minChartWidth {
		width = minChartWidth
	}
	cols := resample(values, width)

	color := shouldUseColor(w, forceColor)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	lines := []string{title}
	steps := len(barLevels) - 1
	for row := height - 1; row >= 0; row-- {
		var b strings.Builder
		for _, v := range cols {
			fill := (v - minVal) / (maxVal - minVal) * float64(height*steps)
			level := int(math.Round(fill)) - row*steps
			if level < 0 {
				level = 0
			}
			if level > steps {
				level = steps
			}
			b.WriteRune(barLevels[level])
		}
		label := ""
		switch row {
		case height - 1:
			label = top
		case 0:
			label = bottom
		}
		bars := b.String()
		if color {
			bars = style.Render(bars)
		}
		lines = append(lines, padCell(label, axisWidth, true)+" │ "+bars)
	}
	lines = append(lines, "")
	return writeLines(w, lines)
}

// ChartWidthFor returns the column count that fits totalWidth next to an axis label.
func ChartWidthFor(totalWidth, axisWidth int) int {
	if totalWidth <= 0 {
		return minChartWidth
	}
	width := totalWidth - axisWidth - 3
	if width < minChartWidth {
		width = minChartWidth
	}
	return width
}

// resample averages values into width buckets. Short series are left as is.
func resample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
