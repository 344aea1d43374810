package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestChartWidthFor(t *testing.T) {
	if got := ChartWidthFor(80, 3); got != 74 {
		t.Fatalf("expected 74, got %d", got)
	}
	if got := ChartWidthFor(8, 3); got != minChartWidth {
		t.Fatalf("expected min width, got %d", got)
	}
	if got := ChartWidthFor(0, 3); got != minChartWidth {
		t.Fatalf("expected min width, got %d", got)
	}
}

func TestResample(t *testing.T) {
	got := resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected resample: %v", got)
	}
	short := []float64{1, 2}
	if got := resample(short, 10); len(got) != 2 {
		t.Fatalf("expected short series unchanged, got %v", got)
	}
}

func TestRenderScoreChart(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderScoreChart(&buf, "Scores", []float64{0, 10}, 10, 2, false); err != nil {
		t.Fatalf("render chart: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[0] != "Scores" {
		t.Fatalf("unexpected title: %q", lines[0])
	}
	if lines[1] != "10 │  █" {
		t.Fatalf("unexpected top row: %q", lines[1])
	}
	if lines[2] != " 0 │  █" {
		t.Fatalf("unexpected bottom row: %q", lines[2])
	}
}
