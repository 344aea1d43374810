package play

import (
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/dopamind/internal/canvas"
)

// Theme is the colour set screens draw with.
type Theme struct {
	Name   string
	Bg     string
	Fg     string
	Muted  string
	Accent string
	Good   string
	Danger string
}

// Built-in themes.
var (
	Dark = Theme{
		Name:   "dark",
		Bg:     "#101418",
		Fg:     "#F0F0F0",
		Muted:  "#6E6E6E",
		Accent: "#C89A3A",
		Good:   "#7BD88F",
		Danger: "#FF4D4F",
	}
	Light = Theme{
		Name:   "light",
		Bg:     "#FAFAF7",
		Fg:     "#1F2328",
		Muted:  "#8C8C8C",
		Accent: "#9A6B00",
		Good:   "#1A7F37",
		Danger: "#CF222E",
	}
)

// ThemeByName returns the named theme. Unknown names fall back to Dark.
func ThemeByName(name string) Theme {
	if strings.EqualFold(name, Light.Name) {
		return Light
	}
	return Dark
}

// ValidTheme reports whether name is a built-in theme.
func ValidTheme(name string) bool {
	return name == Dark.Name || name == Light.Name
}

// Toggle returns the other built-in theme.
func (t Theme) Toggle() Theme {
	if t.Name == Light.Name {
		return Dark
	}
	return Light
}

// Blend mixes hex colour fg over the theme background with alpha in [0, 1].
func (t Theme) Blend(fg string, alpha float64) string {
	if alpha >= 1 {
		return fg
	}
	return Mix(t.Bg, fg, alpha)
}

// Mix interpolates between hex colours a and b. Unparseable input returns b.
func Mix(a, b string, t float64) string {
	t = math.Max(0, math.Min(1, t))
	from, err := canvas.ParseHex(a)
	if err != nil {
		return b
	}
	to, err := canvas.ParseHex(b)
	if err != nil {
		return b
	}
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-t) + float64(y)*t + 0.5)
	}
	return fmt.Sprintf("#%02X%02X%02X", lerp(from.R, to.R), lerp(from.G, to.G), lerp(from.B, to.B))
}
