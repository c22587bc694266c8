package analytics

import (
	"fmt"
	"math"
)

// Color schemes accepted by the activity mapper
const (
	SchemeHeatmap   = "heatmap"
	SchemeActivity  = "activity"
	SchemeGrayscale = "grayscale"
)

func validScheme(scheme string) bool {
	switch scheme {
	case SchemeHeatmap, SchemeActivity, SchemeGrayscale:
		return true
	}
	return false
}

// scoreToColor maps a normalized activity score in [0,100] to a hex color
// under the given scheme
func scoreToColor(score float64, scheme string) string {
	var h, s, l float64
	switch scheme {
	case SchemeActivity:
		h = 240 - 2.4*score
		if h < 0 {
			h += 360
		}
		s = 70 + 0.3*score
		l = 50 - 0.15*score
	case SchemeGrayscale:
		h = 0
		s = 0
		l = score
	default: // heatmap
		h = 1.2 * score
		s = 100
		l = 50
	}
	r, g, b := hslToRGB(h, s, l)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// hslToRGB converts hue [0,360), saturation and lightness [0,100] to 8-bit
// RGB using the standard sector decomposition
func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s /= 100
	l /= 100

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return uint8(math.Round((r + m) * 255)),
		uint8(math.Round((g + m) * 255)),
		uint8(math.Round((b + m) * 255))
}

// clusterPalette is cycled through when assigning community colors
var clusterPalette = []string{
	"#FF5733", "#33FF57", "#3357FF", "#FF33F5", "#F5FF33",
	"#33FFF5", "#FF8C33", "#8C33FF", "#33FF8C", "#FF338C",
}

func clusterColor(clusterID int) string {
	if clusterID < 0 {
		return "#CCCCCC"
	}
	return clusterPalette[clusterID%len(clusterPalette)]
}
