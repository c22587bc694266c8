package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHSLToRGBPrimaries(t *testing.T) {
	r, g, b := hslToRGB(0, 100, 50)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})

	r, g, b = hslToRGB(120, 100, 50)
	assert.Equal(t, [3]uint8{0, 255, 0}, [3]uint8{r, g, b})

	r, g, b = hslToRGB(240, 100, 50)
	assert.Equal(t, [3]uint8{0, 0, 255}, [3]uint8{r, g, b})
}

func TestHeatmapEndpoints(t *testing.T) {
	// Score 0 sits at hue 0 (red), score 100 at hue 120 (green)
	assert.Equal(t, "#ff0000", scoreToColor(0, SchemeHeatmap))
	assert.Equal(t, "#00ff00", scoreToColor(100, SchemeHeatmap))
}

func TestGrayscaleHasNoSaturation(t *testing.T) {
	assert.Equal(t, "#000000", scoreToColor(0, SchemeGrayscale))
	assert.Equal(t, "#ffffff", scoreToColor(100, SchemeGrayscale))

	for _, score := range []float64{10, 33, 50, 75, 90} {
		hex := scoreToColor(score, SchemeGrayscale)
		assert.Equal(t, hex[1:3], hex[3:5], "red and green channels differ at %v", score)
		assert.Equal(t, hex[3:5], hex[5:7], "green and blue channels differ at %v", score)
	}
}

func TestActivitySchemeRange(t *testing.T) {
	// Score 0 is blue (hue 240), score 100 lands back in the red family
	assert.Equal(t, "#2626d9", scoreToColor(0, SchemeActivity))
	assert.Equal(t, "#b30000", scoreToColor(100, SchemeActivity))
}

func TestClusterPaletteCycles(t *testing.T) {
	assert.Equal(t, "#FF5733", clusterColor(0))
	assert.Equal(t, clusterColor(0), clusterColor(len(clusterPalette)))
	assert.Equal(t, "#CCCCCC", clusterColor(-1))
}
