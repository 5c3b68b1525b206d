package product

import (
	"image/color"
)

// ColourPoint anchors a palette colour at a geophysical sample value.
type ColourPoint struct {
	Sample float64
	Colour color.RGBA
	Label  string
}

// ImageInfo holds the presentation settings of one raster.
type ImageInfo struct {
	Points      []ColourPoint
	Interpolate bool
	LogScaled   bool
	NoDataColor color.RGBA
	// Histogram matching mode, such as "none", "equalize" or "normalize".
	HistogramMatching string
}

// Clone returns a deep copy.
func (info *ImageInfo) Clone() *ImageInfo {
	if info == nil {
		return nil
	}
	c := *info
	c.Points = append([]ColourPoint(nil), info.Points...)
	return &c
}

// interpolateUint8 returns the value at position i of sectionLength steps
// between a and b.
func interpolateUint8(a, b uint8, i, sectionLength int) uint8 {
	return a + uint8((i * (int(b) - int(a)) / sectionLength))
}

func interpolateColour(a, b color.RGBA, i, sectionLength int) color.RGBA {
	return color.RGBA{interpolateUint8(a.R, b.R, i, sectionLength),
		interpolateUint8(a.G, b.G, i, sectionLength),
		interpolateUint8(a.B, b.B, i, sectionLength),
		255}
}

// ColourRamp expands the palette points to 256 colours, either
// interpolated between consecutive points or as flat sections.
func (info *ImageInfo) ColourRamp() []color.RGBA {
	if info == nil || len(info.Points) == 0 {
		return nil
	}

	ramp := make([]color.RGBA, 256)
	bins := len(info.Points)
	if info.Interpolate && bins > 1 {
		bins--
	}
	sectionLength := 256 / bins
	bonus := 256 - (sectionLength * bins)
	bonusArr := make([]int, bins)
	for i := 0; i < bonus; i++ {
		bonusArr[i] = 1
	}

	index := 0
	for section := 0; section < bins; section++ {
		lower := info.Points[section].Colour
		for i := 0; i < sectionLength+bonusArr[section]; i++ {
			if info.Interpolate && len(info.Points) > 1 {
				ramp[index] = interpolateColour(lower, info.Points[section+1].Colour, i, sectionLength)
			} else {
				ramp[index] = lower
			}
			index++
		}
	}
	return ramp
}

type MaskKind int

const (
	MaskOverlay MaskKind = iota
	MaskROI
)

// Mask is a named boolean expression over the product rasters, drawn with
// a colour and transparency.
type Mask struct {
	name         string
	Expression   string
	Description  string
	Colour       color.RGBA
	Transparency float64
	Kind         MaskKind
}

func NewMask(name, expression string, colour color.RGBA, transparency float64) *Mask {
	return &Mask{name: name, Expression: expression, Colour: colour, Transparency: transparency}
}

func (m *Mask) Name() string { return m.name }

func (m *Mask) Clone() *Mask {
	c := *m
	return &c
}
