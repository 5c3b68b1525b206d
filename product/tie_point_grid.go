package product

import (
	"math"

	"github.com/nci/rsproduct/utils"
)

type Discontinuity int

const (
	DiscontNone Discontinuity = iota
	DiscontAt180
	DiscontAt360
)

// TiePointGrid is a coarse float32 grid mapped onto the scene raster: grid
// point (i,j) sits at scene position (OffsetX + i*SubSamplingX,
// OffsetY + j*SubSamplingY).
type TiePointGrid struct {
	RasterNode
	OffsetX, OffsetY           float64
	SubSamplingX, SubSamplingY float64
	Discontinuity              Discontinuity
	points                     []float32
}

func NewTiePointGrid(name string, width, height int, offsetX, offsetY, subSamplingX, subSamplingY float64, points []float32) (*TiePointGrid, error) {
	if width < 1 || height < 1 {
		return nil, utils.ConfigurationError("tie-point grid '%s': invalid size %dx%d", name, width, height)
	}
	if len(points) != width*height {
		return nil, utils.ConfigurationError("tie-point grid '%s': %d points for a %dx%d grid", name, len(points), width, height)
	}
	if subSamplingX <= 0 || subSamplingY <= 0 {
		return nil, utils.ConfigurationError("tie-point grid '%s': sub-sampling %gx%g must be positive", name, subSamplingX, subSamplingY)
	}
	return &TiePointGrid{
		RasterNode:   newRasterNode(name, TypeFloat32, width, height),
		OffsetX:      offsetX,
		OffsetY:      offsetY,
		SubSamplingX: subSamplingX,
		SubSamplingY: subSamplingY,
		points:       points,
	}, nil
}

// Points returns the grid values in row-major order.
func (g *TiePointGrid) Points() []float32 { return g.points }

// PixelDouble interpolates the grid at a continuous scene position.
// Positions outside the grid are extrapolated from the border cells.
func (g *TiePointGrid) PixelDouble(x, y float64) float64 {
	fi := (x - g.OffsetX) / g.SubSamplingX
	fj := (y - g.OffsetY) / g.SubSamplingY
	i0, wi := cellOf(fi, g.width)
	j0, wj := cellOf(fj, g.height)
	i1, j1 := min(i0+1, g.width-1), min(j0+1, g.height-1)

	v00 := float64(g.points[j0*g.width+i0])
	v10 := float64(g.points[j0*g.width+i1])
	v01 := float64(g.points[j1*g.width+i0])
	v11 := float64(g.points[j1*g.width+i1])

	if g.Discontinuity == DiscontNone {
		return bilinear(v00, v10, v01, v11, wi, wj)
	}

	rad := math.Pi / 180
	s := bilinear(math.Sin(v00*rad), math.Sin(v10*rad), math.Sin(v01*rad), math.Sin(v11*rad), wi, wj)
	c := bilinear(math.Cos(v00*rad), math.Cos(v10*rad), math.Cos(v01*rad), math.Cos(v11*rad), wi, wj)
	v := math.Atan2(s, c) / rad
	if g.Discontinuity == DiscontAt360 && v < 0 {
		v += 360
	}
	return v
}

// PixelValue is the grid value at the centre of scene pixel (x,y).
func (g *TiePointGrid) PixelValue(x, y int) float64 {
	return g.PixelDouble(float64(x)+0.5, float64(y)+0.5)
}

// ReadPixels evaluates the grid at the centres of the sampled scene pixels
// of a region.
func (g *TiePointGrid) ReadPixels(x, y, w, h, stepX, stepY int) []float64 {
	dw, dh := StridedSize(w, stepX), StridedSize(h, stepY)
	out := make([]float64, dw*dh)
	for j := 0; j < dh; j++ {
		for i := 0; i < dw; i++ {
			out[j*dw+i] = g.PixelValue(x+i*stepX, y+j*stepY)
		}
	}
	return out
}

func cellOf(f float64, n int) (int, float64) {
	if n == 1 {
		return 0, 0
	}
	i := int(math.Floor(f))
	if i < 0 {
		i = 0
	} else if i > n-2 {
		i = n - 2
	}
	return i, f - float64(i)
}

func bilinear(v00, v10, v01, v11, wi, wj float64) float64 {
	return v00*(1-wi)*(1-wj) + v10*wi*(1-wj) + v01*(1-wi)*wj + v11*wi*wj
}

// CreateSubset selects the source tie points covering the region of def.
// Points are taken as they are, never resampled; offsets and sub-sampling
// factors are rewritten so every kept point maps onto the same location of
// the subset scene.
func (g *TiePointGrid) CreateSubset(sceneWidth, sceneHeight int, def *SubsetDef) (*TiePointGrid, error) {
	region := Rect{Width: sceneWidth, Height: sceneHeight}
	stepX, stepY := 1, 1
	if def != nil {
		region = def.RegionOrFull(sceneWidth, sceneHeight)
		stepX, stepY = def.SubSamplingX, def.SubSamplingY
	}

	dataOffsetX := firstCoveringPoint(float64(region.X), g.OffsetX, g.SubSamplingX, g.width)
	dataOffsetY := firstCoveringPoint(float64(region.Y), g.OffsetY, g.SubSamplingY, g.height)
	newWidth := min(int(math.Ceil(float64(region.Width)/g.SubSamplingX))+2, g.width-dataOffsetX)
	newHeight := min(int(math.Ceil(float64(region.Height)/g.SubSamplingY))+2, g.height-dataOffsetY)

	points := make([]float32, newWidth*newHeight)
	for j := 0; j < newHeight; j++ {
		srcPos := (j+dataOffsetY)*g.width + dataOffsetX
		copy(points[j*newWidth:(j+1)*newWidth], g.points[srcPos:srcPos+newWidth])
	}

	const pixelCenter = 0.5
	firstX := g.OffsetX + float64(dataOffsetX)*g.SubSamplingX
	firstY := g.OffsetY + float64(dataOffsetY)*g.SubSamplingY
	sub, err := NewTiePointGrid(g.name, newWidth, newHeight,
		(firstX-pixelCenter-float64(region.X))/float64(stepX)+pixelCenter,
		(firstY-pixelCenter-float64(region.Y))/float64(stepY)+pixelCenter,
		g.SubSamplingX/float64(stepX),
		g.SubSamplingY/float64(stepY),
		points)
	if err != nil {
		return nil, err
	}
	sub.copyPresentation(&g.RasterNode)
	sub.Discontinuity = g.Discontinuity
	return sub, nil
}

// firstCoveringPoint is the index of the last grid point at or before scene
// coordinate start, so that interpolation at the region border stays inside
// the kept points.
func firstCoveringPoint(start, offset, subSampling float64, n int) int {
	i := int(math.Floor((start - offset + 0.5) / subSampling))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func (g *TiePointGrid) Clone() *TiePointGrid {
	c := &TiePointGrid{
		RasterNode:    newRasterNode(g.name, TypeFloat32, g.width, g.height),
		OffsetX:       g.OffsetX,
		OffsetY:       g.OffsetY,
		SubSamplingX:  g.SubSamplingX,
		SubSamplingY:  g.SubSamplingY,
		Discontinuity: g.Discontinuity,
		points:        append([]float32(nil), g.points...),
	}
	c.copyPresentation(&g.RasterNode)
	return c
}

func (g *TiePointGrid) Dispose() {
	g.points = nil
	g.stx = nil
	g.ImageInfo = nil
	g.product = nil
}
