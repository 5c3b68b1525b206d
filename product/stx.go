package product

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/nci/rsproduct/utils"
)

const DefaultHistogramBins = 512

// Stx holds the statistics of the valid geophysical samples of a raster.
type Stx struct {
	Min, Max        float64
	Mean, StdDev    float64
	SampleCount     int
	Histogram       []int
	IntHistogram    bool
	ResolutionLevel int
}

func (s *Stx) Clone() *Stx {
	if s == nil {
		return nil
	}
	c := *s
	c.Histogram = append([]int(nil), s.Histogram...)
	return &c
}

// BinWidth is the value range of one histogram bin.
func (s *Stx) BinWidth() float64 {
	if len(s.Histogram) == 0 {
		return 0
	}
	return (s.Max - s.Min) / float64(len(s.Histogram))
}

// ComputeStx computes statistics of a band row by row, skipping samples
// that are no-data or rejected by the band's valid mask.
func ComputeStx(ctx context.Context, b *Band) (*Stx, error) {
	// no-data samples arrive as NaN, only the valid-pixel expression needs
	// a mask
	var mask *ValidMask
	if expr := b.ValidPixelExpression; expr != "" && b.product != nil {
		var err error
		if mask, err = b.product.ValidMasks().Create(ctx, expr); err != nil {
			return nil, err
		}
	}

	values := make([]float64, 0, b.width*b.height)
	for y := 0; y < b.height; y++ {
		if err := utils.CheckCancelled(ctx); err != nil {
			return nil, err
		}
		row, err := b.ReadPixels(ctx, 0, y, b.width, 1, 1, 1)
		if err != nil {
			return nil, err
		}
		for x, v := range row {
			if math.IsNaN(v) || (mask != nil && !mask.IsSet(x, y)) {
				continue
			}
			values = append(values, v)
		}
	}
	return NewStx(values, b.dataType.IsInt() && !b.IsScaled()), nil
}

// NewStx builds statistics and a DefaultHistogramBins histogram from
// samples. An empty sample set yields zero statistics.
func NewStx(values []float64, intHistogram bool) *Stx {
	stx := &Stx{SampleCount: len(values), IntHistogram: intHistogram, Histogram: make([]int, DefaultHistogramBins)}
	if len(values) == 0 {
		return stx
	}
	stx.Min = floats.Min(values)
	stx.Max = floats.Max(values)
	stx.Mean, stx.StdDev = stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		stx.StdDev = 0
	}

	span := stx.Max - stx.Min
	for _, v := range values {
		bin := 0
		if span > 0 {
			bin = int((v - stx.Min) / span * DefaultHistogramBins)
			if bin >= DefaultHistogramBins {
				bin = DefaultHistogramBins - 1
			}
		}
		stx.Histogram[bin]++
	}
	return stx
}
