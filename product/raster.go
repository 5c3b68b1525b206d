package product

import (
	"context"
	"math"
)

// RasterProvider reads pixel data for bands that are not resident. dest
// receives ceil(w/stepX) * ceil(h/stepY) samples in row-major order.
// ReadRegion blocks until the read completes and is called concurrently
// only if the provider's owner allows it.
type RasterProvider interface {
	ReadRegion(ctx context.Context, x, y, w, h, stepX, stepY int, dest *ProductData) error
}

// RasterNode holds the state shared by bands and tie-point grids.
type RasterNode struct {
	name                 string
	Description          string
	Unit                 string
	dataType             DataType
	width, height        int
	ScalingFactor        float64
	ScalingOffset        float64
	Log10Scaled          bool
	noDataValue          float64
	noDataUsed           bool
	ValidPixelExpression string
	ImageInfo            *ImageInfo
	stx                  *Stx
	product              *Product
}

func newRasterNode(name string, dataType DataType, width, height int) RasterNode {
	return RasterNode{
		name:          name,
		dataType:      dataType,
		width:         width,
		height:        height,
		ScalingFactor: 1,
	}
}

func (r *RasterNode) Name() string { return r.name }
func (r *RasterNode) DataType() DataType { return r.dataType }
func (r *RasterNode) Width() int { return r.width }
func (r *RasterNode) Height() int { return r.height }
func (r *RasterNode) Product() *Product { return r.product }
func (r *RasterNode) NoDataValue() float64 { return r.noDataValue }
func (r *RasterNode) NoDataValueUsed() bool { return r.noDataUsed }

func (r *RasterNode) SetNoDataValue(v float64) {
	r.noDataValue = v
	r.invalidateValidMask()
}

func (r *RasterNode) SetNoDataValueUsed(used bool) {
	r.noDataUsed = used
	r.invalidateValidMask()
}

func (r *RasterNode) SetValidPixelExpression(expr string) {
	r.ValidPixelExpression = expr
	r.invalidateValidMask()
}

func (r *RasterNode) Stx() *Stx { return r.stx }

func (r *RasterNode) SetStx(stx *Stx) { r.stx = stx }

func (r *RasterNode) IsScaled() bool {
	return r.ScalingFactor != 1 || r.ScalingOffset != 0 || r.Log10Scaled
}

// Scale converts a raw sample to its geophysical value.
func (r *RasterNode) Scale(raw float64) float64 {
	v := raw*r.ScalingFactor + r.ScalingOffset
	if r.Log10Scaled {
		return math.Pow(10, v)
	}
	return v
}

// ScaleInverse converts a geophysical value back to a raw sample.
func (r *RasterNode) ScaleInverse(v float64) float64 {
	if r.Log10Scaled {
		v = math.Log10(v)
	}
	return (v - r.ScalingOffset) / r.ScalingFactor
}

// IsNoData reports whether a raw sample equals the no-data value.
func (r *RasterNode) IsNoData(raw float64) bool {
	if !r.noDataUsed {
		return false
	}
	if math.IsNaN(r.noDataValue) {
		return math.IsNaN(raw)
	}
	return raw == r.noDataValue
}

// ValidMaskExpression combines the valid-pixel expression with the
// no-data test. It is empty when every pixel is valid.
func (r *RasterNode) ValidMaskExpression() string {
	var noData string
	if r.noDataUsed {
		ref := "[" + r.name + ".raw]"
		if math.IsNaN(r.noDataValue) {
			noData = "!isnan(" + ref + ")"
		} else {
			noData = ref + " != " + formatFloat(r.noDataValue)
		}
	}
	switch {
	case r.ValidPixelExpression == "":
		return noData
	case noData == "":
		return r.ValidPixelExpression
	}
	return "(" + r.ValidPixelExpression + ") && " + noData
}

func (r *RasterNode) invalidateValidMask() {
	if r.product != nil {
		r.product.validMasks.Clear()
	}
}

func (r *RasterNode) copyPresentation(src *RasterNode) {
	r.Description = src.Description
	r.Unit = src.Unit
	r.ScalingFactor = src.ScalingFactor
	r.ScalingOffset = src.ScalingOffset
	r.Log10Scaled = src.Log10Scaled
	r.noDataValue = src.noDataValue
	r.noDataUsed = src.noDataUsed
	r.ValidPixelExpression = src.ValidPixelExpression
}
