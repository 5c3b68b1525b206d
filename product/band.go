package product

import (
	"context"
	"errors"

	"github.com/nci/rsproduct/utils"
)

var errNoRasterSource = errors.New("no resident data and no raster provider")

// Band is a scene sized raster. A virtual band computes its samples from
// Expression instead of holding data or a provider.
type Band struct {
	RasterNode
	SpectralBandIndex  int
	SpectralWavelength float64
	SpectralBandwidth  float64
	SolarFlux          float64
	SampleCoding       *SampleCoding

	virtual    bool
	expression string
	data       *ProductData
	provider   RasterProvider
}

func NewBand(name string, dataType DataType, width, height int) *Band {
	return &Band{RasterNode: newRasterNode(name, dataType, width, height), SpectralBandIndex: -1}
}

func NewVirtualBand(name string, dataType DataType, width, height int, expression string) *Band {
	b := NewBand(name, dataType, width, height)
	b.virtual = true
	b.expression = expression
	return b
}

func (b *Band) IsVirtual() bool { return b.virtual }
func (b *Band) Expression() string { return b.expression }

func (b *Band) SetExpression(expr string) {
	b.expression = expr
	b.invalidateValidMask()
}

func (b *Band) IsFlagBand() bool {
	return b.SampleCoding != nil && b.SampleCoding.IsFlagCoding()
}

func (b *Band) IsIndexBand() bool {
	return b.SampleCoding != nil && !b.SampleCoding.IsFlagCoding()
}

func (b *Band) HasData() bool { return b.data != nil }

func (b *Band) Data() *ProductData { return b.data }

// SetData attaches resident samples. The buffer must match the band's type
// and hold exactly width*height elements.
func (b *Band) SetData(data *ProductData) error {
	if data != nil {
		if data.Type != b.dataType {
			return utils.ConfigurationError("band '%s': data type %v does not match band type %v", b.name, data.Type, b.dataType)
		}
		if data.NumElems() != b.width*b.height {
			return utils.ConfigurationError("band '%s': %d elements for a %dx%d raster", b.name, data.NumElems(), b.width, b.height)
		}
	}
	b.data = data
	return nil
}

// EnsureData allocates a zeroed buffer if none is attached.
func (b *Band) EnsureData() (*ProductData, error) {
	if b.data == nil {
		data, err := NewProductData(b.dataType, b.width*b.height)
		if err != nil {
			return nil, err
		}
		b.data = data
	}
	return b.data, nil
}

func (b *Band) UnloadData() { b.data = nil }

func (b *Band) SetProvider(p RasterProvider) { b.provider = p }

// RasterProvider returns where non-resident samples come from: the attached
// provider, or an expression evaluator for virtual bands. It is nil for a
// plain band without a provider.
func (b *Band) RasterProvider() RasterProvider {
	if b.provider != nil {
		return b.provider
	}
	if b.virtual && b.product != nil {
		return &expressionProvider{product: b.product, name: b.name, expression: b.expression, dataType: b.dataType}
	}
	return nil
}

// ReadRaw reads raw samples of a region, from resident data when present.
func (b *Band) ReadRaw(ctx context.Context, x, y, w, h, stepX, stepY int, dest *ProductData) error {
	if b.data != nil {
		return ReadResident(b.data, b.width, x, y, w, h, stepX, stepY, dest)
	}
	p := b.RasterProvider()
	if p == nil {
		return utils.IOFailure(errNoRasterSource, "band '%s'", b.name)
	}
	return p.ReadRegion(ctx, x, y, w, h, stepX, stepY, dest)
}

// ReadPixels reads a region as geophysical float64 values. No-data samples
// become NaN.
func (b *Band) ReadPixels(ctx context.Context, x, y, w, h, stepX, stepY int) ([]float64, error) {
	raw, err := NewProductData(b.dataType, StridedSize(w, stepX)*StridedSize(h, stepY))
	if err != nil {
		return nil, err
	}
	if err := b.ReadRaw(ctx, x, y, w, h, stepX, stepY, raw); err != nil {
		return nil, err
	}
	return b.ScaledPixels(raw)
}

func (b *Band) Dispose() {
	b.data = nil
	b.provider = nil
	b.SampleCoding = nil
	b.stx = nil
	b.ImageInfo = nil
	b.product = nil
}

// CopyBandProperties copies the descriptive and spectral properties of src
// onto b. Data, provider, sample coding and statistics are left untouched.
func (b *Band) CopyBandProperties(src *Band) {
	b.copyPresentation(&src.RasterNode)
	b.SpectralBandIndex = src.SpectralBandIndex
	b.SpectralWavelength = src.SpectralWavelength
	b.SpectralBandwidth = src.SpectralBandwidth
	b.SolarFlux = src.SolarFlux
}
