package product

import (
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nci/rsproduct/utils"
)

var colourBlue = color.RGBA{0, 0, 255, 255}

// newTestProduct returns a w x h product with a uint16 band "counts" valued
// 1..w*h row-major.
func newTestProduct(t *testing.T, w, h int) *Product {
	t.Helper()
	p, err := NewProduct("test", "TEST_TYPE", w, h)
	require.NoError(t, err)
	b := NewBand("counts", TypeUint16, w, h)
	b.Unit = "dl"
	data := make([]uint16, w*h)
	for i := range data {
		data[i] = uint16(i + 1)
	}
	pd, err := WrapData(data)
	require.NoError(t, err)
	require.NoError(t, b.SetData(pd))
	require.NoError(t, p.AddBand(b))
	return p
}

func TestNewProductValidation(t *testing.T) {
	_, err := NewProduct("", "T", 1, 1)
	assert.True(t, utils.IsConfigurationError(err))
	_, err = NewProduct("p", "T", 0, 5)
	assert.True(t, utils.IsConfigurationError(err))
}

func TestAddBandConstraints(t *testing.T) {
	p := newTestProduct(t, 4, 3)

	err := p.AddBand(NewBand("wrong_size", TypeUint8, 3, 3))
	assert.True(t, utils.IsConfigurationError(err))

	err = p.AddBand(NewBand("COUNTS", TypeUint8, 4, 3))
	assert.True(t, utils.IsNameCollision(err))

	grid, err := NewTiePointGrid("lat", 2, 2, 0.5, 0.5, 3, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, p.AddTiePointGrid(grid))
	err = p.AddBand(NewBand("Lat", TypeFloat32, 4, 3))
	assert.True(t, utils.IsNameCollision(err))

	assert.True(t, p.ContainsRasterDataNode("LAT"))
	assert.Same(t, grid, p.RasterDataNode("lat"))
	assert.Nil(t, p.RasterDataNode("nothing"))
	assert.Same(t, p, p.Band("counts").Product())
}

func TestBandSetData(t *testing.T) {
	b := NewBand("b", TypeInt16, 2, 2)
	err := b.SetData(&ProductData{Type: TypeInt16, Elems: []int16{1, 2, 3}})
	assert.True(t, utils.IsConfigurationError(err))
	err = b.SetData(&ProductData{Type: TypeUint16, Elems: []uint16{1, 2, 3, 4}})
	assert.True(t, utils.IsConfigurationError(err))
	require.NoError(t, b.SetData(&ProductData{Type: TypeInt16, Elems: []int16{1, 2, 3, 4}}))
}

func TestSetGeoCodingUpdatesPins(t *testing.T) {
	p := newTestProduct(t, 10, 10)
	pin := NewPlacemark("pin1", "Pin 1", PixelPos{X: 2, Y: 3}, nil)
	require.NoError(t, p.AddPin(pin))
	assert.Nil(t, pin.GeoPos)

	gc := NewMapGeoCoding("EPSG:4326", [6]float64{100, 0.5, 0, -10, 0, -0.25}, 10, 10)
	require.NoError(t, p.SetGeoCoding(gc))
	require.NotNil(t, pin.GeoPos)
	assert.InDelta(t, 101.0, pin.GeoPos.Lon, 1e-12)
	assert.InDelta(t, -10.75, pin.GeoPos.Lat, 1e-12)

	err := p.SetGeoCoding(NewMapGeoCoding("EPSG:4326", gc.GeoTransform, 5, 5))
	assert.True(t, utils.IsConfigurationError(err))
	assert.Same(t, gc, p.GeoCoding())
}

func TestSetGeoCodingForeignGrids(t *testing.T) {
	p := newTestProduct(t, 10, 10)
	other := newTestProduct(t, 10, 10)
	require.NoError(t, AddCornerGeoCoding(other, [4]float64{10, 10, 0, 0}, [4]float64{0, 10, 0, 10}))

	err := p.SetGeoCoding(other.GeoCoding())
	assert.True(t, utils.IsConfigurationError(err))
	assert.Nil(t, p.GeoCoding())
}

func TestAddCornerGeoCoding(t *testing.T) {
	p := newTestProduct(t, 10, 19)
	require.NoError(t, AddCornerGeoCoding(p, [4]float64{50, 50, 40, 40}, [4]float64{10, 20, 10, 20}))

	gc := p.GeoCoding()
	require.NotNil(t, gc)
	first, ok := gc.GeoPos(PixelPos{X: 0.5, Y: 0.5})
	require.True(t, ok)
	assert.InDelta(t, 50, first.Lat, 1e-4)
	assert.InDelta(t, 10, first.Lon, 1e-4)

	last, _ := gc.GeoPos(PixelPos{X: 9.5, Y: 18.5})
	assert.InDelta(t, 40, last.Lat, 1e-4)
	assert.InDelta(t, 20, last.Lon, 1e-4)
	assert.Equal(t, DiscontAt180, p.TiePointGrid("longitude").Discontinuity)
}

func TestRenameRasterPropagates(t *testing.T) {
	p := newTestProduct(t, 2, 2)
	flags := NewBand("l2_flags", TypeUint8, 2, 2)
	coding := NewFlagCoding("l2_flags")
	coding.AddFlag("LAND", 1, "land pixel")
	require.NoError(t, p.AddFlagCoding(coding))
	flags.SampleCoding = coding
	require.NoError(t, p.AddBand(flags))

	v := NewVirtualBand("double", TypeFloat32, 2, 2, "counts * 2")
	v.SetValidPixelExpression("[l2_flags.LAND] && counts > 0")
	require.NoError(t, p.AddBand(v))
	require.NoError(t, p.AddMask(NewMask("land", "[l2_flags.LAND]", colourBlue, 0.5)))

	_, err := p.ValidMasks().Create(context.Background(), "counts > 1")
	require.NoError(t, err)
	require.Equal(t, 1, p.ValidMasks().Len())

	require.NoError(t, p.RenameRaster("counts", "radiance 1"))
	assert.Equal(t, "[radiance 1] * 2", v.Expression())
	assert.Equal(t, "[l2_flags.LAND] && [radiance 1] > 0", v.ValidPixelExpression)

	require.NoError(t, p.RenameRaster("l2_flags", "quality"))
	m, _ := p.Masks().Get("land")
	assert.Equal(t, "[quality.LAND]", m.Expression)
	assert.Equal(t, 0, p.ValidMasks().Len())

	err = p.RenameRaster("double", "quality")
	assert.True(t, utils.IsNameCollision(err))
	err = p.RenameRaster("missing", "x")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestVirtualIntensityAndPhase(t *testing.T) {
	p, err := NewProduct("cplx", "SLC", 2, 1)
	require.NoError(t, err)
	i := NewBand("i_VV", TypeInt16, 2, 1)
	q := NewBand("q_VV", TypeInt16, 2, 1)
	require.NoError(t, i.SetData(&ProductData{Type: TypeInt16, Elems: []int16{3, 0}}))
	require.NoError(t, q.SetData(&ProductData{Type: TypeInt16, Elems: []int16{4, 2}}))
	require.NoError(t, p.AddBand(i))
	require.NoError(t, p.AddBand(q))

	intensity, err := AddVirtualIntensityBand(p, i, q, "_VV")
	require.NoError(t, err)
	assert.Equal(t, "Intensity_VV", intensity.Name())
	assert.Equal(t, "intensity", intensity.Unit)

	values, err := intensity.ReadPixels(context.Background(), 0, 0, 2, 1, 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 25, values[0], 1e-4)
	assert.InDelta(t, 4, values[1], 1e-4)

	phase, err := AddVirtualPhaseBand(p, i, q, "_VV")
	require.NoError(t, err)
	values, err = phase.ReadPixels(context.Background(), 0, 0, 2, 1, 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.927295, values[0], 1e-4)
	assert.InDelta(t, 1.570796, values[1], 1e-4)
}

func TestVirtualBandSelfReference(t *testing.T) {
	p := newTestProduct(t, 2, 2)
	v := NewVirtualBand("loop", TypeFloat32, 2, 2, "loop + 1")
	require.NoError(t, p.AddBand(v))
	_, err := v.ReadPixels(context.Background(), 0, 0, 2, 2, 1, 1)
	assert.True(t, utils.IsConfigurationError(err))
}

func TestVerify(t *testing.T) {
	p := newTestProduct(t, 2, 2)
	require.NoError(t, p.Verify(false, false))

	assert.Error(t, p.Verify(true, false))
	start := time.Date(2008, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(-time.Second)
	p.StartTime, p.EndTime = &start, &end
	assert.Error(t, p.Verify(true, false))
	end = start.Add(time.Minute)
	assert.NoError(t, p.Verify(true, false))

	err := p.Verify(false, true)
	assert.Equal(t, errors.CodeSchemaFailed, errors.GetCode(err))

	require.NoError(t, p.AddBand(NewBand("no_unit", TypeUint8, 2, 2)))
	assert.Error(t, p.Verify(false, false))
}

func TestRawStorageSize(t *testing.T) {
	p := newTestProduct(t, 10, 10)
	require.NoError(t, p.AddBand(NewBand("extra", TypeFloat64, 10, 10)))
	require.NoError(t, p.AddBand(NewVirtualBand("virt", TypeFloat32, 10, 10, "counts")))
	p.MetadataRoot().SetAttributeString("MISSION", "ENVISAT")

	assert.Equal(t, int64(10*10*2+10*10*8+7), p.RawStorageSize(nil))

	def := NewSubsetDef()
	def.Region = &Rect{X: 0, Y: 0, Width: 5, Height: 4}
	def.SubSamplingX = 2
	def.NodeNames = []string{"counts", "virt"}
	def.IgnoreMetadata = true
	assert.Equal(t, int64(3*4*2), p.RawStorageSize(def))

	def.TreatVirtualBandsAsRealBands = true
	assert.Equal(t, int64(3*4*2+3*4*4), p.RawStorageSize(def))
}

func TestIsCompatibleProduct(t *testing.T) {
	a := newTestProduct(t, 10, 10)
	b := newTestProduct(t, 10, 10)
	assert.True(t, a.IsCompatibleProduct(b, 1e-6))

	require.NoError(t, AddCornerGeoCoding(a, [4]float64{1, 1, 0, 0}, [4]float64{0, 1, 0, 1}))
	assert.False(t, a.IsCompatibleProduct(b, 1e-6))
	require.NoError(t, AddCornerGeoCoding(b, [4]float64{1, 1, 0, 0}, [4]float64{0, 1, 0, 1.001}))
	assert.False(t, a.IsCompatibleProduct(b, 1e-6))
	assert.True(t, a.IsCompatibleProduct(b, 1e-2))

	c := newTestProduct(t, 10, 11)
	assert.False(t, a.IsCompatibleProduct(c, 1))
}

func TestProductDispose(t *testing.T) {
	p := newTestProduct(t, 4, 4)
	require.NoError(t, AddCornerGeoCoding(p, [4]float64{1, 1, 0, 0}, [4]float64{0, 1, 0, 1}))
	b := p.Band("counts")
	gc := p.GeoCoding().(*TiePointGeoCoding)

	p.Dispose()
	assert.True(t, p.IsDisposed())
	assert.False(t, b.HasData())
	assert.Nil(t, gc.LatGrid)
	assert.Nil(t, p.GeoCoding())
	assert.Equal(t, 0, p.Bands().Len())

	p.Dispose()
}

func TestWalkKinds(t *testing.T) {
	p := newTestProduct(t, 2, 2)
	require.NoError(t, p.AddBand(NewVirtualBand("v", TypeFloat32, 2, 2, "counts")))
	require.NoError(t, p.AddGCP(NewPlacemark("gcp1", "", PixelPos{}, nil)))
	p.MetadataRoot().AddElement(NewMetadataElement("Abstracted_Metadata"))

	kinds := map[NodeKind]int{}
	p.Walk(func(ref NodeRef) bool {
		kinds[ref.Kind]++
		return true
	})
	assert.Equal(t, 1, kinds[KindProduct])
	assert.Equal(t, 1, kinds[KindBand])
	assert.Equal(t, 1, kinds[KindVirtualBand])
	assert.Equal(t, 1, kinds[KindPlacemark])
	assert.Equal(t, 2, kinds[KindMetadataElement])
	assert.Equal(t, 7, kinds[KindNodeGroup])
}
