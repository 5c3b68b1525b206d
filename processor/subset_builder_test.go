package processor

import (
	"context"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nci/rsproduct/metrics"
	"github.com/nci/rsproduct/product"
	"github.com/nci/rsproduct/utils"
)

var t0 = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

func sourceProduct(t *testing.T, w, h int) *product.Product {
	t.Helper()
	p, err := product.NewProduct("S1A_IW_GRDH", "GRD", w, h)
	require.NoError(t, err)
	p.Description = "ground range detected"
	require.NoError(t, p.AddBand(residentBand(t, "amplitude", w, h)))
	return p
}

func build(t *testing.T, src *product.Product, def *product.SubsetDef) (*product.Product, *SubsetBuilder) {
	t.Helper()
	b, err := NewSubsetBuilder(src, def)
	require.NoError(t, err)
	target, err := b.Build(context.Background())
	require.NoError(t, err)
	return target, b
}

func create(t *testing.T, src *product.Product, def *product.SubsetDef) (*product.Product, *SubsetBuilder) {
	t.Helper()
	b, err := NewSubsetBuilder(src, def)
	require.NoError(t, err)
	target, err := b.CreateSubset(context.Background())
	require.NoError(t, err)
	return target, b
}

func regionDef(x, y, w, h, subX, subY int) *product.SubsetDef {
	def := product.NewSubsetDef()
	def.Region = &product.Rect{X: x, Y: y, Width: w, Height: h}
	def.SubSamplingX, def.SubSamplingY = subX, subY
	return def
}

func warningsContain(warnings []error, s string) bool {
	for _, w := range warnings {
		if strings.Contains(w.Error(), s) {
			return true
		}
	}
	return false
}

func TestSubsetDimensions(t *testing.T) {
	src := sourceProduct(t, 100, 80)
	for _, tc := range []struct {
		def        *product.SubsetDef
		wantW, wantH int
	}{
		{nil, 100, 80},
		{regionDef(10, 10, 50, 50, 1, 1), 50, 50},
		{regionDef(0, 0, 100, 80, 3, 7), 34, 12},
		{regionDef(99, 79, 1, 1, 5, 5), 1, 1},
		{regionDef(1, 2, 10, 11, 2, 2), 5, 6},
	} {
		target, _ := build(t, src, tc.def)
		assert.Equal(t, tc.wantW, target.SceneRasterWidth())
		assert.Equal(t, tc.wantH, target.SceneRasterHeight())
		band := target.Band("amplitude")
		require.NotNil(t, band)
		assert.Equal(t, tc.wantW, band.Width())
		assert.Equal(t, tc.wantH, band.Height())
	}
}

func TestSubsetIdentity(t *testing.T) {
	src := sourceProduct(t, 12, 9)
	target, b := create(t, src, nil)
	assert.Empty(t, b.Warnings())
	assert.Equal(t, src.Name(), target.Name())
	assert.Equal(t, src.Description, target.Description)
	assert.Equal(t, src.ProductType, target.ProductType)
	assert.Equal(t, floats(src.Band("amplitude").Data()), floats(target.Band("amplitude").Data()))
	assert.NotSame(t, src.Band("amplitude").Data(), target.Band("amplitude").Data())
}

func TestSubsetLazyRead(t *testing.T) {
	src := sourceProduct(t, 10, 10)
	target, _ := build(t, src, regionDef(2, 3, 6, 6, 2, 2))
	band := target.Band("amplitude")
	assert.False(t, band.HasData())

	pixels, err := band.ReadPixels(context.Background(), 1, 1, 2, 2, 1, 1)
	require.NoError(t, err)
	// target (1,1) is source (4,5)
	assert.Equal(t, []float64{54, 56, 74, 76}, pixels)
}

func TestSubsetStrideComposition(t *testing.T) {
	src := sourceProduct(t, 16, 16)
	first, _ := build(t, src, regionDef(2, 2, 12, 12, 2, 2))
	second, _ := create(t, first, regionDef(1, 1, 4, 4, 2, 2))
	direct, _ := create(t, src, regionDef(4, 4, 5, 5, 4, 4))

	assert.Equal(t, []float32{68, 72, 132, 136}, floats(second.Band("amplitude").Data()))
	assert.Equal(t, floats(direct.Band("amplitude").Data()), floats(second.Band("amplitude").Data()))
}

func TestSubsetPlacemarks(t *testing.T) {
	src := sourceProduct(t, 100, 100)
	require.NoError(t, src.AddPin(product.NewPlacemark("outside", "", product.PixelPos{X: 5, Y: 5}, nil)))
	require.NoError(t, src.AddPin(product.NewPlacemark("inside", "", product.PixelPos{X: 20.5, Y: 30.5}, nil)))
	require.NoError(t, src.AddGCP(product.NewPlacemark("gcp", "", product.PixelPos{X: 5, Y: 5}, nil)))

	target, _ := build(t, src, regionDef(10, 10, 50, 50, 1, 1))
	assert.Equal(t, []string{"inside"}, target.Pins().Names())
	pin, _ := target.Pins().Get("inside")
	assert.Equal(t, product.PixelPos{X: 10.5, Y: 20.5}, pin.PixelPos)

	gcp, ok := target.GCPs().Get("gcp")
	require.True(t, ok)
	assert.Equal(t, product.PixelPos{X: -5, Y: -5}, gcp.PixelPos)

	// the source placemarks are untouched
	srcGCP, _ := src.GCPs().Get("gcp")
	assert.Equal(t, product.PixelPos{X: 5, Y: 5}, srcGCP.PixelPos)
}

func TestSubsetPlacemarksSubSampled(t *testing.T) {
	src := sourceProduct(t, 100, 100)
	require.NoError(t, src.AddPin(product.NewPlacemark("p", "", product.PixelPos{X: 30, Y: 50}, nil)))
	target, _ := build(t, src, regionDef(10, 10, 80, 80, 2, 4))
	pin, ok := target.Pins().Get("p")
	require.True(t, ok)
	assert.Equal(t, product.PixelPos{X: 10, Y: 10}, pin.PixelPos)
}

func TestSubsetTimes(t *testing.T) {
	src := sourceProduct(t, 4, 101)
	end := t0.Add(100 * time.Second)
	src.StartTime, src.EndTime = &t0, &end

	target, _ := build(t, src, regionDef(0, 10, 4, 81, 1, 1))
	require.NotNil(t, target.StartTime)
	require.NotNil(t, target.EndTime)
	assert.True(t, t0.Add(10*time.Second).Equal(*target.StartTime))
	assert.True(t, t0.Add(90*time.Second).Equal(*target.EndTime))

	full, _ := build(t, src, nil)
	assert.True(t, t0.Equal(*full.StartTime))
	assert.True(t, end.Equal(*full.EndTime))
	assert.NotSame(t, src.StartTime, full.StartTime)
}

func TestSubsetTimesShortScene(t *testing.T) {
	src := sourceProduct(t, 4, 1)
	end := t0.Add(time.Second)
	src.StartTime, src.EndTime = &t0, &end
	target, _ := build(t, src, regionDef(1, 0, 2, 1, 1, 1))
	assert.True(t, t0.Equal(*target.StartTime))
	assert.True(t, end.Equal(*target.EndTime))
}

func abstractedMetadata(t *testing.T, mission, pass string, omit ...string) *product.MetadataElement {
	t.Helper()
	abs := product.NewMetadataElement(AbstractedMetadataName)
	abs.SetAttributeString("MISSION", mission)
	abs.SetAttributeString("PASS", pass)
	abs.SetAttributeUTC("first_line_time", t0)
	abs.SetAttributeUTC("last_line_time", t0)
	for _, name := range []string{"total_size", "num_output_lines", "num_samples_per_line", "subset_offset_x", "subset_offset_y"} {
		require.NoError(t, abs.SetAttributeInt(name, 999))
	}
	for _, name := range []string{"first_near_lat", "first_near_long", "first_far_lat", "first_far_long",
		"last_near_lat", "last_near_long", "last_far_lat", "last_far_long", "slant_range_to_first_pixel"} {
		abs.SetAttributeDouble(name, 0)
	}
	for _, name := range omit {
		abs.RemoveAttribute(abs.Attribute(name))
	}
	return abs
}

func geoProduct(t *testing.T, abs *product.MetadataElement) *product.Product {
	t.Helper()
	src := sourceProduct(t, 100, 100)
	require.NoError(t, src.SetGeoCoding(product.NewMapGeoCoding("EPSG:4326", [6]float64{140, 0.01, 0, -30, 0, -0.01}, 100, 100)))
	end := t0.Add(99 * time.Second)
	src.StartTime, src.EndTime = &t0, &end
	if abs != nil {
		src.MetadataRoot().AddElement(abs)
	}
	return src
}

func TestSubsetAbstractedMetadata(t *testing.T) {
	src := geoProduct(t, abstractedMetadata(t, "SENTINEL-1A", "ASCENDING"))
	srt, err := product.NewTiePointGrid("slant_range_time", 2, 2, 0.5, 0.5, 99, 99, []float32{5e6, 5e6, 5e6, 5e6})
	require.NoError(t, err)
	require.NoError(t, src.AddTiePointGrid(srt))

	target, b := build(t, src, regionDef(10, 20, 30, 40, 1, 1))
	assert.Empty(t, b.Warnings())

	abs := target.MetadataRoot().Element(AbstractedMetadataName)
	require.NotNil(t, abs)
	assert.Equal(t, int64(40), abs.AttributeInt("num_output_lines", 0))
	assert.Equal(t, int64(30), abs.AttributeInt("num_samples_per_line", 0))
	assert.Equal(t, int64(10), abs.AttributeInt("subset_offset_x", 0))
	assert.Equal(t, int64(20), abs.AttributeInt("subset_offset_y", 0))
	// bytes, at least the 30x40 float32 amplitude band
	assert.GreaterOrEqual(t, abs.AttributeInt("total_size", -1), int64(30*40*4))
	assert.Less(t, abs.AttributeInt("total_size", -1), int64(100*100*4))

	first, ok := abs.AttributeUTC("first_line_time")
	require.True(t, ok)
	assert.True(t, t0.Add(20*time.Second).Equal(first))
	last, _ := abs.AttributeUTC("last_line_time")
	assert.True(t, t0.Add(59*time.Second).Equal(last))

	assert.InDelta(t, 140.105, abs.AttributeDouble("first_near_long", 0), 1e-9)
	assert.InDelta(t, -30.205, abs.AttributeDouble("first_near_lat", 0), 1e-9)
	assert.InDelta(t, 140.395, abs.AttributeDouble("first_far_long", 0), 1e-9)
	assert.InDelta(t, -30.595, abs.AttributeDouble("last_near_lat", 0), 1e-9)
	assert.InDelta(t, 0.005*299792458.0/2, abs.AttributeDouble("slant_range_to_first_pixel", 0), 1e-3)

	// the source metadata is a separate tree
	assert.Equal(t, int64(999), src.MetadataRoot().Element(AbstractedMetadataName).AttributeInt("num_output_lines", 0))
}

func TestSubsetAbstractedMetadataFarRangeOnLeft(t *testing.T) {
	src := geoProduct(t, abstractedMetadata(t, "RS2", "DESCENDING"))
	target, _ := build(t, src, regionDef(10, 20, 30, 40, 1, 1))
	abs := target.MetadataRoot().Element(AbstractedMetadataName)
	assert.InDelta(t, 140.395, abs.AttributeDouble("first_near_long", 0), 1e-9)
	assert.InDelta(t, 140.105, abs.AttributeDouble("first_far_long", 0), 1e-9)
}

func TestSubsetAbstractedMetadataMissingAttributes(t *testing.T) {
	src := geoProduct(t, abstractedMetadata(t, "SENTINEL-1A", "ASCENDING", "total_size", "last_far_long"))
	target, b := build(t, src, nil)
	abs := target.MetadataRoot().Element(AbstractedMetadataName)
	assert.Nil(t, abs.Attribute("total_size"))
	assert.Nil(t, abs.Attribute("last_far_long"))
	assert.Len(t, b.Warnings(), 2)
	assert.True(t, warningsContain(b.Warnings(), "total_size"))
	assert.True(t, warningsContain(b.Warnings(), "last_far_long"))
}

func TestSubsetSRGRCoefficients(t *testing.T) {
	abs := abstractedMetadata(t, "SENTINEL-1A", "ASCENDING")
	abs.SetAttributeDouble("RANGE_SPACING", 10)
	srgr := product.NewMetadataElement("SRGR_Coefficients")
	for _, offset := range []time.Duration{0, 5 * time.Second, 50 * time.Second, 200 * time.Second} {
		rec := product.NewMetadataElement("srgr_coef_list")
		rec.SetAttributeUTC("zero_doppler_time", t0.Add(offset))
		rec.SetAttributeDouble("ground_range_origin", 0)
		srgr.AddElement(rec)
	}
	abs.AddElement(srgr)

	src := sourceProduct(t, 20, 101)
	end := t0.Add(100 * time.Second)
	src.StartTime, src.EndTime = &t0, &end
	src.MetadataRoot().AddElement(abs)

	target, _ := build(t, src, regionDef(3, 10, 10, 81, 1, 1))
	records := target.MetadataRoot().Element(AbstractedMetadataName).Element("SRGR_Coefficients").Elements()
	require.Len(t, records, 2)
	var kept []time.Time
	for _, rec := range records {
		zdt, _ := rec.AttributeUTC("zero_doppler_time")
		kept = append(kept, zdt)
		assert.InDelta(t, 30, rec.AttributeDouble("ground_range_origin", 0), 1e-12)
	}
	assert.True(t, t0.Add(5*time.Second).Equal(kept[0]))
	assert.True(t, t0.Add(50*time.Second).Equal(kept[1]))
	assert.Len(t, srgr.Elements(), 4)
}

func TestSubsetProvenance(t *testing.T) {
	src := sourceProduct(t, 60, 60)
	def := regionDef(0, 0, 50, 50, 1, 1)
	def.SubsetName = "sub1"
	def.NodeNames = []string{"amplitude"}
	first, _ := build(t, src, def)

	info := first.MetadataRoot().Element(HistoryName).Element(SubsetInfoName)
	require.NotNil(t, info)
	assert.Equal(t, "S1A_IW_GRDH", info.AttributeString("SourceProduct.name", ""))
	assert.Equal(t, int64(50), info.AttributeInt("SubRegion.width", 0))
	assert.Equal(t, "amplitude", info.AttributeString("ProductNodeName.1", ""))
	assert.Nil(t, src.MetadataRoot().Element(HistoryName))

	second := product.NewSubsetDef()
	second.SubsetName = "sub2"
	second.SubSamplingX = 2
	target, _ := build(t, first, second)
	history := target.MetadataRoot().Element(HistoryName)
	require.Len(t, history.Elements(), 1)
	latest := history.Element(SubsetInfoName)
	assert.Equal(t, "sub1", latest.AttributeString("SourceProduct.name", ""))
	assert.Equal(t, int64(2), latest.AttributeInt("SubSampling.x", 0))
	assert.Nil(t, latest.Attribute("SubRegion.width"))

	nested := latest.Element(SubsetInfoName)
	require.NotNil(t, nested)
	assert.Equal(t, "S1A_IW_GRDH", nested.AttributeString("SourceProduct.name", ""))
}

func flagProduct(t *testing.T) (*product.Product, *product.SampleCoding) {
	t.Helper()
	src := sourceProduct(t, 8, 8)
	coding := product.NewFlagCoding("l2_flags")
	coding.AddFlag("LAND", 1, "land pixel")
	require.NoError(t, src.AddFlagCoding(coding))
	flags := product.NewBand("flags", product.TypeUint8, 8, 8)
	_, err := flags.EnsureData()
	require.NoError(t, err)
	flags.SampleCoding = coding
	require.NoError(t, src.AddBand(flags))
	return src, coding
}

func TestSubsetSampleCodings(t *testing.T) {
	src, coding := flagProduct(t)
	target, b := build(t, src, regionDef(0, 0, 4, 4, 1, 1))
	assert.Empty(t, b.Warnings())

	tc, ok := target.FlagCodings().Get("l2_flags")
	require.True(t, ok)
	assert.NotSame(t, coding, tc)
	assert.Same(t, tc, target.Band("flags").SampleCoding)
}

func TestSubsetIgnoreMetadata(t *testing.T) {
	src, _ := flagProduct(t)
	require.NoError(t, product.AddCornerGeoCoding(src, [4]float64{-30, -30, -31, -31}, [4]float64{140, 141, 140, 141}))
	src.MetadataRoot().AddElement(product.NewMetadataElement("Original_Product_Metadata"))

	def := product.NewSubsetDef()
	def.IgnoreMetadata = true
	target, b := build(t, src, def)

	assert.Equal(t, 0, target.FlagCodings().Len())
	assert.Equal(t, 0, target.TiePointGrids().Len())
	assert.Nil(t, target.GeoCoding())
	assert.Nil(t, target.MetadataRoot().Element("Original_Product_Metadata"))
	assert.NotNil(t, target.MetadataRoot().Element(HistoryName))
	assert.Nil(t, target.Band("flags").SampleCoding)
	assert.True(t, warningsContain(b.Warnings(), "l2_flags"))
}

func TestSubsetStxFullSceneOnly(t *testing.T) {
	src := sourceProduct(t, 6, 6)
	src.Band("amplitude").SetStx(product.NewStx([]float64{1, 2, 3}, false))

	full, _ := build(t, src, nil)
	require.NotNil(t, full.Band("amplitude").Stx())
	assert.NotSame(t, src.Band("amplitude").Stx(), full.Band("amplitude").Stx())
	assert.Equal(t, 3, full.Band("amplitude").Stx().SampleCount)

	part, _ := build(t, src, regionDef(1, 1, 3, 3, 1, 1))
	assert.Nil(t, part.Band("amplitude").Stx())

	sub, _ := build(t, src, regionDef(0, 0, 6, 6, 2, 1))
	assert.Nil(t, sub.Band("amplitude").Stx())
}

func virtualProduct(t *testing.T) *product.Product {
	t.Helper()
	src, err := product.NewProduct("L1B", "RR", 4, 4)
	require.NoError(t, err)
	require.NoError(t, src.AddBand(residentBand(t, "a", 4, 4)))
	require.NoError(t, src.AddBand(product.NewVirtualBand("v", product.TypeFloat32, 4, 4, "a * 2")))
	return src
}

func TestSubsetVirtualBands(t *testing.T) {
	src := virtualProduct(t)

	def := product.NewSubsetDef()
	def.NodeNames = []string{"a", "v"}
	target, b := build(t, src, def)
	assert.Empty(t, b.Warnings())
	v := target.Band("v")
	require.NotNil(t, v)
	assert.True(t, v.IsVirtual())
	assert.Equal(t, "a * 2", v.Expression())

	def = product.NewSubsetDef()
	def.NodeNames = []string{"v"}
	target, b = build(t, src, def)
	assert.True(t, target.Band("v").IsVirtual())
	assert.True(t, warningsContain(b.Warnings(), "v"))
}

func TestSubsetVirtualBandsAsReal(t *testing.T) {
	src := virtualProduct(t)
	def := regionDef(1, 1, 2, 2, 1, 1)
	def.NodeNames = []string{"v"}
	def.TreatVirtualBandsAsRealBands = true

	target, b := create(t, src, def)
	assert.Empty(t, b.Warnings())
	v := target.Band("v")
	require.NotNil(t, v)
	assert.False(t, v.IsVirtual())
	assert.True(t, v.HasData())
	assert.Equal(t, []float32{10, 12, 18, 20}, floats(v.Data()))
}

func TestSubsetMasks(t *testing.T) {
	src := sourceProduct(t, 4, 4)
	require.NoError(t, src.AddBand(residentBand(t, "b", 4, 4)))
	require.NoError(t, src.AddMask(product.NewMask("bright", "amplitude > 1", color.RGBA{R: 255, A: 255}, 0.5)))
	require.NoError(t, src.AddMask(product.NewMask("dim", "b < 1", color.RGBA{B: 255, A: 255}, 0.5)))

	def := product.NewSubsetDef()
	def.NodeNames = []string{"b"}
	target, b := build(t, src, def)
	assert.Equal(t, []string{"dim"}, target.Masks().Names())
	assert.True(t, warningsContain(b.Warnings(), "bright"))
}

type opaqueGeoCoding struct{}

func (opaqueGeoCoding) GeoPos(product.PixelPos) (product.GeoPos, bool) { return product.GeoPos{}, false }
func (opaqueGeoCoding) Dispose()                                      {}

func TestSubsetGeoCodingNotTransferred(t *testing.T) {
	src := sourceProduct(t, 4, 4)
	require.NoError(t, src.SetGeoCoding(opaqueGeoCoding{}))
	target, b := build(t, src, regionDef(0, 0, 2, 2, 1, 1))
	assert.Nil(t, target.GeoCoding())
	assert.True(t, warningsContain(b.Warnings(), "geocoding"))
}

func TestSubsetTiePointGeoCoding(t *testing.T) {
	src := sourceProduct(t, 20, 20)
	require.NoError(t, product.AddCornerGeoCoding(src, [4]float64{-30, -30, -31, -31}, [4]float64{140, 141, 140, 141}))

	def := regionDef(5, 5, 10, 10, 1, 1)
	def.NodeNames = []string{"amplitude"}
	target, b := build(t, src, def)
	assert.Empty(t, b.Warnings())
	assert.ElementsMatch(t, []string{"latitude", "longitude"}, target.TiePointGrids().Names())

	gc, ok := target.GeoCoding().(*product.TiePointGeoCoding)
	require.True(t, ok)
	assert.Same(t, target.TiePointGrid("latitude"), gc.LatGrid)
	assert.Same(t, target.TiePointGrid("longitude"), gc.LonGrid)

	want, _ := src.GeoCoding().GeoPos(product.PixelPos{X: 5.5, Y: 5.5})
	got, _ := gc.GeoPos(product.PixelPos{X: 0.5, Y: 0.5})
	assert.InDelta(t, want.Lat, got.Lat, 1e-4)
	assert.InDelta(t, want.Lon, got.Lon, 1e-4)
}

func TestNewSubsetBuilderErrors(t *testing.T) {
	src := sourceProduct(t, 100, 80)

	_, err := NewSubsetBuilder(src, regionDef(90, 0, 20, 10, 1, 1))
	assert.True(t, utils.IsConfigurationError(err))
	_, err = NewSubsetBuilder(src, regionDef(0, 0, 10, 10, 0, 1))
	assert.True(t, utils.IsConfigurationError(err))
	_, err = NewSubsetBuilder(nil, nil)
	assert.True(t, utils.IsConfigurationError(err))

	gone := sourceProduct(t, 4, 4)
	gone.Dispose()
	_, err = NewSubsetBuilder(gone, nil)
	assert.True(t, utils.IsConfigurationError(err))
}

func TestSubsetCancelled(t *testing.T) {
	b, err := NewSubsetBuilder(sourceProduct(t, 4, 4), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.CreateSubset(ctx)
	assert.True(t, utils.IsCancelled(err))
}

// cancellingTransfer cancels the build once the geocoding step is reached.
type cancellingTransfer struct{ cancel context.CancelFunc }

func (c cancellingTransfer) TransferGeoCoding(src, target *product.Product, def *product.SubsetDef) bool {
	c.cancel()
	return true
}

func TestSubsetCancelledAfterBands(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, src *product.Product)
	}{
		{"masks", func(t *testing.T, src *product.Product) {
			require.NoError(t, src.AddMask(product.NewMask("bright", "amplitude > 1", color.RGBA{R: 255, A: 255}, 0.5)))
		}},
		{"pins", func(t *testing.T, src *product.Product) {
			require.NoError(t, src.AddPin(product.NewPlacemark("p", "", product.PixelPos{X: 1, Y: 1}, nil)))
		}},
		{"gcps", func(t *testing.T, src *product.Product) {
			require.NoError(t, src.AddGCP(product.NewPlacemark("g", "", product.PixelPos{X: 1, Y: 1}, nil)))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sourceProduct(t, 4, 4)
			require.NoError(t, src.SetGeoCoding(opaqueGeoCoding{}))
			tt.setup(t, src)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			b, err := NewSubsetBuilder(src, nil)
			require.NoError(t, err)
			b.Transfer = cancellingTransfer{cancel: cancel}

			target, err := b.Build(ctx)
			assert.Nil(t, target)
			assert.True(t, utils.IsCancelled(err))
		})
	}
}

func TestSubsetMetrics(t *testing.T) {
	b, err := NewSubsetBuilder(sourceProduct(t, 10, 10), regionDef(0, 0, 10, 5, 1, 1))
	require.NoError(t, err)
	b.Metrics = metrics.NewMetricsCollector(nil)
	pm := NewLogProgress(nil)
	b.Progress = pm

	_, err = b.CreateSubset(context.Background())
	require.NoError(t, err)
	info := b.Metrics.Snapshot()
	assert.Equal(t, int64(5), info.Copy.RowsRead)
	assert.Equal(t, int64(200), info.Copy.BytesCopied)
	assert.Equal(t, 1, info.Copy.BandsCopied)
	assert.Equal(t, "S1A_IW_GRDH", info.TargetProduct)
	assert.Equal(t, &metrics.RegionInfo{Width: 10, Height: 5}, info.Region)
	assert.Equal(t, 5, pm.WorkedUnits())
}
