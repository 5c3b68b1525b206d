package processor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nci/rsproduct/metrics"
	"github.com/nci/rsproduct/product"
	"github.com/nci/rsproduct/scene"
	"github.com/nci/rsproduct/utils"
)

// SubsetBuilder derives a reduced product from a source product. The
// source is never modified. A builder serves one request; any error leaves
// no usable target behind.
type SubsetBuilder struct {
	Source   *product.Product
	Def      *product.SubsetDef
	Transfer scene.GeoCodingTransfer
	Log      logrus.FieldLogger
	Metrics  *metrics.MetricsCollector
	Progress ProgressMonitor
	// Providers replaces the raster provider of source bands for reads made
	// by this builder. The source bands themselves are left untouched.
	Providers map[*product.Band]product.RasterProvider

	region   product.Rect
	width    int
	height   int
	sources  map[*product.Band]*product.Band
	warnings []error
}

// NewSubsetBuilder validates def against src. A nil def selects the full
// scene.
func NewSubsetBuilder(src *product.Product, def *product.SubsetDef) (*SubsetBuilder, error) {
	if src == nil || src.IsDisposed() {
		return nil, utils.ConfigurationError("subset: source product is missing or disposed")
	}
	if def == nil {
		def = product.NewSubsetDef()
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	full := product.Rect{Width: src.SceneRasterWidth(), Height: src.SceneRasterHeight()}
	region := def.RegionOrFull(full.Width, full.Height)
	if !full.Contains(region) {
		return nil, utils.ConfigurationError("subset: region (%d,%d,%d,%d) exceeds %dx%d scene of '%s'",
			region.X, region.Y, region.Width, region.Height, full.Width, full.Height, src.Name())
	}
	w, h := def.SceneRasterSize(full.Width, full.Height)
	return &SubsetBuilder{
		Source:  src,
		Def:     def,
		Log:     logrus.StandardLogger(),
		region:  region,
		width:   w,
		height:  h,
		sources: map[*product.Band]*product.Band{},
	}, nil
}

// Warnings returns the incompatibilities recorded by the last build.
func (b *SubsetBuilder) Warnings() []error {
	return b.warnings
}

func (b *SubsetBuilder) warn(node, reason string) {
	w := utils.IncompatibilityWarning(node, reason)
	b.warnings = append(b.warnings, w)
	b.log().WithFields(logrus.Fields{"product": b.Source.Name(), "node": node, "reason": reason}).Warn("subset incompatibility")
	b.Metrics.AddWarning(w.Error())
}

func (b *SubsetBuilder) log() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}

func (b *SubsetBuilder) transfer() scene.GeoCodingTransfer {
	if b.Transfer == nil {
		return &scene.DefaultTransfer{Log: b.log()}
	}
	return b.Transfer
}

// Build creates the subset structure. Bands of the target read their
// pixels lazily from the source bands.
func (b *SubsetBuilder) Build(ctx context.Context) (*product.Product, error) {
	start := time.Now()
	b.warnings = nil
	b.sources = map[*product.Band]*product.Band{}
	if err := utils.CheckCancelled(ctx); err != nil {
		return nil, err
	}

	src, def := b.Source, b.Def
	name := def.SubsetName
	if name == "" {
		name = src.Name()
	}
	target, err := product.NewProduct(name, src.ProductType, b.width, b.height)
	if err != nil {
		return nil, err
	}
	target.Description = def.Description
	if target.Description == "" {
		target.Description = src.Description
	}

	steps := []func(context.Context, *product.Product) error{
		b.copyMetadata,
		b.copyBands,
		b.copyGeoCoding,
		b.copyTimes,
		b.copyPlacemarks,
		b.updateAbstractedMetadata,
		b.addSubsetInfo,
		b.copyMasks,
	}
	for _, step := range steps {
		if err := step(ctx, target); err != nil {
			target.Dispose()
			return nil, err
		}
	}

	b.Metrics.Update(func(info *metrics.SubsetInfo) {
		info.SourceProduct = src.Name()
		info.TargetProduct = target.Name()
		info.SourceWidth, info.SourceHeight = src.SceneRasterWidth(), src.SceneRasterHeight()
		info.Region = &metrics.RegionInfo{X: b.region.X, Y: b.region.Y, Width: b.region.Width, Height: b.region.Height}
		info.SubSamplingX, info.SubSamplingY = def.SubSamplingX, def.SubSamplingY
		info.NodeNames = target.Bands().Names()
		info.ReqDuration += time.Since(start)
	})
	b.log().WithFields(logrus.Fields{
		"product": target.Name(),
		"source":  src.Name(),
		"width":   target.SceneRasterWidth(),
		"height":  target.SceneRasterHeight(),
		"bands":   target.Bands().Len(),
	}).Debug("subset built")
	return target, nil
}

// CreateSubset builds the subset and copies the pixels of every
// non-virtual band into resident buffers.
func (b *SubsetBuilder) CreateSubset(ctx context.Context) (*product.Product, error) {
	target, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	for _, dest := range target.Bands().All() {
		if dest.IsVirtual() {
			continue
		}
		if err := b.materialise(ctx, dest); err != nil {
			target.Dispose()
			return nil, err
		}
	}
	return target, nil
}

// sourceProvider returns where the samples of source band sb are read from.
func (b *SubsetBuilder) sourceProvider(sb *product.Band) product.RasterProvider {
	if rp, ok := b.Providers[sb]; ok {
		return rp
	}
	return sb.RasterProvider()
}

func (b *SubsetBuilder) materialise(ctx context.Context, dest *product.Band) error {
	start := time.Now()
	src := b.sources[dest]
	data, err := product.NewProductData(dest.DataType(), dest.Width()*dest.Height())
	if err != nil {
		return err
	}
	stats, err := copyRegion(ctx, src, b.sourceProvider(src), b.region, b.Def.SubSamplingX, b.Def.SubSamplingY, data, b.Progress)
	b.Metrics.AddCopy(stats.RowsRead, stats.BytesCopied)
	if err != nil {
		return err
	}
	if err := dest.SetData(data); err != nil {
		return err
	}
	dest.SetProvider(nil)
	b.Metrics.AddBandCopied(time.Since(start))
	return nil
}

// copyMetadata copies the metadata tree, the tie-point grids and the
// sample codings. Latitude and longitude grids of a tie-point geocoding are
// kept even when not selected.
func (b *SubsetBuilder) copyMetadata(ctx context.Context, target *product.Product) error {
	if b.Def.IgnoreMetadata {
		return nil
	}
	src := b.Source
	target.SetMetadataRoot(src.MetadataRoot().Clone())

	geoGrids := map[*product.TiePointGrid]bool{}
	if tgc, ok := src.GeoCoding().(*product.TiePointGeoCoding); ok {
		geoGrids[tgc.LatGrid] = true
		geoGrids[tgc.LonGrid] = true
	}
	fullScene := b.Def.IsFullScene(src.SceneRasterWidth(), src.SceneRasterHeight())
	for _, grid := range src.TiePointGrids().All() {
		if err := utils.CheckCancelled(ctx); err != nil {
			return err
		}
		if !b.Def.IsNodeAccepted(grid.Name()) && !geoGrids[grid] {
			continue
		}
		sub, err := grid.CreateSubset(src.SceneRasterWidth(), src.SceneRasterHeight(), b.Def)
		if err != nil {
			return err
		}
		if fullScene && grid.Stx() != nil {
			sub.SetStx(grid.Stx().Clone())
		}
		sub.ImageInfo = grid.ImageInfo.Clone()
		if err := target.AddTiePointGrid(sub); err != nil {
			return err
		}
	}

	for _, c := range src.FlagCodings().All() {
		if err := target.AddFlagCoding(c.Clone()); err != nil {
			return err
		}
	}
	for _, c := range src.IndexCodings().All() {
		if err := target.AddIndexCoding(c.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (b *SubsetBuilder) copyBands(ctx context.Context, target *product.Product) error {
	src, def := b.Source, b.Def
	fullScene := def.IsFullScene(src.SceneRasterWidth(), src.SceneRasterHeight())
	var virtuals []*product.Band

	for _, sb := range src.Bands().All() {
		if err := utils.CheckCancelled(ctx); err != nil {
			return err
		}
		if !def.IsNodeAccepted(sb.Name()) {
			continue
		}
		var db *product.Band
		if sb.IsVirtual() && !def.TreatVirtualBandsAsRealBands {
			db = product.NewVirtualBand(sb.Name(), sb.DataType(), b.width, b.height, sb.Expression())
			virtuals = append(virtuals, db)
		} else {
			db = product.NewBand(sb.Name(), sb.DataType(), b.width, b.height)
			db.SetProvider(&subsetProvider{
				source:   sb,
				provider: b.sourceProvider(sb),
				region:   b.region,
				subX:     def.SubSamplingX,
				subY:     def.SubSamplingY,
				width:    b.width,
				height:   b.height,
				metrics:  b.Metrics,
			})
		}
		db.CopyBandProperties(sb)
		db.SampleCoding = b.targetCoding(target, sb)
		if fullScene && sb.Stx() != nil {
			db.SetStx(sb.Stx().Clone())
		}
		if err := target.AddBand(db); err != nil {
			return err
		}
		b.sources[db] = sb
	}

	for db, sb := range b.sources {
		db.ImageInfo = sb.ImageInfo.Clone()
	}
	for _, vb := range virtuals {
		if !product.IsExpressionValid(target, vb.Expression()) {
			b.warn(vb.Name(), "expression '"+vb.Expression()+"' refers to rasters not in the subset")
		}
	}
	return nil
}

// targetCoding resolves the coding of a source band by name among the
// target's codings.
func (b *SubsetBuilder) targetCoding(target *product.Product, sb *product.Band) *product.SampleCoding {
	sc := sb.SampleCoding
	if sc == nil {
		return nil
	}
	var (
		c  *product.SampleCoding
		ok bool
	)
	if sc.IsFlagCoding() {
		c, ok = target.FlagCodings().Get(sc.Name())
	} else {
		c, ok = target.IndexCodings().Get(sc.Name())
	}
	if !ok {
		b.warn(sb.Name(), "sample coding '"+sc.Name()+"' not present in subset")
		return nil
	}
	return c
}

func (b *SubsetBuilder) copyGeoCoding(ctx context.Context, target *product.Product) error {
	if b.Def.IgnoreMetadata || b.Source.GeoCoding() == nil {
		return nil
	}
	if !b.transfer().TransferGeoCoding(b.Source, target, b.Def) {
		b.warn(target.Name(), "geocoding could not be transferred")
	}
	return nil
}

// copyTimes interpolates the start and end time of the region linearly
// over the source scene lines.
func (b *SubsetBuilder) copyTimes(ctx context.Context, target *product.Product) error {
	src := b.Source
	if src.StartTime == nil || src.EndTime == nil || b.Def.Region == nil || src.SceneRasterHeight() < 2 {
		target.StartTime = copyTime(src.StartTime)
		target.EndTime = copyTime(src.EndTime)
		return nil
	}
	lineRate := float64(src.EndTime.Sub(*src.StartTime)) / float64(src.SceneRasterHeight()-1)
	start := src.StartTime.Add(time.Duration(lineRate * float64(b.region.Y)))
	end := start.Add(time.Duration(lineRate * float64(b.region.Height-1)))
	target.StartTime, target.EndTime = &start, &end
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// copyPlacemarks maps pins and GCPs into subset pixel coordinates. Pins
// falling outside the subset are dropped, GCPs are always kept.
func (b *SubsetBuilder) copyPlacemarks(ctx context.Context, target *product.Product) error {
	subX, subY := float64(b.Def.SubSamplingX), float64(b.Def.SubSamplingY)
	move := func(pm *product.Placemark) *product.Placemark {
		c := pm.Clone()
		c.PixelPos = product.PixelPos{
			X: (pm.PixelPos.X - float64(b.region.X)) / subX,
			Y: (pm.PixelPos.Y - float64(b.region.Y)) / subY,
		}
		return c
	}
	w, h := float64(b.width), float64(b.height)
	for _, pin := range b.Source.Pins().All() {
		if err := utils.CheckCancelled(ctx); err != nil {
			return err
		}
		c := move(pin)
		if c.PixelPos.X < 0 || c.PixelPos.X >= w || c.PixelPos.Y < 0 || c.PixelPos.Y >= h {
			continue
		}
		if err := target.AddPin(c); err != nil {
			return err
		}
	}
	for _, gcp := range b.Source.GCPs().All() {
		if err := utils.CheckCancelled(ctx); err != nil {
			return err
		}
		if err := target.AddGCP(move(gcp)); err != nil {
			return err
		}
	}
	return nil
}

// copyMasks copies masks whose expression can be evaluated on the subset.
func (b *SubsetBuilder) copyMasks(ctx context.Context, target *product.Product) error {
	for _, m := range b.Source.Masks().All() {
		if err := utils.CheckCancelled(ctx); err != nil {
			return err
		}
		if !product.IsExpressionValid(target, m.Expression) {
			b.warn(m.Name(), "mask expression '"+m.Expression+"' refers to rasters not in the subset")
			continue
		}
		if err := target.AddMask(m.Clone()); err != nil {
			return err
		}
	}
	return nil
}
