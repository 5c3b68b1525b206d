package product

import (
	"math"
	"time"

	"github.com/jmgilman/go/errors"

	"github.com/nci/rsproduct/utils"
)

// Raster is the read-only view shared by bands and tie-point grids.
type Raster interface {
	Name() string
	DataType() DataType
	Width() int
	Height() int
}

// Product is a multi-band scene. Bands share the scene raster size, tie-point
// grids map onto it through their offset and sub-sampling. Raster names are
// unique across bands and grids.
type Product struct {
	name        string
	ProductType string
	Description string
	width       int
	height      int
	StartTime   *time.Time
	EndTime     *time.Time

	metadataRoot  *MetadataElement
	geoCoding     GeoCoding
	bands         *NodeList[*Band]
	tiePointGrids *NodeList[*TiePointGrid]
	flagCodings   *NodeList[*SampleCoding]
	indexCodings  *NodeList[*SampleCoding]
	pins          *NodeList[*Placemark]
	gcps          *NodeList[*Placemark]
	masks         *NodeList[*Mask]
	validMasks    *ValidMaskCache
	disposed      bool
}

// MetadataRootName is the name of every product's metadata root element.
const MetadataRootName = "metadata"

func NewProduct(name, productType string, width, height int) (*Product, error) {
	if name == "" {
		return nil, utils.ConfigurationError("product: name must not be empty")
	}
	if width < 1 || height < 1 {
		return nil, utils.ConfigurationError("product '%s': invalid scene size %dx%d", name, width, height)
	}
	p := &Product{
		name:          name,
		ProductType:   productType,
		width:         width,
		height:        height,
		metadataRoot:  NewMetadataElement(MetadataRootName),
		bands:         NewNodeList[*Band]("band"),
		tiePointGrids: NewNodeList[*TiePointGrid]("tie-point grid"),
		flagCodings:   NewNodeList[*SampleCoding]("flag coding"),
		indexCodings:  NewNodeList[*SampleCoding]("index coding"),
		pins:          NewNodeList[*Placemark]("pin"),
		gcps:          NewNodeList[*Placemark]("gcp"),
		masks:         NewNodeList[*Mask]("mask"),
	}
	p.validMasks = newValidMaskCache(p)
	return p, nil
}

func (p *Product) Name() string           { return p.name }
func (p *Product) SceneRasterWidth() int  { return p.width }
func (p *Product) SceneRasterHeight() int { return p.height }

func (p *Product) MetadataRoot() *MetadataElement { return p.metadataRoot }

// SetMetadataRoot replaces the metadata tree. A nil root resets it to an
// empty element.
func (p *Product) SetMetadataRoot(root *MetadataElement) {
	if root == nil {
		root = NewMetadataElement(MetadataRootName)
	}
	p.metadataRoot = root
}

func (p *Product) Bands() *NodeList[*Band]                 { return p.bands }
func (p *Product) TiePointGrids() *NodeList[*TiePointGrid] { return p.tiePointGrids }
func (p *Product) FlagCodings() *NodeList[*SampleCoding]   { return p.flagCodings }
func (p *Product) IndexCodings() *NodeList[*SampleCoding]  { return p.indexCodings }
func (p *Product) Pins() *NodeList[*Placemark]             { return p.pins }
func (p *Product) GCPs() *NodeList[*Placemark]             { return p.gcps }
func (p *Product) Masks() *NodeList[*Mask]                 { return p.masks }
func (p *Product) ValidMasks() *ValidMaskCache             { return p.validMasks }

func (p *Product) Band(name string) *Band {
	b, _ := p.bands.Get(name)
	return b
}

func (p *Product) TiePointGrid(name string) *TiePointGrid {
	g, _ := p.tiePointGrids.Get(name)
	return g
}

// RasterDataNode returns the band or tie-point grid called name, or nil.
func (p *Product) RasterDataNode(name string) Raster {
	if b, ok := p.bands.Get(name); ok {
		return b
	}
	if g, ok := p.tiePointGrids.Get(name); ok {
		return g
	}
	return nil
}

func (p *Product) ContainsRasterDataNode(name string) bool {
	return p.bands.Contains(name) || p.tiePointGrids.Contains(name)
}

// AddBand adds a scene sized band. A nil band is ignored.
func (p *Product) AddBand(b *Band) error {
	if b == nil {
		return nil
	}
	if b.width != p.width || b.height != p.height {
		return utils.ConfigurationError("band '%s': raster size %dx%d does not match scene size %dx%d", b.name, b.width, b.height, p.width, p.height)
	}
	if p.ContainsRasterDataNode(b.name) {
		return utils.NameCollisionError("raster", b.name)
	}
	if err := p.bands.Add(b); err != nil {
		return err
	}
	b.product = p
	return nil
}

func (p *Product) RemoveBand(b *Band) bool {
	if !p.bands.Remove(b) {
		return false
	}
	p.validMasks.Clear()
	return true
}

func (p *Product) AddTiePointGrid(g *TiePointGrid) error {
	if g == nil {
		return nil
	}
	if p.ContainsRasterDataNode(g.name) {
		return utils.NameCollisionError("raster", g.name)
	}
	if err := p.tiePointGrids.Add(g); err != nil {
		return err
	}
	g.product = p
	return nil
}

func (p *Product) AddFlagCoding(c *SampleCoding) error {
	if c != nil && !c.IsFlagCoding() {
		return utils.ConfigurationError("'%s' is not a flag coding", c.name)
	}
	return p.flagCodings.Add(c)
}

func (p *Product) AddIndexCoding(c *SampleCoding) error {
	if c != nil && c.IsFlagCoding() {
		return utils.ConfigurationError("'%s' is not an index coding", c.name)
	}
	return p.indexCodings.Add(c)
}

// SampleCoding looks a coding up by name in the flag codings, then the index
// codings.
func (p *Product) SampleCoding(name string) *SampleCoding {
	if c, ok := p.flagCodings.Get(name); ok {
		return c
	}
	c, _ := p.indexCodings.Get(name)
	return c
}

func (p *Product) AddMask(m *Mask) error {
	return p.masks.Add(m)
}

// AddPin adds a pin, deriving its geodetic position when it has none.
func (p *Product) AddPin(pin *Placemark) error {
	if pin != nil && pin.GeoPos == nil {
		pin.updateGeoPos(p.geoCoding)
	}
	return p.pins.Add(pin)
}

func (p *Product) AddGCP(gcp *Placemark) error {
	return p.gcps.Add(gcp)
}

func (p *Product) GeoCoding() GeoCoding { return p.geoCoding }

// SetGeoCoding validates and attaches gc, disposing the previous geocoding,
// then updates the geodetic position of every pin.
func (p *Product) SetGeoCoding(gc GeoCoding) error {
	switch t := gc.(type) {
	case *TiePointGeoCoding:
		if t.LatGrid == nil || t.LonGrid == nil {
			return utils.ConfigurationError("product '%s': tie-point geocoding without latitude/longitude grid", p.name)
		}
		if p.TiePointGrid(t.LatGrid.name) != t.LatGrid || p.TiePointGrid(t.LonGrid.name) != t.LonGrid {
			return utils.ConfigurationError("product '%s': geocoding grids '%s'/'%s' do not belong to this product", p.name, t.LatGrid.name, t.LonGrid.name)
		}
	case *MapGeoCoding:
		if t.Width != p.width || t.Height != p.height {
			return utils.ConfigurationError("product '%s': map geocoding size %dx%d does not match scene size %dx%d", p.name, t.Width, t.Height, p.width, p.height)
		}
	}
	if p.geoCoding != nil && p.geoCoding != gc {
		p.geoCoding.Dispose()
	}
	p.geoCoding = gc
	p.geoCodingChanged()
	return nil
}

func (p *Product) geoCodingChanged() {
	for _, pin := range p.pins.nodes {
		pin.updateGeoPos(p.geoCoding)
	}
}

// RenameRaster renames a band or tie-point grid and rewrites every
// expression of the product that refers to it.
func (p *Product) RenameRaster(oldName, newName string) error {
	raster := p.RasterDataNode(oldName)
	if raster == nil {
		return errors.Newf(errors.CodeNotFound, "product '%s': no raster '%s'", p.name, oldName)
	}
	if newName == "" {
		return utils.ConfigurationError("product '%s': empty raster name", p.name)
	}
	if existing := p.RasterDataNode(newName); existing != nil && existing != raster {
		return utils.NameCollisionError("raster", newName)
	}
	switch r := raster.(type) {
	case *Band:
		r.name = newName
	case *TiePointGrid:
		r.name = newName
	}
	p.rasterRenamed(oldName, newName)
	return nil
}

func (p *Product) rasterRenamed(oldName, newName string) {
	p.Walk(func(ref NodeRef) bool {
		renameInNode(ref, oldName, newName)
		return true
	})
	p.validMasks.Clear()
}

// IsCompatibleProduct reports whether other covers the same scene: equal
// raster size and, when both are geocoded, geodetic positions within eps
// at the scene corners and centre.
func (p *Product) IsCompatibleProduct(other *Product, eps float64) bool {
	if other == nil {
		return false
	}
	if p == other {
		return true
	}
	if p.width != other.width || p.height != other.height {
		return false
	}
	if p.geoCoding == nil || other.geoCoding == nil {
		return p.geoCoding == nil && other.geoCoding == nil
	}
	w, h := float64(p.width), float64(p.height)
	for _, pos := range []PixelPos{{0.5, 0.5}, {w - 0.5, 0.5}, {0.5, h - 0.5}, {w - 0.5, h - 0.5}, {w / 2, h / 2}} {
		g1, ok1 := p.geoCoding.GeoPos(pos)
		g2, ok2 := other.geoCoding.GeoPos(pos)
		if ok1 != ok2 {
			return false
		}
		if ok1 && (math.Abs(g1.Lat-g2.Lat) > eps || math.Abs(g1.Lon-g2.Lon) > eps) {
			return false
		}
	}
	return true
}

// Verify runs sanity checks on a product built by a reader or a subset.
func (p *Product) Verify(verifyTimes, verifyGeoCoding bool) error {
	if p.metadataRoot == nil {
		return errors.Newf(errors.CodeSchemaFailed, "product '%s': metadata root is missing", p.name)
	}
	if p.bands.Len() == 0 {
		return errors.Newf(errors.CodeSchemaFailed, "product '%s': no bands", p.name)
	}
	if p.ProductType == "" {
		return errors.Newf(errors.CodeSchemaFailed, "product '%s': product type is missing", p.name)
	}
	if verifyTimes {
		if p.StartTime == nil || p.EndTime == nil {
			return errors.Newf(errors.CodeSchemaFailed, "product '%s': start or end time is missing", p.name)
		}
		if p.EndTime.Before(*p.StartTime) {
			return errors.Newf(errors.CodeSchemaFailed, "product '%s': end time is before start time", p.name)
		}
	}
	if verifyGeoCoding && p.geoCoding == nil {
		return errors.Newf(errors.CodeSchemaFailed, "product '%s': geocoding is missing", p.name)
	}
	for _, b := range p.bands.nodes {
		if b.Unit == "" {
			return errors.WithContext(
				errors.Newf(errors.CodeSchemaFailed, "product '%s': band '%s' has no unit", p.name, b.name),
				"node", b.name)
		}
	}
	return nil
}

func (p *Product) IsDisposed() bool { return p.disposed }

// Dispose releases every owned node and the geocoding. Later calls are
// no-ops.
func (p *Product) Dispose() {
	if p.disposed {
		return
	}
	p.Walk(func(ref NodeRef) bool {
		disposeNode(ref)
		return true
	})
	if p.geoCoding != nil {
		p.geoCoding.Dispose()
		p.geoCoding = nil
	}
	for _, l := range []nodeContainer{p.bands, p.tiePointGrids, p.flagCodings, p.indexCodings, p.pins, p.gcps, p.masks} {
		l.disposeRemoved()
		l.reset()
	}
	p.validMasks.Clear()
	p.metadataRoot = nil
	p.disposed = true
}
