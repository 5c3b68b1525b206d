package product

import (
	"strings"

	"github.com/nci/rsproduct/utils"
)

// Rect is a pixel rectangle.
type Rect struct {
	X, Y, Width, Height int
}

func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.X+o.Width <= r.X+r.Width && o.Y+o.Height <= r.Y+r.Height
}

// SubsetDef describes a subset request.
type SubsetDef struct {
	SubsetName  string
	Description string
	// Region in source pixels; nil selects the full scene.
	Region       *Rect
	SubSamplingX int
	SubSamplingY int
	// NodeNames lists the nodes to keep; nil keeps all.
	NodeNames                    []string
	IgnoreMetadata               bool
	TreatVirtualBandsAsRealBands bool
}

func NewSubsetDef() *SubsetDef {
	return &SubsetDef{SubSamplingX: 1, SubSamplingY: 1}
}

// Validate rejects non-positive sub-sampling and degenerate regions.
func (d *SubsetDef) Validate() error {
	if d.SubSamplingX < 1 || d.SubSamplingY < 1 {
		return utils.ConfigurationError("subset: sub-sampling %dx%d must be >= 1", d.SubSamplingX, d.SubSamplingY)
	}
	if d.Region != nil && (d.Region.Width <= 0 || d.Region.Height <= 0) {
		return utils.ConfigurationError("subset: degenerate region %dx%d", d.Region.Width, d.Region.Height)
	}
	return nil
}

// RegionOrFull returns the region, or the full scene if none is set.
func (d *SubsetDef) RegionOrFull(sceneWidth, sceneHeight int) Rect {
	if d == nil || d.Region == nil {
		return Rect{Width: sceneWidth, Height: sceneHeight}
	}
	return *d.Region
}

// SceneRasterSize is the subset scene size for a source scene.
func (d *SubsetDef) SceneRasterSize(sceneWidth, sceneHeight int) (int, int) {
	if d == nil {
		return sceneWidth, sceneHeight
	}
	r := d.RegionOrFull(sceneWidth, sceneHeight)
	return StridedSize(r.Width, d.SubSamplingX), StridedSize(r.Height, d.SubSamplingY)
}

// IsNodeAccepted reports whether the node called name is selected.
func (d *SubsetDef) IsNodeAccepted(name string) bool {
	if d == nil || d.NodeNames == nil {
		return true
	}
	for _, n := range d.NodeNames {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func (d *SubsetDef) AddNodeName(name string) {
	if d.NodeNames != nil && d.IsNodeAccepted(name) {
		return
	}
	d.NodeNames = append(d.NodeNames, name)
}

// IsFullScene reports whether def selects every pixel of a sceneWidth x
// sceneHeight scene at unit stride.
func (d *SubsetDef) IsFullScene(sceneWidth, sceneHeight int) bool {
	if d == nil {
		return true
	}
	if d.SubSamplingX != 1 || d.SubSamplingY != 1 {
		return false
	}
	r := d.RegionOrFull(sceneWidth, sceneHeight)
	return r == Rect{Width: sceneWidth, Height: sceneHeight}
}
