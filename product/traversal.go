package product

type NodeKind int

const (
	KindProduct NodeKind = iota
	KindBand
	KindVirtualBand
	KindTiePointGrid
	KindMetadataElement
	KindMetadataAttribute
	KindFlagCoding
	KindIndexCoding
	KindNodeGroup
	KindMask
	KindPlacemark
)

var nodeKindNames = [...]string{
	KindProduct:           "product",
	KindBand:              "band",
	KindVirtualBand:       "virtual band",
	KindTiePointGrid:      "tie-point grid",
	KindMetadataElement:   "metadata element",
	KindMetadataAttribute: "metadata attribute",
	KindFlagCoding:        "flag coding",
	KindIndexCoding:       "index coding",
	KindNodeGroup:         "node group",
	KindMask:              "mask",
	KindPlacemark:         "placemark",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

// NodeRef is one node of a product graph. Exactly the field matching Kind
// is set; KindNodeGroup refs only carry a Group name.
type NodeRef struct {
	Kind      NodeKind
	Group     string
	Product   *Product
	Band      *Band
	Grid      *TiePointGrid
	Element   *MetadataElement
	Attribute *MetadataAttribute
	Coding    *SampleCoding
	Mask      *Mask
	Placemark *Placemark
}

func (r NodeRef) Name() string {
	switch r.Kind {
	case KindProduct:
		return r.Product.name
	case KindBand, KindVirtualBand:
		return r.Band.name
	case KindTiePointGrid:
		return r.Grid.name
	case KindMetadataElement:
		return r.Element.name
	case KindMetadataAttribute:
		return r.Attribute.name
	case KindFlagCoding, KindIndexCoding:
		return r.Coding.name
	case KindMask:
		return r.Mask.name
	case KindPlacemark:
		return r.Placemark.name
	}
	return r.Group
}

// Walk visits the product, then every node group followed by its members,
// then the metadata tree depth first. Returning false from fn skips the
// children of the visited node.
func (p *Product) Walk(fn func(NodeRef) bool) {
	if !fn(NodeRef{Kind: KindProduct, Product: p}) {
		return
	}
	if fn(NodeRef{Kind: KindNodeGroup, Group: "bands"}) {
		for _, b := range p.bands.nodes {
			kind := KindBand
			if b.virtual {
				kind = KindVirtualBand
			}
			fn(NodeRef{Kind: kind, Band: b})
		}
	}
	if fn(NodeRef{Kind: KindNodeGroup, Group: "tie_point_grids"}) {
		for _, g := range p.tiePointGrids.nodes {
			fn(NodeRef{Kind: KindTiePointGrid, Grid: g})
		}
	}
	if fn(NodeRef{Kind: KindNodeGroup, Group: "flag_codings"}) {
		for _, c := range p.flagCodings.nodes {
			fn(NodeRef{Kind: KindFlagCoding, Coding: c})
		}
	}
	if fn(NodeRef{Kind: KindNodeGroup, Group: "index_codings"}) {
		for _, c := range p.indexCodings.nodes {
			fn(NodeRef{Kind: KindIndexCoding, Coding: c})
		}
	}
	if fn(NodeRef{Kind: KindNodeGroup, Group: "masks"}) {
		for _, m := range p.masks.nodes {
			fn(NodeRef{Kind: KindMask, Mask: m})
		}
	}
	if fn(NodeRef{Kind: KindNodeGroup, Group: "pins"}) {
		for _, pm := range p.pins.nodes {
			fn(NodeRef{Kind: KindPlacemark, Placemark: pm})
		}
	}
	if fn(NodeRef{Kind: KindNodeGroup, Group: "gcps"}) {
		for _, pm := range p.gcps.nodes {
			fn(NodeRef{Kind: KindPlacemark, Placemark: pm})
		}
	}
	if p.metadataRoot != nil {
		walkMetadata(p.metadataRoot, fn)
	}
}

func walkMetadata(e *MetadataElement, fn func(NodeRef) bool) {
	if !fn(NodeRef{Kind: KindMetadataElement, Element: e}) {
		return
	}
	for _, a := range e.attributes {
		fn(NodeRef{Kind: KindMetadataAttribute, Attribute: a})
	}
	for _, c := range e.elements {
		walkMetadata(c, fn)
	}
}

func disposeNode(ref NodeRef) {
	switch ref.Kind {
	case KindBand, KindVirtualBand:
		ref.Band.Dispose()
	case KindTiePointGrid:
		ref.Grid.Dispose()
	case KindMetadataAttribute:
		ref.Attribute.Data = nil
	}
}

// renameInNode rewrites the expressions held by one node.
func renameInNode(ref NodeRef, oldName, newName string) {
	switch ref.Kind {
	case KindVirtualBand:
		ref.Band.expression = RenameReferences(ref.Band.expression, oldName, newName)
		fallthrough
	case KindBand:
		if ref.Band.ValidPixelExpression != "" {
			ref.Band.ValidPixelExpression = RenameReferences(ref.Band.ValidPixelExpression, oldName, newName)
		}
	case KindTiePointGrid:
		if ref.Grid.ValidPixelExpression != "" {
			ref.Grid.ValidPixelExpression = RenameReferences(ref.Grid.ValidPixelExpression, oldName, newName)
		}
	case KindMask:
		ref.Mask.Expression = RenameReferences(ref.Mask.Expression, oldName, newName)
	}
}

// nodeSize is the raw storage size of one node under def.
func nodeSize(ref NodeRef, def *SubsetDef, sceneWidth, sceneHeight int) int64 {
	switch ref.Kind {
	case KindBand:
		if !def.IsNodeAccepted(ref.Band.name) {
			return 0
		}
		w, h := def.SceneRasterSize(sceneWidth, sceneHeight)
		return int64(w) * int64(h) * int64(ref.Band.dataType.ElemSize())
	case KindVirtualBand:
		if !def.IsNodeAccepted(ref.Band.name) || def == nil || !def.TreatVirtualBandsAsRealBands {
			return 0
		}
		w, h := def.SceneRasterSize(sceneWidth, sceneHeight)
		return int64(w) * int64(h) * int64(ref.Band.dataType.ElemSize())
	case KindTiePointGrid:
		if !def.IsNodeAccepted(ref.Grid.name) {
			return 0
		}
		return int64(len(ref.Grid.points)) * 4
	case KindFlagCoding, KindIndexCoding:
		if !def.IsNodeAccepted(ref.Coding.name) {
			return 0
		}
		return ref.Coding.SizeInBytes()
	case KindMetadataAttribute:
		if def != nil && def.IgnoreMetadata {
			return 0
		}
		if ref.Attribute.Data != nil {
			return ref.Attribute.Data.SizeInBytes()
		}
	}
	return 0
}

// RawStorageSize estimates the byte size a writer would need for the product
// limited by def. A nil def selects everything.
func (p *Product) RawStorageSize(def *SubsetDef) int64 {
	var size int64
	p.Walk(func(ref NodeRef) bool {
		size += nodeSize(ref, def, p.width, p.height)
		return true
	})
	return size
}
