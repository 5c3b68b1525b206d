package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/nci/rsproduct/product"
)

const (
	AbstractedMetadataName = "Abstracted_Metadata"
	HistoryName            = "history"
	SubsetInfoName         = "SubsetInfo"

	halfLightSpeed = 299792458.0 / 2.0
)

// updateAbstractedMetadata rewrites the geometry dependent attributes of
// the abstracted metadata element. Attributes are only updated, never
// created.
func (b *SubsetBuilder) updateAbstractedMetadata(ctx context.Context, target *product.Product) error {
	abs := target.MetadataRoot().Element(AbstractedMetadataName)
	if abs == nil {
		return nil
	}
	nearRangeOnLeft := !(abs.AttributeString("MISSION", "") == "RS2" &&
		strings.Contains(abs.AttributeString("PASS", ""), "DESCENDING"))

	has := func(name string) bool {
		if abs.Attribute(name) != nil {
			return true
		}
		b.warn(AbstractedMetadataName+"."+name, "attribute missing")
		return false
	}
	setInt := func(name string, v int) {
		if has(name) {
			if err := abs.SetAttributeInt(name, v); err != nil {
				b.warn(AbstractedMetadataName+"."+name, err.Error())
			}
		}
	}

	if target.StartTime != nil && has("first_line_time") {
		abs.SetAttributeUTC("first_line_time", *target.StartTime)
	}
	if target.EndTime != nil && has("last_line_time") {
		abs.SetAttributeUTC("last_line_time", *target.EndTime)
	}
	// raw storage size in bytes
	setInt("total_size", int(target.RawStorageSize(nil)))

	w, h := float64(target.SceneRasterWidth()), float64(target.SceneRasterHeight())
	near, far := 0.5, w-1+0.5
	if !nearRangeOnLeft {
		near, far = far, near
	}
	if gc := target.GeoCoding(); gc != nil {
		corners := []struct {
			lat, lon string
			x, y     float64
		}{
			{"first_near_lat", "first_near_long", near, 0.5},
			{"first_far_lat", "first_far_long", far, 0.5},
			{"last_near_lat", "last_near_long", near, h - 1 + 0.5},
			{"last_far_lat", "last_far_long", far, h - 1 + 0.5},
		}
		for _, c := range corners {
			pos, ok := gc.GeoPos(product.PixelPos{X: c.x, Y: c.y})
			if !ok {
				continue
			}
			if has(c.lat) {
				abs.SetAttributeDouble(c.lat, pos.Lat)
			}
			if has(c.lon) {
				abs.SetAttributeDouble(c.lon, pos.Lon)
			}
		}
	}

	setInt("num_output_lines", target.SceneRasterHeight())
	setInt("num_samples_per_line", target.SceneRasterWidth())
	if b.Def.Region != nil {
		setInt("subset_offset_x", b.Def.Region.X)
		setInt("subset_offset_y", b.Def.Region.Y)
	}

	if abs.Attribute("slant_range_to_first_pixel") != nil {
		if srt := target.TiePointGrid("slant_range_time"); srt != nil {
			x := 0
			if !nearRangeOnLeft {
				x = target.SceneRasterWidth() - 1
			}
			// slant range time is in nanoseconds
			abs.SetAttributeDouble("slant_range_to_first_pixel", srt.PixelValue(x, 0)/1e9*halfLightSpeed)
		}
	}

	b.updateSRGRCoefficients(target, abs)
	return nil
}

// updateSRGRCoefficients drops coefficient records outside the subset time
// span, except the last one before its start, and shifts the ground range
// origin of the rest by the subset column offset.
func (b *SubsetBuilder) updateSRGRCoefficients(target *product.Product, abs *product.MetadataElement) {
	srgr := abs.Element("SRGR_Coefficients")
	if srgr == nil {
		return
	}
	rangeSpacing := abs.AttributeDouble("RANGE_SPACING", 0)
	colIndex := 0.0
	if b.Def.Region != nil {
		colIndex = float64(b.Def.Region.X)
	}
	timed := target.StartTime != nil && target.EndTime != nil

	var beforeStart *product.MetadataElement
	if timed {
		for _, rec := range srgr.Elements() {
			t, ok := rec.AttributeUTC("zero_doppler_time")
			if !ok || !t.Before(*target.StartTime) {
				continue
			}
			if beforeStart == nil {
				beforeStart = rec
			} else if latest, _ := beforeStart.AttributeUTC("zero_doppler_time"); latest.Before(t) {
				beforeStart = rec
			}
		}
	}

	records := append([]*product.MetadataElement(nil), srgr.Elements()...)
	for _, rec := range records {
		if t, ok := rec.AttributeUTC("zero_doppler_time"); ok && timed && rec != beforeStart &&
			(t.Before(*target.StartTime) || t.After(*target.EndTime)) {
			srgr.RemoveElement(rec)
			continue
		}
		origin := rec.AttributeDouble("ground_range_origin", 0)
		rec.SetAttributeDouble("ground_range_origin", origin+colIndex*rangeSpacing)
	}
}

// addSubsetInfo records the request under the history element. A
// SubsetInfo left by an earlier subset is nested in the new one.
func (b *SubsetBuilder) addSubsetInfo(ctx context.Context, target *product.Product) error {
	def := b.Def
	info := product.NewMetadataElement(SubsetInfoName)
	info.SetAttributeString("SourceProduct.name", b.Source.Name())
	if err := info.SetAttributeInt("SubSampling.x", def.SubSamplingX); err != nil {
		return err
	}
	if err := info.SetAttributeInt("SubSampling.y", def.SubSamplingY); err != nil {
		return err
	}
	if r := def.Region; r != nil {
		for _, a := range []struct {
			name string
			v    int
		}{{"SubRegion.x", r.X}, {"SubRegion.y", r.Y}, {"SubRegion.width", r.Width}, {"SubRegion.height", r.Height}} {
			if err := info.SetAttributeInt(a.name, a.v); err != nil {
				return err
			}
		}
	}
	for i, name := range def.NodeNames {
		info.SetAttributeString(fmt.Sprintf("ProductNodeName.%d", i+1), name)
	}

	root := target.MetadataRoot()
	history := root.Element(HistoryName)
	if history == nil {
		history = product.NewMetadataElement(HistoryName)
		root.AddElement(history)
	}
	if previous := history.Element(SubsetInfoName); previous != nil {
		history.RemoveElement(previous)
		info.AddElement(previous)
	}
	history.AddElement(info)
	return nil
}
