// Package mas keeps a PostgreSQL catalogue of derived subset products.
package mas

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	geo "github.com/nci/geometry"

	"github.com/nci/rsproduct/product"
)

// Names of the provenance element written by the subset builder.
const (
	historyName    = "history"
	subsetInfoName = "SubsetInfo"
)

// Record is the catalogue entry of one subset product.
type Record struct {
	Name          string     `json:"name"`
	ProductType   string     `json:"product_type"`
	SourceProduct string     `json:"source_product"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	SubSamplingX  int        `json:"sub_sampling_x"`
	SubSamplingY  int        `json:"sub_sampling_y"`
	Region        []int64    `json:"region,omitempty"`
	NodeNames     []string   `json:"node_names"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Footprint     string     `json:"footprint"`
}

// NewRecord extracts the catalogue entry of a subset product from its
// provenance metadata and geocoding. Products without a SubsetInfo element
// are rejected.
func NewRecord(target *product.Product) (*Record, error) {
	var info *product.MetadataElement
	if history := target.MetadataRoot().Element(historyName); history != nil {
		info = history.Element(subsetInfoName)
	}
	if info == nil {
		return nil, errors.Newf(errors.CodeNotFound, "product '%s' has no subset provenance", target.Name())
	}

	rec := &Record{
		Name:          target.Name(),
		ProductType:   target.ProductType,
		SourceProduct: info.AttributeString("SourceProduct.name", ""),
		Width:         target.SceneRasterWidth(),
		Height:        target.SceneRasterHeight(),
		SubSamplingX:  int(info.AttributeInt("SubSampling.x", 1)),
		SubSamplingY:  int(info.AttributeInt("SubSampling.y", 1)),
		NodeNames:     target.Bands().Names(),
		StartTime:     target.StartTime,
		EndTime:       target.EndTime,
		Footprint:     "POLYGON EMPTY",
	}
	if info.Attribute("SubRegion.width") != nil {
		rec.Region = []int64{
			info.AttributeInt("SubRegion.x", 0),
			info.AttributeInt("SubRegion.y", 0),
			info.AttributeInt("SubRegion.width", 0),
			info.AttributeInt("SubRegion.height", 0),
		}
	}
	if gc := target.GeoCoding(); gc != nil {
		wkt, err := footprintWKT(gc, target.SceneRasterWidth(), target.SceneRasterHeight())
		if err != nil {
			return nil, err
		}
		rec.Footprint = wkt
	}
	return rec, nil
}

// footprintWKT outlines the scene through the geodetic positions of its
// four corner pixel centres.
func footprintWKT(gc product.GeoCoding, width, height int) (string, error) {
	w, h := float64(width), float64(height)
	corners := []product.PixelPos{{X: 0.5, Y: 0.5}, {X: w - 0.5, Y: 0.5}, {X: w - 0.5, Y: h - 0.5}, {X: 0.5, Y: h - 0.5}}

	coords := make([]string, 0, len(corners)+1)
	for _, c := range corners {
		pos, ok := gc.GeoPos(c)
		if !ok {
			return "POLYGON EMPTY", nil
		}
		coords = append(coords, fmt.Sprintf("[%v,%v]", pos.Lon, pos.Lat))
	}
	coords = append(coords, coords[0])
	geoJSON := fmt.Sprintf(`{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[%s]]},"properties":{}}`, strings.Join(coords, ","))

	var feat geo.Feature
	if err := json.Unmarshal([]byte(geoJSON), &feat); err != nil {
		return "", fmt.Errorf("Problem unmarshalling GeoJSON object: %v", err)
	}
	return feat.Geometry.MarshalWKT(), nil
}
