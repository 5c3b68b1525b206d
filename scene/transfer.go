// Package scene rebuilds the geocoding of a subset product so that it stays
// consistent with the subset's extent and sub-sampling.
package scene

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nci/rsproduct/product"
)

// GeoCodingTransfer installs on target a geocoding derived from the one of
// src. It returns false when the geocoding cannot be carried over; the
// target is then left without one.
type GeoCodingTransfer interface {
	TransferGeoCoding(src, target *product.Product, def *product.SubsetDef) bool
}

// DefaultTransfer understands tie-point and affine map geocodings.
type DefaultTransfer struct {
	Log logrus.FieldLogger
}

func NewDefaultTransfer() *DefaultTransfer {
	return &DefaultTransfer{Log: logrus.StandardLogger()}
}

func (t *DefaultTransfer) TransferGeoCoding(src, target *product.Product, def *product.SubsetDef) bool {
	if src == nil || target == nil || src.GeoCoding() == nil {
		return false
	}
	var (
		gc  product.GeoCoding
		err error
	)
	switch sgc := src.GeoCoding().(type) {
	case *product.TiePointGeoCoding:
		gc, err = transferTiePoint(sgc, target)
	case *product.MapGeoCoding:
		gc, err = transferMap(sgc, src, target, def)
	default:
		err = fmt.Errorf("unsupported geocoding %T", sgc)
	}
	if err == nil {
		err = target.SetGeoCoding(gc)
	}
	if err != nil {
		t.log().WithFields(logrus.Fields{"product": target.Name(), "source": src.Name()}).
			WithError(err).Debug("geocoding not transferred")
		return false
	}
	return true
}

func (t *DefaultTransfer) log() logrus.FieldLogger {
	if t.Log == nil {
		return logrus.StandardLogger()
	}
	return t.Log
}

// transferTiePoint binds a new tie-point geocoding to the target's copies
// of the source latitude and longitude grids.
func transferTiePoint(sgc *product.TiePointGeoCoding, target *product.Product) (product.GeoCoding, error) {
	if sgc.LatGrid == nil || sgc.LonGrid == nil {
		return nil, fmt.Errorf("source tie-point geocoding has no grids")
	}
	lat := target.TiePointGrid(sgc.LatGrid.Name())
	lon := target.TiePointGrid(sgc.LonGrid.Name())
	if lat == nil || lon == nil {
		return nil, fmt.Errorf("target lacks tie-point grids '%s' and '%s'", sgc.LatGrid.Name(), sgc.LonGrid.Name())
	}
	gc := product.NewTiePointGeoCoding(lat, lon)
	gc.Datum = sgc.Datum
	return gc, nil
}

func transferMap(sgc *product.MapGeoCoding, src, target *product.Product, def *product.SubsetDef) (product.GeoCoding, error) {
	gt, err := SubsetGeoTransform(sgc.GeoTransform, src.SceneRasterWidth(), src.SceneRasterHeight(), def)
	if err != nil {
		return nil, err
	}
	return product.NewMapGeoCoding(sgc.CRS, gt, target.SceneRasterWidth(), target.SceneRasterHeight()), nil
}

// SubsetGeoTransform returns the geotransform of a subset of a scene with
// geotransform gt. Subset pixel centres land on the centres of the source
// pixels they were selected from.
func SubsetGeoTransform(gt [6]float64, sceneWidth, sceneHeight int, def *product.SubsetDef) ([6]float64, error) {
	if def == nil {
		return gt, nil
	}
	if err := def.Validate(); err != nil {
		return gt, err
	}
	region := def.RegionOrFull(sceneWidth, sceneHeight)
	stepX, stepY := float64(def.SubSamplingX), float64(def.SubSamplingY)
	ox := float64(region.X) + 0.5 - 0.5*stepX
	oy := float64(region.Y) + 0.5 - 0.5*stepY
	return [6]float64{
		gt[0] + ox*gt[1] + oy*gt[2], gt[1] * stepX, gt[2] * stepY,
		gt[3] + ox*gt[4] + oy*gt[5], gt[4] * stepX, gt[5] * stepY,
	}, nil
}

// BBoxGeoTransform returns the north-up geotransform of a width x height
// raster spanning bbox (minLon, minLat, maxLon, maxLat).
func BBoxGeoTransform(width, height int, bbox [4]float64) [6]float64 {
	return [6]float64{bbox[0], (bbox[2] - bbox[0]) / float64(width), 0, bbox[3], 0, (bbox[1] - bbox[3]) / float64(height)}
}
