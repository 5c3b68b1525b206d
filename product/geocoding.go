package product

// GeoCoding maps scene pixel positions to geodetic positions. A geocoding
// is owned by one product and disposed with it.
type GeoCoding interface {
	GeoPos(pixel PixelPos) (GeoPos, bool)
	Dispose()
}

// TiePointGeoCoding derives positions from a latitude and a longitude
// tie-point grid of the owning product.
type TiePointGeoCoding struct {
	LatGrid *TiePointGrid
	LonGrid *TiePointGrid
	Datum   string
}

func NewTiePointGeoCoding(lat, lon *TiePointGrid) *TiePointGeoCoding {
	return &TiePointGeoCoding{LatGrid: lat, LonGrid: lon, Datum: "WGS84"}
}

func (gc *TiePointGeoCoding) GeoPos(pixel PixelPos) (GeoPos, bool) {
	if gc.LatGrid == nil || gc.LonGrid == nil {
		return GeoPos{}, false
	}
	return GeoPos{
		Lat: gc.LatGrid.PixelDouble(pixel.X, pixel.Y),
		Lon: gc.LonGrid.PixelDouble(pixel.X, pixel.Y),
	}, true
}

func (gc *TiePointGeoCoding) Dispose() {
	gc.LatGrid = nil
	gc.LonGrid = nil
}

// MapGeoCoding is an affine map projection described by a GDAL style
// geotransform: lon = gt[0] + px*gt[1] + py*gt[2], lat = gt[3] + px*gt[4] + py*gt[5].
// The CRS is expected to be geographic.
type MapGeoCoding struct {
	CRS           string
	GeoTransform  [6]float64
	Width, Height int
}

func NewMapGeoCoding(crs string, geoTransform [6]float64, width, height int) *MapGeoCoding {
	return &MapGeoCoding{CRS: crs, GeoTransform: geoTransform, Width: width, Height: height}
}

func (gc *MapGeoCoding) GeoPos(pixel PixelPos) (GeoPos, bool) {
	gt := gc.GeoTransform
	lon := gt[0] + pixel.X*gt[1] + pixel.Y*gt[2]
	lat := gt[3] + pixel.X*gt[4] + pixel.Y*gt[5]
	return GeoPos{Lat: lat, Lon: lon}, true
}

func (gc *MapGeoCoding) Dispose() {}
