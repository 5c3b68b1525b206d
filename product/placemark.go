package product

// PixelPos is a continuous scene pixel coordinate; pixel centres lie at
// integer + 0.5.
type PixelPos struct {
	X, Y float64
}

type GeoPos struct {
	Lat, Lon float64
}

// Placemark is a pin or a ground control point.
type Placemark struct {
	name        string
	Label       string
	Description string
	PixelPos    PixelPos
	GeoPos      *GeoPos
	Symbol      string
}

func NewPlacemark(name, label string, pixel PixelPos, geo *GeoPos) *Placemark {
	return &Placemark{name: name, Label: label, PixelPos: pixel, GeoPos: geo}
}

func (p *Placemark) Name() string { return p.name }

func (p *Placemark) Clone() *Placemark {
	c := *p
	if p.GeoPos != nil {
		g := *p.GeoPos
		c.GeoPos = &g
	}
	return &c
}

// updateGeoPos recomputes the geodetic position from the pixel position.
func (p *Placemark) updateGeoPos(gc GeoCoding) {
	if gc == nil {
		return
	}
	if g, ok := gc.GeoPos(p.PixelPos); ok {
		p.GeoPos = &g
	}
}
