package product

import (
	"fmt"
)

const (
	cornerGridWidth  = 10
	cornerGridHeight = 10
)

// AddCornerGeoCoding attaches a tie-point geocoding built from the geodetic
// positions of the four scene corners, given in the order first near,
// first far, last near, last far. The 2x2 corners are densified bilinearly
// into 10x10 "latitude" and "longitude" grids.
func AddCornerGeoCoding(p *Product, latCorners, lonCorners [4]float64) error {
	w, h := p.SceneRasterWidth(), p.SceneRasterHeight()
	ssX := float64(w-1) / float64(cornerGridWidth-1)
	ssY := float64(h-1) / float64(cornerGridHeight-1)
	if ssX <= 0 {
		ssX = 1
	}
	if ssY <= 0 {
		ssY = 1
	}

	lat, err := NewTiePointGrid("latitude", cornerGridWidth, cornerGridHeight, 0.5, 0.5, ssX, ssY, densifyCorners(latCorners))
	if err != nil {
		return err
	}
	lat.Unit = "deg"
	lat.Description = "latitude"

	lon, err := NewTiePointGrid("longitude", cornerGridWidth, cornerGridHeight, 0.5, 0.5, ssX, ssY, densifyCorners(lonCorners))
	if err != nil {
		return err
	}
	lon.Unit = "deg"
	lon.Description = "longitude"
	lon.Discontinuity = DiscontAt180

	if err := p.AddTiePointGrid(lat); err != nil {
		return err
	}
	if err := p.AddTiePointGrid(lon); err != nil {
		return err
	}
	return p.SetGeoCoding(NewTiePointGeoCoding(lat, lon))
}

func densifyCorners(c [4]float64) []float32 {
	points := make([]float32, cornerGridWidth*cornerGridHeight)
	for j := 0; j < cornerGridHeight; j++ {
		wj := float64(j) / float64(cornerGridHeight-1)
		for i := 0; i < cornerGridWidth; i++ {
			wi := float64(i) / float64(cornerGridWidth-1)
			points[j*cornerGridWidth+i] = float32(bilinear(c[0], c[1], c[2], c[3], wi, wj))
		}
	}
	return points
}

// AddVirtualIntensityBand adds "Intensity<suffix>" computed from the i and q
// bands of a complex product.
func AddVirtualIntensityBand(p *Product, i, q *Band, suffix string) (*Band, error) {
	expr := fmt.Sprintf("[%s] * [%s] + [%s] * [%s]", i.Name(), i.Name(), q.Name(), q.Name())
	b := NewVirtualBand("Intensity"+suffix, TypeFloat32, p.SceneRasterWidth(), p.SceneRasterHeight(), expr)
	b.Unit = "intensity"
	b.Description = "Intensity from complex data"
	if err := p.AddBand(b); err != nil {
		return nil, err
	}
	return b, nil
}

// AddVirtualPhaseBand adds "Phase<suffix>" = atan2(q, i) in radians.
func AddVirtualPhaseBand(p *Product, i, q *Band, suffix string) (*Band, error) {
	expr := fmt.Sprintf("atan2([%s], [%s])", q.Name(), i.Name())
	b := NewVirtualBand("Phase"+suffix, TypeFloat32, p.SceneRasterWidth(), p.SceneRasterHeight(), expr)
	b.Unit = "phase"
	b.Description = "Phase from complex data"
	if err := p.AddBand(b); err != nil {
		return nil, err
	}
	return b, nil
}
