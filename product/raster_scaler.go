package product

import (
	"fmt"
	"math"
)

// ScaledPixels converts raw samples to geophysical values. Samples equal to
// the no-data value become NaN.
func (r *RasterNode) ScaledPixels(raw *ProductData) ([]float64, error) {
	if raw.Type != r.dataType {
		return nil, fmt.Errorf("raster '%s': buffer type %v, expected %v", r.name, raw.Type, r.dataType)
	}
	out := make([]float64, raw.NumElems())

	switch t := raw.Elems.(type) {
	case []int8:
		noData := int8(r.noDataValue)
		for i, value := range t {
			if r.noDataUsed && value == noData {
				out[i] = math.NaN()
			} else {
				out[i] = r.Scale(float64(value))
			}
		}

	case []uint8:
		noData := uint8(r.noDataValue)
		for i, value := range t {
			if r.noDataUsed && value == noData {
				out[i] = math.NaN()
			} else {
				out[i] = r.Scale(float64(value))
			}
		}

	case []int16:
		noData := int16(r.noDataValue)
		for i, value := range t {
			if r.noDataUsed && value == noData {
				out[i] = math.NaN()
			} else {
				out[i] = r.Scale(float64(value))
			}
		}

	case []uint16:
		noData := uint16(r.noDataValue)
		for i, value := range t {
			if r.noDataUsed && value == noData {
				out[i] = math.NaN()
			} else {
				out[i] = r.Scale(float64(value))
			}
		}

	case []int32:
		noData := int32(r.noDataValue)
		for i, value := range t {
			if r.noDataUsed && value == noData {
				out[i] = math.NaN()
			} else {
				out[i] = r.Scale(float64(value))
			}
		}

	case []uint32:
		noData := uint32(r.noDataValue)
		for i, value := range t {
			if r.noDataUsed && value == noData {
				out[i] = math.NaN()
			} else {
				out[i] = r.Scale(float64(value))
			}
		}

	case []float32:
		noData := float32(r.noDataValue)
		noDataNaN := math.IsNaN(r.noDataValue)
		for i, value := range t {
			if r.noDataUsed && (value == noData || noDataNaN && value != value) {
				out[i] = math.NaN()
			} else {
				out[i] = r.Scale(float64(value))
			}
		}

	case []float64:
		for i, value := range t {
			if r.IsNoData(value) {
				out[i] = math.NaN()
			} else {
				out[i] = r.Scale(value)
			}
		}

	default:
		return nil, fmt.Errorf("raster type %v not implemented", raw.Type)
	}

	return out, nil
}
