package product

import (
	"github.com/nci/rsproduct/utils"
)

// CopyElems copies n consecutive elements from src[srcPos:] to
// dest[destPos:]. Both buffers must share one raster data type.
func CopyElems(src *ProductData, srcPos int, dest *ProductData, destPos, n int) error {
	if err := checkCopyTypes(src, dest); err != nil {
		return err
	}
	switch s := src.Elems.(type) {
	case []int8:
		copy(dest.Elems.([]int8)[destPos:destPos+n], s[srcPos:srcPos+n])
	case []uint8:
		copy(dest.Elems.([]uint8)[destPos:destPos+n], s[srcPos:srcPos+n])
	case []int16:
		copy(dest.Elems.([]int16)[destPos:destPos+n], s[srcPos:srcPos+n])
	case []uint16:
		copy(dest.Elems.([]uint16)[destPos:destPos+n], s[srcPos:srcPos+n])
	case []int32:
		copy(dest.Elems.([]int32)[destPos:destPos+n], s[srcPos:srcPos+n])
	case []uint32:
		copy(dest.Elems.([]uint32)[destPos:destPos+n], s[srcPos:srcPos+n])
	case []float32:
		copy(dest.Elems.([]float32)[destPos:destPos+n], s[srcPos:srcPos+n])
	case []float64:
		copy(dest.Elems.([]float64)[destPos:destPos+n], s[srcPos:srcPos+n])
	}
	return nil
}

// CopyStrided copies n elements taken every step elements starting at
// src[srcPos] into consecutive slots of dest from destPos.
func CopyStrided(src *ProductData, srcPos int, dest *ProductData, destPos, n, step int) error {
	if step == 1 {
		return CopyElems(src, srcPos, dest, destPos, n)
	}
	if err := checkCopyTypes(src, dest); err != nil {
		return err
	}
	switch s := src.Elems.(type) {
	case []int8:
		d := dest.Elems.([]int8)
		for i := 0; i < n; i++ {
			d[destPos+i] = s[srcPos+i*step]
		}
	case []uint8:
		d := dest.Elems.([]uint8)
		for i := 0; i < n; i++ {
			d[destPos+i] = s[srcPos+i*step]
		}
	case []int16:
		d := dest.Elems.([]int16)
		for i := 0; i < n; i++ {
			d[destPos+i] = s[srcPos+i*step]
		}
	case []uint16:
		d := dest.Elems.([]uint16)
		for i := 0; i < n; i++ {
			d[destPos+i] = s[srcPos+i*step]
		}
	case []int32:
		d := dest.Elems.([]int32)
		for i := 0; i < n; i++ {
			d[destPos+i] = s[srcPos+i*step]
		}
	case []uint32:
		d := dest.Elems.([]uint32)
		for i := 0; i < n; i++ {
			d[destPos+i] = s[srcPos+i*step]
		}
	case []float32:
		d := dest.Elems.([]float32)
		for i := 0; i < n; i++ {
			d[destPos+i] = s[srcPos+i*step]
		}
	case []float64:
		d := dest.Elems.([]float64)
		for i := 0; i < n; i++ {
			d[destPos+i] = s[srcPos+i*step]
		}
	}
	return nil
}

func checkCopyTypes(src, dest *ProductData) error {
	if src == nil || dest == nil {
		return utils.ConfigurationError("raster copy: nil buffer")
	}
	if !src.Type.IsRaster() {
		return utils.ConfigurationError("raster copy: %v is not a raster data type", src.Type)
	}
	if src.Type != dest.Type {
		return utils.ConfigurationError("raster copy: source type %v does not match destination type %v", src.Type, dest.Type)
	}
	return nil
}

// StridedSize is the number of samples taken from n elements at step.
func StridedSize(n, step int) int {
	return (n + step - 1) / step
}

// ReadResident fills dest with the w x h region at (x,y) of a resident
// raster of width srcWidth, taking every stepX-th column and stepY-th row.
func ReadResident(src *ProductData, srcWidth, x, y, w, h, stepX, stepY int, dest *ProductData) error {
	if stepX < 1 || stepY < 1 {
		return utils.ConfigurationError("raster read: step %dx%d must be >= 1", stepX, stepY)
	}
	if err := checkCopyTypes(src, dest); err != nil {
		return err
	}
	dw, dh := StridedSize(w, stepX), StridedSize(h, stepY)
	if dest.NumElems() < dw*dh {
		return utils.ConfigurationError("raster read: destination holds %d elements, %d required", dest.NumElems(), dw*dh)
	}
	if x < 0 || y < 0 || srcWidth <= 0 || x+w > srcWidth || (y+h)*srcWidth > src.NumElems() {
		return utils.ConfigurationError("raster read: region (%d,%d,%d,%d) outside source raster", x, y, w, h)
	}
	if x == 0 && w == srcWidth && stepX == 1 && stepY == 1 {
		return CopyElems(src, y*srcWidth, dest, 0, w*h)
	}
	for j := 0; j < dh; j++ {
		srcPos := (y+j*stepY)*srcWidth + x
		if err := CopyStrided(src, srcPos, dest, j*dw, dw, stepX); err != nil {
			return err
		}
	}
	return nil
}
