package provider

import (
	"context"

	"github.com/nci/rsproduct/product"
	"github.com/nci/rsproduct/utils"
)

// MemoryProvider serves regions of a raster held in memory, typically the
// decoded output of a format reader that keeps its samples apart from the
// band.
type MemoryProvider struct {
	data   *product.ProductData
	width  int
	height int
}

func NewMemoryProvider(data *product.ProductData, width int) (*MemoryProvider, error) {
	if data == nil || !data.Type.IsRaster() {
		return nil, utils.ConfigurationError("memory provider: raster data required")
	}
	if width <= 0 || data.NumElems()%width != 0 {
		return nil, utils.ConfigurationError("memory provider: %d elements do not form rows of width %d", data.NumElems(), width)
	}
	return &MemoryProvider{data: data, width: width, height: data.NumElems() / width}, nil
}

func (m *MemoryProvider) Width() int  { return m.width }
func (m *MemoryProvider) Height() int { return m.height }

func (m *MemoryProvider) ReadRegion(ctx context.Context, x, y, w, h, stepX, stepY int, dest *product.ProductData) error {
	if err := utils.CheckCancelled(ctx); err != nil {
		return err
	}
	return product.ReadResident(m.data, m.width, x, y, w, h, stepX, stepY, dest)
}
