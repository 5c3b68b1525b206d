package processor

import (
	"context"

	"github.com/nci/rsproduct/metrics"
	"github.com/nci/rsproduct/product"
	"github.com/nci/rsproduct/utils"
)

// subsetProvider serves the pixels of a subset band by reading the source
// band it was derived from. Target pixel (x,y) is source pixel
// (region.X + x*subX, region.Y + y*subY).
type subsetProvider struct {
	source     *product.Band
	provider   product.RasterProvider
	region     product.Rect
	subX, subY int
	width      int
	height     int
	metrics    *metrics.MetricsCollector
}

func (sp *subsetProvider) ReadRegion(ctx context.Context, x, y, w, h, stepX, stepY int, dest *product.ProductData) error {
	if stepX < 1 || stepY < 1 {
		return utils.ConfigurationError("subset read: step %dx%d must be >= 1", stepX, stepY)
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > sp.width || y+h > sp.height {
		return utils.ConfigurationError("subset read: region (%d,%d,%d,%d) outside %dx%d band '%s'", x, y, w, h, sp.width, sp.height, sp.source.Name())
	}
	src := product.Rect{
		X:      sp.region.X + x*sp.subX,
		Y:      sp.region.Y + y*sp.subY,
		Width:  (w-1)*sp.subX + 1,
		Height: (h-1)*sp.subY + 1,
	}
	stats, err := copyRegion(ctx, sp.source, sp.provider, src, sp.subX*stepX, sp.subY*stepY, dest, nil)
	sp.metrics.AddCopy(stats.RowsRead, stats.BytesCopied)
	return err
}
