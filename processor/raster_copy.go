package processor

import (
	"context"
	"errors"

	"github.com/nci/rsproduct/product"
	"github.com/nci/rsproduct/utils"
)

var errNoRasterSource = errors.New("band has neither resident data nor a raster provider")

// CopyStats accounts for one CopyRegion call.
type CopyStats struct {
	RowsRead    int64
	BytesCopied int64
}

// CopyRegion fills dest with the samples of band inside region, taking
// every subX-th column and subY-th row. dest receives
// ceil(w/subX) * ceil(h/subY) samples in row-major order.
//
// Resident bands are copied directly, in bulk when the whole raster is
// requested at unit stride. Other bands are read through their provider,
// with a single read for the whole raster or one read per source row
// otherwise. The context is checked and progress reported between rows.
func CopyRegion(ctx context.Context, band *product.Band, region product.Rect, subX, subY int, dest *product.ProductData, pm ProgressMonitor) (CopyStats, error) {
	var rp product.RasterProvider
	if band != nil {
		rp = band.RasterProvider()
	}
	return copyRegion(ctx, band, rp, region, subX, subY, dest, pm)
}

// copyRegion is CopyRegion reading non-resident samples from rp instead of
// the band's own provider.
func copyRegion(ctx context.Context, band *product.Band, rp product.RasterProvider, region product.Rect, subX, subY int, dest *product.ProductData, pm ProgressMonitor) (CopyStats, error) {
	var stats CopyStats
	if band == nil || dest == nil {
		return stats, utils.ConfigurationError("raster copy: band and destination are required")
	}
	if subX < 1 || subY < 1 {
		return stats, utils.ConfigurationError("raster copy: sub-sampling %dx%d must be >= 1", subX, subY)
	}
	full := product.Rect{Width: band.Width(), Height: band.Height()}
	if region.Width <= 0 || region.Height <= 0 || !full.Contains(region) {
		return stats, utils.ConfigurationError("raster copy: region (%d,%d,%d,%d) outside band '%s' of %dx%d",
			region.X, region.Y, region.Width, region.Height, band.Name(), full.Width, full.Height)
	}
	if dest.Type != band.DataType() {
		return stats, utils.ConfigurationError("raster copy: destination type %v differs from band '%s' type %v", dest.Type, band.Name(), band.DataType())
	}
	dw, dh := product.StridedSize(region.Width, subX), product.StridedSize(region.Height, subY)
	if dest.NumElems() < dw*dh {
		return stats, utils.ConfigurationError("raster copy: destination holds %d elements, %d required", dest.NumElems(), dw*dh)
	}
	if err := utils.CheckCancelled(ctx); err != nil {
		return stats, err
	}

	pm = progressOrNull(pm)
	pm.BeginTask("copying band '"+band.Name()+"'", dh)
	defer pm.Done()

	elemSize := int64(dest.ElemSize())
	fullRead := region == full && subX == 1 && subY == 1

	if src := band.Data(); src != nil {
		if fullRead {
			if err := product.CopyElems(src, 0, dest, 0, dw*dh); err != nil {
				return stats, err
			}
			pm.Worked(dh)
			return CopyStats{RowsRead: int64(dh), BytesCopied: int64(dw*dh) * elemSize}, nil
		}
		for j := 0; j < dh; j++ {
			if err := utils.CheckCancelled(ctx); err != nil {
				return stats, err
			}
			srcPos := (region.Y+j*subY)*full.Width + region.X
			if err := copyRow(src, srcPos, dest, j*dw, dw, subX); err != nil {
				return stats, err
			}
			stats.RowsRead++
			stats.BytesCopied += int64(dw) * elemSize
			pm.Worked(1)
		}
		return stats, nil
	}

	provider := rp
	if provider == nil {
		return stats, utils.IOFailure(errNoRasterSource, "band '%s'", band.Name())
	}
	if fullRead {
		if err := provider.ReadRegion(ctx, 0, 0, full.Width, full.Height, 1, 1, dest); err != nil {
			return stats, readFailure(err, band)
		}
		pm.Worked(dh)
		return CopyStats{RowsRead: int64(dh), BytesCopied: int64(dw*dh) * elemSize}, nil
	}

	line, err := product.NewProductData(band.DataType(), region.Width)
	if err != nil {
		return stats, err
	}
	for j := 0; j < dh; j++ {
		if err := utils.CheckCancelled(ctx); err != nil {
			return stats, err
		}
		if err := provider.ReadRegion(ctx, region.X, region.Y+j*subY, region.Width, 1, 1, 1, line); err != nil {
			return stats, readFailure(err, band)
		}
		if err := copyRow(line, 0, dest, j*dw, dw, subX); err != nil {
			return stats, err
		}
		stats.RowsRead++
		stats.BytesCopied += int64(dw) * elemSize
		pm.Worked(1)
	}
	return stats, nil
}

func copyRow(src *product.ProductData, srcPos int, dest *product.ProductData, destPos, n, step int) error {
	if step == 1 {
		return product.CopyElems(src, srcPos, dest, destPos, n)
	}
	return product.CopyStrided(src, srcPos, dest, destPos, n, step)
}

// readFailure keeps cancellations and request errors as they are and
// reports everything else as an I/O failure of band.
func readFailure(err error, band *product.Band) error {
	if utils.IsCancelled(err) || utils.IsConfigurationError(err) || utils.IsIOFailure(err) {
		return err
	}
	return utils.IOFailure(err, "reading band '%s'", band.Name())
}
