package provider

import (
	"context"
	"sync"

	"github.com/nci/rsproduct/product"
	"github.com/nci/rsproduct/utils"
)

// LineCacheProvider keeps a sliding window of whole source lines. Requests
// whose rows fall outside the window move it, keeping the lines both windows
// share. It serialises access to the wrapped provider.
type LineCacheProvider struct {
	src      product.RasterProvider
	dataType product.DataType
	width    int
	height   int
	window   int

	mu        sync.Mutex
	ctx       context.Context
	lines     *utils.CachingArray[*product.ProductData]
	linesRead int
}

// NewLineCacheProvider wraps src, a width x height raster of dataType. A
// window below 1 selects utils.DefaultLineCacheWindow.
func NewLineCacheProvider(src product.RasterProvider, dataType product.DataType, width, height, window int) (*LineCacheProvider, error) {
	if src == nil {
		return nil, utils.ConfigurationError("line cache: source provider is nil")
	}
	if !dataType.IsRaster() || width <= 0 || height <= 0 {
		return nil, utils.ConfigurationError("line cache: invalid %v raster %dx%d", dataType, width, height)
	}
	if window < 1 {
		window = utils.DefaultLineCacheWindow
	}
	lc := &LineCacheProvider{src: src, dataType: dataType, width: width, height: height, window: window}
	lines, err := utils.NewCachingArray[*product.ProductData](lc.readLine)
	if err != nil {
		return nil, err
	}
	lc.lines = lines
	return lc, nil
}

func (lc *LineCacheProvider) readLine(y int) (*product.ProductData, error) {
	line, err := product.NewProductData(lc.dataType, lc.width)
	if err != nil {
		return nil, err
	}
	if err := lc.src.ReadRegion(lc.ctx, 0, y, lc.width, 1, 1, 1, line); err != nil {
		return nil, err
	}
	lc.linesRead++
	return line, nil
}

func (lc *LineCacheProvider) ReadRegion(ctx context.Context, x, y, w, h, stepX, stepY int, dest *product.ProductData) error {
	if stepX < 1 || stepY < 1 {
		return utils.ConfigurationError("line cache: step %dx%d must be >= 1", stepX, stepY)
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > lc.width || y+h > lc.height {
		return utils.ConfigurationError("line cache: region (%d,%d,%d,%d) outside %dx%d raster", x, y, w, h, lc.width, lc.height)
	}
	dw, dh := product.StridedSize(w, stepX), product.StridedSize(h, stepY)
	if dest == nil || dest.Type != lc.dataType || dest.NumElems() < dw*dh {
		return utils.ConfigurationError("line cache: destination cannot take %d %v samples", dw*dh, lc.dataType)
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.ctx = ctx
	defer func() { lc.ctx = nil }()

	if err := lc.slide(y, h); err != nil {
		return err
	}
	for j := 0; j < dh; j++ {
		if err := utils.CheckCancelled(ctx); err != nil {
			return err
		}
		line, err := lc.lines.Object(y + j*stepY)
		if err != nil {
			return err
		}
		if err := product.CopyStrided(line, x, dest, j*dw, dw, stepX); err != nil {
			return err
		}
	}
	return nil
}

// slide moves the window so that it starts at y and covers at least h rows.
func (lc *LineCacheProvider) slide(y, h int) error {
	if min, max, ok := lc.lines.CachedRange(); ok && y >= min && y+h-1 <= max {
		return nil
	}
	last := y + lc.window - 1
	if y+h-1 > last {
		last = y + h - 1
	}
	if last >= lc.height {
		last = lc.height - 1
	}
	return lc.lines.SetCachedRange(y, last)
}

// LinesRead returns the number of lines fetched from the wrapped provider.
func (lc *LineCacheProvider) LinesRead() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.linesRead
}

// Clear drops every cached line.
func (lc *LineCacheProvider) Clear() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lines.Clear()
}
