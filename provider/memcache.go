package provider

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/nci/gomemcache/memcache"
	"github.com/sirupsen/logrus"

	"github.com/nci/rsproduct/product"
	"github.com/nci/rsproduct/utils"
)

// MaxItemSize is the largest encoded region stored in memcache.
const MaxItemSize = 1 << 20

// Cache is the subset of the memcache client used for region caching.
type Cache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

// MemcacheProvider caches region reads of a wrapped provider in memcache.
// Misses and memcache errors fall through to the wrapped provider.
type MemcacheProvider struct {
	src      product.RasterProvider
	cache    Cache
	id       string
	dataType product.DataType
	Log      logrus.FieldLogger
}

// NewMemcacheProvider wraps src. id must identify the band uniquely among
// everything sharing the memcache server, e.g. product/band.
func NewMemcacheProvider(src product.RasterProvider, cache Cache, id string, dataType product.DataType) (*MemcacheProvider, error) {
	if src == nil || cache == nil {
		return nil, utils.ConfigurationError("memcache provider: source provider and cache are required")
	}
	if id == "" {
		return nil, utils.ConfigurationError("memcache provider: band identifier is empty")
	}
	return &MemcacheProvider{src: src, cache: cache, id: id, dataType: dataType, Log: logrus.StandardLogger()}, nil
}

func (mp *MemcacheProvider) key(x, y, w, h, stepX, stepY int) string {
	buff := md5.Sum([]byte(fmt.Sprintf("%s?x=%d&y=%d&w=%d&h=%d&sx=%d&sy=%d", mp.id, x, y, w, h, stepX, stepY)))
	return hex.EncodeToString(buff[:])
}

func (mp *MemcacheProvider) ReadRegion(ctx context.Context, x, y, w, h, stepX, stepY int, dest *product.ProductData) error {
	if stepX < 1 || stepY < 1 {
		return utils.ConfigurationError("memcache provider: step %dx%d must be >= 1", stepX, stepY)
	}
	n := product.StridedSize(w, stepX) * product.StridedSize(h, stepY)
	if dest == nil || dest.Type != mp.dataType || dest.NumElems() < n {
		return utils.ConfigurationError("memcache provider: destination cannot take %d %v samples", n, mp.dataType)
	}
	log := mp.Log.WithFields(logrus.Fields{"band": mp.id, "x": x, "y": y, "width": w, "height": h})
	hash := mp.key(x, y, w, h, stepX, stepY)

	if cached, err := mp.cache.Get(hash); err == nil && cached != nil {
		tmp, err := decodeRegion(cached.Value, mp.dataType, n)
		if err == nil {
			return product.CopyElems(tmp, 0, dest, 0, n)
		}
		log.WithError(err).Warn("discarding undecodable memcache item")
	}

	tmp, err := product.NewProductData(mp.dataType, n)
	if err != nil {
		return err
	}
	if err := mp.src.ReadRegion(ctx, x, y, w, h, stepX, stepY, tmp); err != nil {
		return err
	}
	if int64(n*mp.dataType.ElemSize()) <= MaxItemSize {
		payload, err := encodeRegion(tmp)
		if err == nil {
			err = mp.cache.Set(&memcache.Item{Key: hash, Value: payload})
		}
		if err != nil {
			// the read succeeded, a cache failure only costs the next reader
			log.WithError(err).Debug("memcache set failed")
		}
	}
	return product.CopyElems(tmp, 0, dest, 0, n)
}

func encodeRegion(data *product.ProductData) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(data.SizeInBytes()))
	if err := binary.Write(&buf, binary.LittleEndian, data.Elems); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRegion(payload []byte, dataType product.DataType, n int) (*product.ProductData, error) {
	if len(payload) != n*dataType.ElemSize() {
		return nil, fmt.Errorf("memcache item holds %d bytes, %d expected", len(payload), n*dataType.ElemSize())
	}
	data, err := product.NewProductData(dataType, n)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, data.Elems); err != nil {
		return nil, err
	}
	return data, nil
}
