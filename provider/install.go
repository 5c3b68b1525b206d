package provider

import (
	"github.com/nci/rsproduct/product"
)

// CacheProviders builds a caching provider for every non-resident,
// non-virtual band of p: a LineCacheProvider with the given window and,
// when cache is not nil, a MemcacheProvider on top of that. The bands of p
// keep their own providers; callers read through the returned map. Bands
// whose provider already caches are left out.
func CacheProviders(p *product.Product, window int, cache Cache) (map[*product.Band]product.RasterProvider, error) {
	wrapped := map[*product.Band]product.RasterProvider{}
	for _, b := range p.Bands().All() {
		if b.IsVirtual() || b.HasData() || b.RasterProvider() == nil {
			continue
		}
		switch b.RasterProvider().(type) {
		case *LineCacheProvider, *MemcacheProvider:
			continue
		}
		lc, err := NewLineCacheProvider(b.RasterProvider(), b.DataType(), b.Width(), b.Height(), window)
		if err != nil {
			return nil, err
		}
		var rp product.RasterProvider = lc
		if cache != nil {
			mp, err := NewMemcacheProvider(lc, cache, p.Name()+"/"+b.Name(), b.DataType())
			if err != nil {
				return nil, err
			}
			rp = mp
		}
		wrapped[b] = rp
	}
	return wrapped, nil
}
