package product

import (
	"context"
	"strings"
	"sync"
	"unicode"
)

// ValidMask is a bit-packed scene raster of pixels for which an expression
// evaluated to true.
type ValidMask struct {
	Expression    string
	Width, Height int
	bits          []uint64
}

func newValidMask(expr string, width, height int) *ValidMask {
	return &ValidMask{Expression: expr, Width: width, Height: height, bits: make([]uint64, (width*height+63)/64)}
}

func (m *ValidMask) IsSet(x, y int) bool {
	i := y*m.Width + x
	return m.bits[i/64]&(1<<uint(i%64)) != 0
}

func (m *ValidMask) set(i int) {
	m.bits[i/64] |= 1 << uint(i%64)
}

// Count returns the number of set pixels.
func (m *ValidMask) Count() int {
	n := 0
	for i := 0; i < m.Width*m.Height; i++ {
		if m.bits[i/64]&(1<<uint(i%64)) != 0 {
			n++
		}
	}
	return n
}

// ValidMaskCache holds the valid masks computed for one product, keyed by
// the whitespace-collapsed expression text.
type ValidMaskCache struct {
	product *Product
	mu      sync.Mutex
	masks   map[string]*ValidMask
}

func newValidMaskCache(p *Product) *ValidMaskCache {
	return &ValidMaskCache{product: p, masks: map[string]*ValidMask{}}
}

// canonicalExpression collapses runs of whitespace to one space and trims
// the ends. Quoted string literals are kept as written.
func canonicalExpression(expr string) string {
	var (
		sb    strings.Builder
		quote rune
		space bool
	)
	for _, r := range expr {
		switch {
		case quote != 0:
			sb.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		if r == '\'' || r == '"' {
			quote = r
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (c *ValidMaskCache) Get(expr string) *ValidMask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.masks[canonicalExpression(expr)]
}

// Create returns the cached mask for expr, computing it over the whole scene
// if absent.
func (c *ValidMaskCache) Create(ctx context.Context, expr string) (*ValidMask, error) {
	key := canonicalExpression(expr)
	if m := c.Get(key); m != nil {
		return m, nil
	}

	parsed, err := ParseExpression(key)
	if err != nil {
		return nil, err
	}
	w, h := c.product.SceneRasterWidth(), c.product.SceneRasterHeight()
	values, err := parsed.EvaluateRegion(ctx, c.product, 0, 0, w, h, 1, 1)
	if err != nil {
		return nil, err
	}
	m := newValidMask(key, w, h)
	for i, v := range values {
		if v != 0 && v == v {
			m.set(i)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.masks[key]; ok {
		return existing, nil
	}
	c.masks[key] = m
	return m, nil
}

func (c *ValidMaskCache) Release(expr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.masks, canonicalExpression(expr))
}

func (c *ValidMaskCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.masks)
}

func (c *ValidMaskCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masks = map[string]*ValidMask{}
}
