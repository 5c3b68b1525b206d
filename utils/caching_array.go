package utils

// ObjectFactory creates the value for one index of a CachingArray.
type ObjectFactory[T any] func(index int) (T, error)

// CachingArray is a lazily populated cache over a window [min,max] of an
// integer index range. Indices outside the window are always served straight
// from the factory and never cached. CachingArray is not safe for concurrent
// use.
type CachingArray[T any] struct {
	factory ObjectFactory[T]
	window  *objectWindow[T]
}

type objectWindow[T any] struct {
	min, max int
	objects  []T
	set      []bool
}

func newObjectWindow[T any](min, max int) *objectWindow[T] {
	n := max - min + 1
	return &objectWindow[T]{
		min:     min,
		max:     max,
		objects: make([]T, n),
		set:     make([]bool, n),
	}
}

func (w *objectWindow[T]) contains(index int) bool {
	return index >= w.min && index <= w.max
}

func (w *objectWindow[T]) clear() {
	var zero T
	for i := range w.objects {
		w.objects[i] = zero
		w.set[i] = false
	}
}

func NewCachingArray[T any](factory ObjectFactory[T]) (*CachingArray[T], error) {
	if factory == nil {
		return nil, ConfigurationError("caching array: object factory is nil")
	}
	return &CachingArray[T]{factory: factory}, nil
}

// SetCachedRange moves the window to [min,max]. Values of indices present in
// both the old and the new window are carried over, all others start unset.
func (c *CachingArray[T]) SetCachedRange(min, max int) error {
	if max < min {
		return ConfigurationError("caching array: max index %d < min index %d", max, min)
	}
	w := newObjectWindow[T](min, max)
	if old := c.window; old != nil {
		lo, hi := old.min, old.max
		if min > lo {
			lo = min
		}
		if max < hi {
			hi = max
		}
		for i := lo; i <= hi; i++ {
			if old.set[i-old.min] {
				w.objects[i-min] = old.objects[i-old.min]
				w.set[i-min] = true
			}
		}
		old.clear()
	}
	c.window = w
	return nil
}

// CachedRange returns the current window bounds; ok is false if no window
// has been set yet.
func (c *CachingArray[T]) CachedRange() (min, max int, ok bool) {
	if c.window == nil {
		return 0, 0, false
	}
	return c.window.min, c.window.max, true
}

// Object returns the value for index, creating it if needed.
func (c *CachingArray[T]) Object(index int) (T, error) {
	w := c.window
	if w == nil || !w.contains(index) {
		return c.factory(index)
	}
	i := index - w.min
	if w.set[i] {
		return w.objects[i], nil
	}
	obj, err := c.factory(index)
	if err != nil {
		return obj, err
	}
	w.objects[i] = obj
	w.set[i] = true
	return obj, nil
}

// Clear unsets every entry of the current window without moving it.
func (c *CachingArray[T]) Clear() {
	if c.window != nil {
		c.window.clear()
	}
}
