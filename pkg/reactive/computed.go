package reactive

// Computed is a memoized derivation. Upstream writes only mark it dirty and
// notify its own subscribers; the getter re-runs on the next Value call.
// Between two reads the getter runs at most once no matter how many upstream
// writes happened.
type Computed[T any] struct {
	rt     *Runtime
	getter func() T
	effect *Effect

	value T
	dirty bool
	dep   *Dep
}

// NewComputed creates a computed value. The getter does not run until the
// first Value call.
func NewComputed[T any](rt *Runtime, getter func() T) *Computed[T] {
	c := &Computed[T]{
		rt:     rt,
		getter: getter,
		dirty:  true,
	}
	c.effect = rt.newEffect(func() { c.value = c.getter() }, true)
	c.effect.scheduler = c.invalidate
	return c
}

func (c *Computed[T]) invalidate() {
	if c.dirty {
		return
	}
	c.dirty = true
	c.rt.triggerDep(c.dep)
}

// Value subscribes the active effect to c, recomputes if dirty, and returns
// the cached value.
func (c *Computed[T]) Value() T {
	c.rt.trackLazy(&c.dep)
	if c.dirty {
		c.effect.Run()
		c.dirty = false
	}
	return c.value
}

// Peek returns the value without subscribing. It still recomputes if dirty.
func (c *Computed[T]) Peek() T {
	if c.dirty {
		c.effect.Run()
		c.dirty = false
	}
	return c.value
}

// Dirty reports whether the next read will run the getter.
func (c *Computed[T]) Dirty() bool {
	return c.dirty
}

// Effect returns the effect backing c.
func (c *Computed[T]) Effect() *Effect {
	return c.effect
}

// Stop detaches c from its dependencies. The last value stays cached.
func (c *Computed[T]) Stop() {
	c.effect.Stop()
	c.dirty = false
}

func (c *Computed[T]) watchValue() any {
	return c.Value()
}
