package signal

import (
	"fmt"
	"time"
)

type cacheEntry[T any] struct {
	value     T
	valid     bool
	expiresAt time.Time
	gen       uint64
}

// Computed is a read-only property derived from its instance by a
// function. Results are cached per instance until a property listed in
// DependsOn changes on that instance, Invalidate is called, or the TTL
// runs out. Invalidation is transitive through other computed
// properties, and a computed property whose dependency expired is
// recomputed as well.
type Computed[O any, T any] struct {
	name string
	fn   func(inst *O) (T, error)
	ttl  time.Duration
	now  func() time.Time

	cache      instances[O, cacheEntry[T]]
	deps       []Source[O]
	dependents []dependent[O]
}

// NewComputed creates a computed property named name. Errors returned by
// fn are passed to the caller of Get and not cached.
func NewComputed[O any, T any](name string, fn func(inst *O) (T, error)) *Computed[O, T] {
	requireSized[O]("computed", name)
	return &Computed[O, T]{name: name, fn: fn, now: time.Now}
}

// WithTTL expires cached values d after they were computed.
func (c *Computed[O, T]) WithTTL(d time.Duration) *Computed[O, T] {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	c.ttl = d
	return c
}

// WithClock replaces time.Now for TTL checks.
func (c *Computed[O, T]) WithClock(now func() time.Time) *Computed[O, T] {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	c.now = now
	return c
}

// DependsOn invalidates the cached value of an instance whenever one of
// srcs changes on it. It panics if the dependency would form a cycle.
func (c *Computed[O, T]) DependsOn(srcs ...Source[O]) *Computed[O, T] {
	for _, src := range srcs {
		if any(src) == any(c) || src.reaches(c) {
			panic(fmt.Sprintf("signal: dependency cycle between %s and %s", c.name, src.Name()))
		}
		src.addDependent(c)
	}
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	c.deps = append(c.deps, srcs...)
	return c
}

// Name returns the property name.
func (c *Computed[O, T]) Name() string {
	return c.name
}

func (c *Computed[O, T]) String() string {
	return "signal:" + c.name + "(computed)"
}

// Get returns the cached value for inst, computing it if needed.
func (c *Computed[O, T]) Get(inst *O) (T, error) {
	var zero T
	if inst == nil {
		return zero, ErrNilInstance
	}
	c.refresh(inst)

	c.cache.mu.Lock()
	e := c.cache.loadOrCreate(inst, func() *cacheEntry[T] { return &cacheEntry[T]{} })
	if e.valid {
		v := e.value
		c.cache.mu.Unlock()
		return v, nil
	}
	gen := e.gen
	c.cache.mu.Unlock()

	v, err := c.fn(inst)
	if err != nil {
		return zero, err
	}

	c.cache.mu.Lock()
	// An invalidation during fn leaves the result uncached.
	if e.gen == gen {
		e.value, e.valid = v, true
		if c.ttl > 0 {
			e.expiresAt = c.now().Add(c.ttl)
		}
	}
	c.cache.mu.Unlock()
	return v, nil
}

// MustGet is like Get but panics on error.
func (c *Computed[O, T]) MustGet(inst *O) T {
	v, err := c.Get(inst)
	if err != nil {
		panic("signal: " + err.Error())
	}
	return v
}

// Set always fails with ErrReadOnly.
func (c *Computed[O, T]) Set(*O, T) error {
	return fmt.Errorf("%s: %w", c.name, ErrReadOnly)
}

// Invalidate drops the cached value for inst and for every computed
// property depending on this one.
func (c *Computed[O, T]) Invalidate(inst *O) {
	if inst != nil {
		c.invalidate(inst)
	}
}

func (c *Computed[O, T]) invalidate(inst *O) {
	c.cache.mu.Lock()
	if e, ok := c.cache.load(inst); ok {
		e.reset()
	}
	deps := c.dependents
	c.cache.mu.Unlock()

	for _, d := range deps {
		d.invalidate(inst)
	}
}

func (c *Computed[O, T]) invalidateAll() {
	c.cache.mu.Lock()
	c.cache.each(func(e *cacheEntry[T]) { e.reset() })
	deps := c.dependents
	c.cache.mu.Unlock()

	for _, d := range deps {
		d.invalidateAll()
	}
}

func (e *cacheEntry[T]) reset() {
	var zero T
	e.value, e.valid = zero, false
	e.expiresAt = time.Time{}
	e.gen++
}

// refresh invalidates inst's value when it or anything it depends on
// has expired.
func (c *Computed[O, T]) refresh(inst *O) {
	c.cache.mu.Lock()
	deps := c.deps
	c.cache.mu.Unlock()
	for _, d := range deps {
		d.refresh(inst)
	}

	c.cache.mu.Lock()
	e, ok := c.cache.load(inst)
	expired := ok && e.valid && !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
	c.cache.mu.Unlock()
	if expired {
		c.invalidate(inst)
	}
}

func (c *Computed[O, T]) addDependent(d dependent[O]) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	c.dependents = append(c.dependents, d)
}

func (c *Computed[O, T]) reaches(target any) bool {
	c.cache.mu.Lock()
	deps := c.deps
	c.cache.mu.Unlock()
	for _, d := range deps {
		if any(d) == target || d.reaches(target) {
			return true
		}
	}
	return false
}
