package signal

import (
	"fmt"
	"reflect"
	"weak"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
)

// Source is a property other computed properties can depend on.
// It is implemented by *Property and *Computed.
type Source[O any] interface {
	Name() string
	addDependent(d dependent[O])
	refresh(inst *O)
	reaches(target any) bool
}

type dependent[O any] interface {
	invalidate(inst *O)
	invalidateAll()
}

type slot[T any] struct {
	value T
	set   bool
}

type propertyState[O any, T any] struct {
	slot      slot[T]
	observers []observerEntry[O, T]
}

// Property is an observable attribute of the owner type O holding a
// value of type T. It is declared once, typically as a package-level
// variable, and used with any number of *O instances. Per-instance state
// is created on first use and released when the instance is collected.
//
// Writes from different goroutines must be serialized by the caller.
// Observers run synchronously on the writing goroutine.
type Property[O any, T any] struct {
	name         string
	def          slot[T]
	equal        func(a, b T) bool
	alwaysNotify bool
	isolate      bool
	shared       bool

	states     instances[O, propertyState[O, T]]
	sharedSlot slot[T]
	typeWide   []observerEntry[O, T]
	dependents []dependent[O]
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// NewProperty creates a property named name. Values are compared with
// cmp.Equal, unexported fields included.
func NewProperty[O any, T any](name string) *Property[O, T] {
	requireSized[O]("property", name)
	return &Property[O, T]{
		name:  name,
		equal: func(a, b T) bool { return cmp.Equal(a, b, exportAll) },
	}
}

// WithDefault sets the value Get returns before the first Set.
func (p *Property[O, T]) WithDefault(v T) *Property[O, T] {
	p.states.mu.Lock()
	defer p.states.mu.Unlock()
	p.def = slot[T]{value: v, set: true}
	return p
}

// WithEqual replaces the change detection function.
func (p *Property[O, T]) WithEqual(equal func(a, b T) bool) *Property[O, T] {
	p.states.mu.Lock()
	defer p.states.mu.Unlock()
	p.equal = equal
	return p
}

// WithAlwaysNotify makes every Set notify observers, even when the value
// did not change.
func (p *Property[O, T]) WithAlwaysNotify() *Property[O, T] {
	p.states.mu.Lock()
	defer p.states.mu.Unlock()
	p.alwaysNotify = true
	return p
}

// WithObserverIsolation keeps notifying the remaining observers after
// one fails. Set then returns all observer errors combined.
func (p *Property[O, T]) WithObserverIsolation() *Property[O, T] {
	p.states.mu.Lock()
	defer p.states.mu.Unlock()
	p.isolate = true
	return p
}

// WithShared stores a single value for all instances. Observers are
// still registered per instance or type-wide.
func (p *Property[O, T]) WithShared() *Property[O, T] {
	p.states.mu.Lock()
	defer p.states.mu.Unlock()
	p.shared = true
	return p
}

// Name returns the property name.
func (p *Property[O, T]) Name() string {
	return p.name
}

// String returns "signal:<name>(<default>)".
func (p *Property[O, T]) String() string {
	p.states.mu.Lock()
	defer p.states.mu.Unlock()
	if !p.def.set {
		return "signal:" + p.name + "(<unset>)"
	}
	return fmt.Sprintf("signal:%s(%v)", p.name, p.def.value)
}

// slotLocked returns the slot holding inst's value.
func (p *Property[O, T]) slotLocked(inst *O, create bool) *slot[T] {
	if p.shared {
		return &p.sharedSlot
	}
	if !create {
		if st, ok := p.states.load(inst); ok {
			return &st.slot
		}
		return nil
	}
	return &p.state(inst).slot
}

func (p *Property[O, T]) state(inst *O) *propertyState[O, T] {
	return p.states.loadOrCreate(inst, func() *propertyState[O, T] {
		return &propertyState[O, T]{}
	})
}

func (p *Property[O, T]) currentLocked(inst *O) (T, bool) {
	if s := p.slotLocked(inst, false); s != nil && s.set {
		return s.value, true
	}
	return p.def.value, p.def.set
}

// Get returns the value of the property on inst, falling back to the
// default. Without either it fails with ErrAttributeNotSet.
func (p *Property[O, T]) Get(inst *O) (T, error) {
	if inst == nil {
		var zero T
		return zero, ErrNilInstance
	}
	p.states.mu.Lock()
	v, ok := p.currentLocked(inst)
	p.states.mu.Unlock()
	if !ok {
		return v, fmt.Errorf("%s: %w", p.name, ErrAttributeNotSet)
	}
	return v, nil
}

// MustGet is like Get but panics on error.
func (p *Property[O, T]) MustGet(inst *O) T {
	v, err := p.Get(inst)
	if err != nil {
		panic("signal: " + err.Error())
	}
	return v
}

// Set stores v on inst. If the value differs from the current one (or
// the property always notifies), dependent computed properties are
// invalidated and observers are called with (inst, old, v): type-wide
// observers first, then the observers of inst, each in registration
// order.
//
// The first observer error stops notification and is returned as is,
// unless the property isolates observers.
func (p *Property[O, T]) Set(inst *O, v T) error {
	if inst == nil {
		return ErrNilInstance
	}
	p.states.mu.Lock()
	old, had := p.currentLocked(inst)
	changed := !had || p.alwaysNotify || !p.equal(old, v)
	s := p.slotLocked(inst, true)
	s.value, s.set = v, true
	p.states.mu.Unlock()

	if !changed {
		return nil
	}
	return p.notify(inst, old, v)
}

// Touch notifies observers with the current value as both old and new.
// Use it after mutating a value in place, such as a map or slice.
func (p *Property[O, T]) Touch(inst *O) error {
	v, err := p.Get(inst)
	if err != nil {
		return err
	}
	return p.notify(inst, v, v)
}

func (p *Property[O, T]) notify(inst *O, old, v T) error {
	p.states.mu.Lock()
	deps := p.dependents
	observers := p.typeWide
	if st, ok := p.states.load(inst); ok && len(st.observers) > 0 {
		observers = append(observers[:len(observers):len(observers)], st.observers...)
	}
	isolate := p.isolate
	p.states.mu.Unlock()

	for _, d := range deps {
		if p.shared {
			d.invalidateAll()
		} else {
			d.invalidate(inst)
		}
	}

	var errs error
	for _, o := range observers {
		if !o.sub.Active() {
			continue
		}
		if err := o.fn(inst, old, v); err != nil {
			if !isolate {
				return err
			}
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Subscribe registers fn for changes of the property on inst. A nil
// inst subscribes type-wide, like SubscribeType.
func (p *Property[O, T]) Subscribe(inst *O, fn Observer[O, T]) *Subscription {
	if inst == nil {
		return p.SubscribeType(fn)
	}
	// The subscription must not keep inst alive.
	key := weak.Make(inst)
	var sub *Subscription
	sub = newSubscription(func() {
		p.states.mu.Lock()
		defer p.states.mu.Unlock()
		if target := key.Value(); target != nil {
			if st, ok := p.states.load(target); ok {
				st.observers = removeEntry(st.observers, sub)
			}
		}
	})

	p.states.mu.Lock()
	defer p.states.mu.Unlock()
	st := p.state(inst)
	st.observers = append(st.observers, observerEntry[O, T]{sub: sub, fn: fn})
	return sub
}

// SubscribeType registers fn for changes of the property on every
// instance.
func (p *Property[O, T]) SubscribeType(fn Observer[O, T]) *Subscription {
	var sub *Subscription
	sub = newSubscription(func() {
		p.states.mu.Lock()
		defer p.states.mu.Unlock()
		p.typeWide = removeEntry(p.typeWide, sub)
	})

	p.states.mu.Lock()
	defer p.states.mu.Unlock()
	p.typeWide = append(p.typeWide, observerEntry[O, T]{sub: sub, fn: fn})
	return sub
}

func (p *Property[O, T]) addDependent(d dependent[O]) {
	p.states.mu.Lock()
	defer p.states.mu.Unlock()
	p.dependents = append(p.dependents, d)
}

func (p *Property[O, T]) refresh(*O) {}

func (p *Property[O, T]) reaches(any) bool { return false }
