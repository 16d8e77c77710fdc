package signal

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"
	"weak"
)

// requireSized panics for zero-size owner types. Distinct zero-size
// allocations may share one address, so their state could not be told
// apart.
func requireSized[O any](kind, name string) {
	var zero O
	if unsafe.Sizeof(zero) == 0 {
		panic(fmt.Sprintf("signal: %s %q: owner type %T has zero size", kind, name, zero))
	}
}

// instances maps owner instances to per-instance state without keeping
// the instances alive. An entry is removed once its instance is
// collected. Callers hold mu around load, loadOrCreate and each.
type instances[O any, S any] struct {
	mu sync.Mutex
	m  map[weak.Pointer[O]]*S
}

func (im *instances[O, S]) load(inst *O) (*S, bool) {
	s, ok := im.m[weak.Make(inst)]
	return s, ok
}

func (im *instances[O, S]) loadOrCreate(inst *O, mk func() *S) *S {
	key := weak.Make(inst)
	if s, ok := im.m[key]; ok {
		return s
	}
	if im.m == nil {
		im.m = make(map[weak.Pointer[O]]*S)
	}
	s := mk()
	im.m[key] = s
	runtime.AddCleanup(inst, im.forget, key)
	return s
}

func (im *instances[O, S]) forget(key weak.Pointer[O]) {
	im.mu.Lock()
	delete(im.m, key)
	im.mu.Unlock()
}

func (im *instances[O, S]) each(fn func(*S)) {
	for _, s := range im.m {
		fn(s)
	}
}

// size reports the number of live entries.
func (im *instances[O, S]) size() int {
	im.mu.Lock()
	defer im.mu.Unlock()
	return len(im.m)
}
