package plugins

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/chabad360/blocks/api"
)

var pluginType = reflect.TypeOf((*api.Plugin)(nil)).Elem()

// StaticRuntime instantiates entry points compiled into the host. It is
// the runtime to use when plugins are linked in rather than shipped as
// source; archives still carry the manifest.
type StaticRuntime struct {
	mu      sync.RWMutex
	entries map[string]staticEntry
}

type staticEntry struct {
	typ  reflect.Type
	ctor reflect.Value
}

// NewStaticRuntime returns an empty StaticRuntime.
func NewStaticRuntime() *StaticRuntime {
	return &StaticRuntime{entries: make(map[string]staticEntry)}
}

// Register makes typ available under entrypoint, written as
// "import/path.Type". typ should be a nil pointer of the entry point type:
// (*MyPlugin)(nil). ctor is its constructor, a func() T or
// func() (T, error); it may be nil, in which case instantiation fails.
func (r *StaticRuntime) Register(entrypoint string, typ any, ctor any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := staticEntry{typ: reflect.TypeOf(typ)}
	if ctor != nil {
		e.ctor = reflect.ValueOf(ctor)
	}
	r.entries[entrypoint] = e
}

// Instantiate looks up ep and calls its constructor.
func (r *StaticRuntime) Instantiate(_ context.Context, _ *Unit, ep Entrypoint) (api.Plugin, error) {
	r.mu.RLock()
	e, ok := r.entries[ep.String()]
	r.mu.RUnlock()

	if !ok || e.typ == nil {
		return nil, fmt.Errorf("%w: %s is not registered", ErrEntrypointNotFound, ep)
	}
	if !e.typ.Implements(pluginType) {
		return nil, fmt.Errorf("%w: %s", ErrEntrypointNotCompatible, ep)
	}

	if !e.ctor.IsValid() || e.ctor.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s", ErrEntrypointNotConstructible, ep)
	}
	t := e.ctor.Type()
	if t.NumIn() != 0 || t.NumOut() < 1 || t.NumOut() > 2 ||
		!t.Out(0).Implements(pluginType) ||
		t.NumOut() == 2 && t.Out(1) != errorType {
		return nil, fmt.Errorf("%w: %s: constructor has type %s", ErrEntrypointNotConstructible, ep, t)
	}

	return construct(ep, func() (api.Plugin, error) {
		out := e.ctor.Call(nil)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		if isNil(out[0]) {
			return nil, nil
		}
		return out[0].Interface().(api.Plugin), nil
	})
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
