package reactive

import (
	"fmt"
	"reflect"
	"sort"
)

// Record is a mutable record that manages its own storage. Implementations
// must be pointers so they have a stable identity.
type Record interface {
	Get(key string) any
	Set(key string, value any)
	Keys() []string
}

// Proxy is the observable view of a wrapped target. Obtain one with
// Runtime.Wrap; the same target always yields the same Proxy.
type Proxy struct {
	rt *Runtime
	t  *target
}

// Wrap returns the stable proxy for v, creating it on first use.
// Wrapping a *Proxy returns it unchanged.
//
// Supported values are maps with string keys, pointers to structs (exported
// fields are the keys), and pointer implementations of Record. Wrap panics on
// anything else.
func (rt *Runtime) Wrap(v any) *Proxy {
	if p, ok := v.(*Proxy); ok {
		return p
	}
	id, ok := identify(v)
	if !ok {
		panic(fmt.Sprintf("reactive: cannot wrap %T: not a map, struct pointer, or Record", v))
	}
	if idx, ok := rt.index[id]; ok {
		return rt.targets[idx].proxy
	}

	acc, err := newAccessor(v)
	if err != nil {
		panic(err.Error())
	}
	t := &target{
		id:  len(rt.targets),
		raw: v,
		acc: acc,
	}
	t.proxy = &Proxy{rt: rt, t: t}
	rt.targets = append(rt.targets, t)
	rt.index[id] = t.id
	return t.proxy
}

// IsReactive reports whether v is a Proxy.
func IsReactive(v any) bool {
	_, ok := v.(*Proxy)
	return ok
}

// IsReactive reports whether v is a Proxy owned by this runtime.
func (rt *Runtime) IsReactive(v any) bool {
	p, ok := v.(*Proxy)
	return ok && p.rt == rt
}

// IsRecord reports whether v can be wrapped.
func IsRecord(v any) bool {
	if _, ok := v.(*Proxy); ok {
		return true
	}
	_, ok := identify(v)
	return ok
}

// ID returns the target's arena index.
func (p *Proxy) ID() int {
	return p.t.id
}

// Runtime returns the runtime that owns p.
func (p *Proxy) Runtime() *Runtime {
	return p.rt
}

// Raw returns the wrapped target.
func (p *Proxy) Raw() any {
	return p.t.raw
}

// Get returns the value stored under key and subscribes the active effect.
func (p *Proxy) Get(key string) any {
	v := p.t.acc.get(key)
	p.rt.track(p.t, key)
	return v
}

// Peek returns the value stored under key without subscribing.
func (p *Proxy) Peek(key string) any {
	return p.t.acc.get(key)
}

// Has reports whether key is present. The read is tracked like Get.
func (p *Proxy) Has(key string) bool {
	ok := p.t.acc.has(key)
	p.rt.track(p.t, key)
	return ok
}

// Set stores value under key and triggers subscribers of key.
func (p *Proxy) Set(key string, value any) {
	p.t.acc.set(key, value)
	p.rt.trigger(p.t, key)
}

// Delete removes key from a map target and triggers its subscribers.
// Struct targets reset the field to its zero value.
func (p *Proxy) Delete(key string) {
	p.t.acc.del(key)
	p.rt.trigger(p.t, key)
}

// Keys returns the target's keys. Map keys are sorted; struct keys follow
// field order.
func (p *Proxy) Keys() []string {
	return p.t.acc.keys()
}

// Child returns the proxy for the record stored under key, or nil if the
// value is not a record. The read is tracked.
func (p *Proxy) Child(key string) *Proxy {
	v := p.Get(key)
	if v == nil || !IsRecord(v) {
		return nil
	}
	return p.rt.Wrap(v)
}

// Get reads key from p and asserts it to T, returning the zero value when the
// key is missing or holds another type.
func Get[T any](p *Proxy, key string) T {
	v, _ := p.Get(key).(T)
	return v
}

func identify(v any) (identity, bool) {
	if v == nil {
		return identity{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return identity{}, false
		}
		return identity{typ: rv.Type(), ptr: rv.UnsafePointer()}, true
	case reflect.Pointer:
		if rv.IsNil() {
			return identity{}, false
		}
		if _, ok := v.(Record); !ok && rv.Elem().Kind() != reflect.Struct {
			return identity{}, false
		}
		return identity{typ: rv.Type(), ptr: rv.UnsafePointer()}, true
	}
	return identity{}, false
}

// accessor performs raw reads and writes on one target kind.
type accessor interface {
	get(key string) any
	has(key string) bool
	set(key string, value any)
	del(key string)
	keys() []string
}

func newAccessor(v any) (accessor, error) {
	if r, ok := v.(Record); ok {
		return recordAccessor{r}, nil
	}
	if m, ok := v.(map[string]any); ok {
		return anyMapAccessor(m), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return mapAccessor{rv}, nil
	case reflect.Pointer:
		return newStructAccessor(rv.Elem()), nil
	}
	return nil, fmt.Errorf("reactive: unsupported target %T", v)
}

type recordAccessor struct{ r Record }

func (a recordAccessor) get(key string) any    { return a.r.Get(key) }
func (a recordAccessor) set(key string, v any) { a.r.Set(key, v) }
func (a recordAccessor) del(key string)        { a.r.Set(key, nil) }
func (a recordAccessor) keys() []string        { return a.r.Keys() }
func (a recordAccessor) has(key string) bool {
	for _, k := range a.r.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

type anyMapAccessor map[string]any

func (m anyMapAccessor) get(key string) any    { return m[key] }
func (m anyMapAccessor) set(key string, v any) { m[key] = v }
func (m anyMapAccessor) del(key string)        { delete(m, key) }
func (m anyMapAccessor) has(key string) bool {
	_, ok := m[key]
	return ok
}
func (m anyMapAccessor) keys() []string { return sortedKeys(m) }

// mapAccessor handles maps with string-kinded keys and arbitrary values.
type mapAccessor struct{ m reflect.Value }

func (a mapAccessor) key(k string) reflect.Value {
	return reflect.ValueOf(k).Convert(a.m.Type().Key())
}

func (a mapAccessor) get(key string) any {
	v := a.m.MapIndex(a.key(key))
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func (a mapAccessor) has(key string) bool {
	return a.m.MapIndex(a.key(key)).IsValid()
}

func (a mapAccessor) set(key string, value any) {
	a.m.SetMapIndex(a.key(key), convertValue(value, a.m.Type().Elem(), key))
}

func (a mapAccessor) del(key string) {
	a.m.SetMapIndex(a.key(key), reflect.Value{})
}

func (a mapAccessor) keys() []string {
	out := make([]string, 0, a.m.Len())
	iter := a.m.MapRange()
	for iter.Next() {
		out = append(out, iter.Key().String())
	}
	sort.Strings(out)
	return out
}

type structAccessor struct {
	v      reflect.Value
	fields []string
}

func newStructAccessor(v reflect.Value) structAccessor {
	t := v.Type()
	fields := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.IsExported() {
			fields = append(fields, f.Name)
		}
	}
	return structAccessor{v: v, fields: fields}
}

func (a structAccessor) field(key string) reflect.Value {
	f := a.v.FieldByName(key)
	if !f.IsValid() || !f.CanSet() {
		panic(fmt.Sprintf("reactive: %s has no exported field %q", a.v.Type(), key))
	}
	return f
}

func (a structAccessor) get(key string) any { return a.field(key).Interface() }

func (a structAccessor) has(key string) bool {
	for _, f := range a.fields {
		if f == key {
			return true
		}
	}
	return false
}

func (a structAccessor) set(key string, value any) {
	f := a.field(key)
	f.Set(convertValue(value, f.Type(), key))
}

func (a structAccessor) del(key string) {
	f := a.field(key)
	f.Set(reflect.Zero(f.Type()))
}

func (a structAccessor) keys() []string {
	out := make([]string, len(a.fields))
	copy(out, a.fields)
	return out
}

func convertValue(value any, to reflect.Type, key string) reflect.Value {
	if value == nil {
		return reflect.Zero(to)
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(to) {
		return v
	}
	if v.Type().ConvertibleTo(to) {
		return v.Convert(to)
	}
	panic(fmt.Sprintf("reactive: cannot assign %T to %q (%s)", value, key, to))
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
