package reactive

import (
	"math"
	"reflect"
)

// Ref is a single observable value.
type Ref[T any] struct {
	rt    *Runtime
	value T
	dep   *Dep
}

// NewRef creates a ref holding initial. When T is an interface type and the
// value is a wrappable record, the ref stores its proxy instead.
func NewRef[T any](rt *Runtime, initial T) *Ref[T] {
	return &Ref[T]{rt: rt, value: toReactive(rt, initial)}
}

func toReactive[T any](rt *Runtime, v T) T {
	if IsReactive(v) || !IsRecord(v) {
		return v
	}
	if w, ok := any(rt.Wrap(v)).(T); ok {
		return w
	}
	return v
}

// Value returns the current value and subscribes the active effect.
func (r *Ref[T]) Value() T {
	r.rt.trackLazy(&r.dep)
	return r.value
}

// Peek returns the current value without subscribing.
func (r *Ref[T]) Peek() T {
	return r.value
}

// Set stores v and notifies subscribers, unless v is unchanged per Changed.
func (r *Ref[T]) Set(v T) {
	v = toReactive(r.rt, v)
	if !Changed(r.value, v) {
		return
	}
	r.value = v
	r.rt.triggerDep(r.dep)
}

// Update sets the value to fn applied to the current value.
func (r *Ref[T]) Update(fn func(T) T) {
	r.Set(fn(r.value))
}

// DepCount returns the number of subscribers.
func (r *Ref[T]) DepCount() int {
	return r.dep.Len()
}

func (r *Ref[T]) watchValue() any {
	return r.Value()
}

// Changed reports whether replacing old with v counts as a change.
//
// NaN equals NaN, while +0 and -0 differ. Maps, pointers, channels and funcs
// compare by identity (two non-nil funcs always count as changed). Slices
// compare by backing array and length. Other comparable values compare with
// ==; the rest fall back to reflect.DeepEqual.
func Changed(old, v any) bool {
	switch a := old.(type) {
	case float64:
		if b, ok := v.(float64); ok {
			return !sameFloat(a, b)
		}
	case float32:
		if b, ok := v.(float32); ok {
			return !sameFloat(float64(a), float64(b))
		}
	}
	if old == nil || v == nil {
		return old != v
	}
	ra, rb := reflect.ValueOf(old), reflect.ValueOf(v)
	if ra.Type() != rb.Type() {
		return true
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return ra.UnsafePointer() != rb.UnsafePointer()
	case reflect.Func:
		return !(ra.IsNil() && rb.IsNil())
	case reflect.Slice:
		return ra.UnsafePointer() != rb.UnsafePointer() || ra.Len() != rb.Len()
	}
	if ra.Comparable() {
		return old != v
	}
	return !reflect.DeepEqual(old, v)
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b && math.Signbit(a) == math.Signbit(b)
}
