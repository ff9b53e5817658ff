package reactive

import (
	"math"
	"testing"

	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/scheduler"
)

func newTestRuntime() (*loop.Loop, *Runtime) {
	l := loop.New()
	return l, New(scheduler.New(l))
}

type point struct {
	X, Y int
	Name string
}

type bag struct {
	vals map[string]any
}

func (b *bag) Get(key string) any        { return b.vals[key] }
func (b *bag) Set(key string, value any) { b.vals[key] = value }
func (b *bag) Keys() []string            { return sortedKeys(b.vals) }

func TestWrapIsIdempotent(t *testing.T) {
	_, rt := newTestRuntime()

	m := map[string]any{"a": 1}
	p := rt.Wrap(m)
	if rt.Wrap(p) != p {
		t.Error("wrapping a proxy should return it unchanged")
	}
	if rt.Wrap(m) != p {
		t.Error("wrapping the same map twice should return the same proxy")
	}

	pt := &point{}
	if rt.Wrap(pt) != rt.Wrap(pt) {
		t.Error("wrapping the same struct pointer twice should return the same proxy")
	}
	if rt.Targets() != 2 {
		t.Errorf("expected 2 targets, got %d", rt.Targets())
	}
	if !IsReactive(p) || IsReactive(m) {
		t.Error("IsReactive should only accept proxies")
	}
}

func TestWrapPanicsOnUnsupportedTarget(t *testing.T) {
	_, rt := newTestRuntime()
	defer func() {
		if recover() == nil {
			t.Error("expected panic wrapping an int")
		}
	}()
	rt.Wrap(42)
}

func TestReadAfterWrite(t *testing.T) {
	_, rt := newTestRuntime()
	p := rt.Wrap(map[string]any{"k": 1})
	rt.Effect(func() { _ = p.Get("k") })

	p.Set("k", 2)
	if got := Get[int](p, "k"); got != 2 {
		t.Errorf("expected 2 before any flush, got %d", got)
	}
}

func TestReadWithoutSubscriberAllocatesNothing(t *testing.T) {
	_, rt := newTestRuntime()
	m := map[string]any{"k": 1}
	p := rt.Wrap(m)
	_ = p.Get("k")
	if p.t.deps != nil {
		t.Error("untracked read should not create dependency entries")
	}
	if n := rt.DepCount(m, "k"); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestEffectFanIn(t *testing.T) {
	l, rt := newTestRuntime()
	a := rt.Wrap(map[string]any{"A": 1, "C": 1})
	b := rt.Wrap(&point{X: 1})

	runs := 0
	l.Do(func() {
		rt.Effect(func() {
			_ = a.Get("A")
			_ = b.Get("X")
			runs++
		})
	})
	if runs != 1 {
		t.Fatalf("expected 1 run, got %d", runs)
	}

	l.Do(func() { a.Set("A", 2) })
	if runs != 2 {
		t.Errorf("write to A: expected 2 runs, got %d", runs)
	}
	l.Do(func() { b.Set("X", 5) })
	if runs != 3 {
		t.Errorf("write to X: expected 3 runs, got %d", runs)
	}
	l.Do(func() { a.Set("C", 2) })
	if runs != 3 {
		t.Errorf("write to untracked C: expected 3 runs, got %d", runs)
	}
}

func TestBatchedWritesRunEffectOnce(t *testing.T) {
	l, rt := newTestRuntime()
	p := rt.Wrap(map[string]any{"a": 0, "b": 0})

	runs := 0
	var seen []int
	l.Do(func() {
		rt.Effect(func() {
			runs++
			seen = append(seen, Get[int](p, "a")+Get[int](p, "b"))
		})
	})

	l.Do(func() {
		p.Set("a", 1)
		p.Set("b", 2)
		if runs != 1 {
			t.Errorf("effect re-ran synchronously: %d runs", runs)
		}
	})
	if runs != 2 {
		t.Fatalf("expected exactly 2 runs, got %d", runs)
	}
	if seen[1] != 3 {
		t.Errorf("expected re-run to observe both writes, got %d", seen[1])
	}
}

func TestComputedMemoization(t *testing.T) {
	l, rt := newTestRuntime()
	p := rt.Wrap(map[string]any{"n": 2})

	calls := 0
	c := NewComputed(rt, func() int {
		calls++
		return Get[int](p, "n") * 10
	})
	if calls != 0 {
		t.Fatal("computed should be lazy")
	}

	if c.Value() != 20 || c.Value() != 20 {
		t.Fatal("unexpected computed value")
	}
	if calls != 1 {
		t.Errorf("expected 1 getter call for two reads, got %d", calls)
	}

	l.Do(func() {
		p.Set("n", 3)
		p.Set("n", 4)
	})
	if !c.Dirty() {
		t.Error("computed should be dirty after upstream write")
	}
	if c.Value() != 40 {
		t.Errorf("expected 40, got %d", c.Value())
	}
	if calls != 2 {
		t.Errorf("expected 2 getter calls, got %d", calls)
	}
}

func TestComputedSettlesBeforePlainEffects(t *testing.T) {
	_, rt := newTestRuntime()
	p := rt.Wrap(map[string]any{"n": 1})
	double := NewComputed(rt, func() int { return Get[int](p, "n") * 2 })

	var stale []int
	rt.NewEffect(func() {
		n := Get[int](p, "n")
		if d := double.Value(); d != n*2 {
			stale = append(stale, n)
		}
	})

	p.Set("n", 2)
	p.Set("n", 7)
	if len(stale) > 0 {
		t.Errorf("effect observed stale computed for n=%v", stale)
	}
}

func TestEffectDependsOnComputed(t *testing.T) {
	l, rt := newTestRuntime()
	p := rt.Wrap(map[string]any{"first": "Ada", "last": "Lovelace"})
	full := NewComputed(rt, func() string {
		return Get[string](p, "first") + " " + Get[string](p, "last")
	})

	var got []string
	l.Do(func() {
		rt.Effect(func() { got = append(got, full.Value()) })
	})
	l.Do(func() { p.Set("first", "Grace") })
	l.Do(func() { p.Set("last", "Hopper") })

	want := []string{"Ada Lovelace", "Grace Lovelace", "Grace Hopper"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestRefSkipsUnchangedWrites(t *testing.T) {
	l, rt := newTestRuntime()
	r := NewRef(rt, math.NaN())

	runs := 0
	l.Do(func() {
		rt.Effect(func() {
			_ = r.Value()
			runs++
		})
	})

	l.Do(func() { r.Set(math.NaN()) })
	if runs != 1 {
		t.Errorf("NaN to NaN should not trigger, got %d runs", runs)
	}
	l.Do(func() { r.Set(1) })
	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}
	l.Do(func() { r.Update(func(v float64) float64 { return v }) })
	if runs != 2 {
		t.Errorf("same value should not trigger, got %d runs", runs)
	}
	if r.DepCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", r.DepCount())
	}
}

func TestRefWrapsRecords(t *testing.T) {
	_, rt := newTestRuntime()
	m := map[string]any{"a": 1}
	r := NewRef[any](rt, m)
	if r.Peek() != rt.Wrap(m) {
		t.Error("record stored in a ref should be wrapped")
	}
	typed := NewRef(rt, m)
	typed.Value()["a"] = 2
	if m["a"] != 2 {
		t.Error("typed map ref should hold the raw map")
	}
}

func TestChanged(t *testing.T) {
	m := map[string]any{}
	s := []int{1, 2}
	pt := &point{}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal ints", 1, 1, false},
		{"different ints", 1, 2, true},
		{"nan", math.NaN(), math.NaN(), false},
		{"signed zero", 0.0, math.Copysign(0, -1), true},
		{"same map", m, m, false},
		{"other map", m, map[string]any{}, true},
		{"same slice", s, s, false},
		{"resliced", s, s[:1], true},
		{"same pointer", pt, pt, false},
		{"equal structs", point{X: 1}, point{X: 1}, false},
		{"different types", 1, int64(1), true},
		{"nil to nil", nil, nil, false},
		{"nil to value", nil, 1, true},
		{"funcs", func() {}, func() {}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Changed(tt.a, tt.b); got != tt.want {
				t.Errorf("Changed(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestActiveRestoredAfterPanic(t *testing.T) {
	_, rt := newTestRuntime()

	outer := rt.NewEffect(func() {}, Lazy())
	outer.fn = func() {
		func() {
			defer func() { _ = recover() }()
			rt.NewEffect(func() { panic("boom") })
		}()
		if rt.Active() != outer {
			t.Error("outer effect should be active again after inner panic")
		}
	}
	outer.Run()

	if rt.Active() != nil {
		t.Error("active subscriber should be cleared after the run")
	}
}

func TestStoppedEffectDoesNotRunQueuedJob(t *testing.T) {
	l, rt := newTestRuntime()
	p := rt.Wrap(map[string]any{"n": 0})

	runs := 0
	var e *Effect
	l.Do(func() {
		e = rt.Effect(func() {
			_ = p.Get("n")
			runs++
		})
	})

	l.Do(func() {
		p.Set("n", 1)
		e.Stop()
	})
	if runs != 1 {
		t.Errorf("queued job for stopped effect ran: %d runs", runs)
	}
	if rt.DepCount(p, "n") != 0 {
		t.Error("stopped effect should leave its deps")
	}
	l.Do(func() { p.Set("n", 2) })
	if runs != 1 {
		t.Errorf("stopped effect re-ran: %d runs", runs)
	}
}

func TestStaleDependenciesAreKept(t *testing.T) {
	l, rt := newTestRuntime()
	p := rt.Wrap(map[string]any{"flag": true, "a": 1, "b": 1})

	runs := 0
	l.Do(func() {
		rt.Effect(func() {
			runs++
			if Get[bool](p, "flag") {
				_ = p.Get("a")
			} else {
				_ = p.Get("b")
			}
		})
	})
	l.Do(func() { p.Set("flag", false) })
	l.Do(func() { p.Set("a", 2) })
	if runs != 3 {
		t.Errorf("expected write to a stale dep to re-run, got %d runs", runs)
	}
}

func TestEffectDoesNotRetriggerItself(t *testing.T) {
	l, rt := newTestRuntime()
	p := rt.Wrap(map[string]any{"n": 0})

	runs := 0
	l.Do(func() {
		rt.Effect(func() {
			runs++
			p.Set("n", Get[int](p, "n")+1)
		})
	})
	if runs != 1 || Get[int](p, "n") != 1 {
		t.Errorf("expected 1 run, got %d (n=%v)", runs, p.Peek("n"))
	}
}

func TestUntracked(t *testing.T) {
	l, rt := newTestRuntime()
	p := rt.Wrap(map[string]any{"n": 0})

	runs := 0
	l.Do(func() {
		rt.Effect(func() {
			runs++
			rt.Untracked(func() { _ = p.Get("n") })
		})
	})
	l.Do(func() { p.Set("n", 1) })
	if runs != 1 {
		t.Errorf("untracked read subscribed the effect: %d runs", runs)
	}
}

func TestStructAndRecordTargets(t *testing.T) {
	l, rt := newTestRuntime()
	pt := &point{X: 1, Y: 2}
	sp := rt.Wrap(pt)

	keys := sp.Keys()
	if len(keys) != 3 || keys[0] != "X" || keys[2] != "Name" {
		t.Errorf("unexpected struct keys %v", keys)
	}
	sp.Set("Y", 9)
	if pt.Y != 9 {
		t.Errorf("struct write not forwarded, Y=%d", pt.Y)
	}

	b := &bag{vals: map[string]any{"v": "a"}}
	bp := rt.Wrap(b)
	var got []any
	l.Do(func() {
		rt.Effect(func() { got = append(got, bp.Get("v")) })
	})
	l.Do(func() { bp.Set("v", "b") })
	if len(got) != 2 || got[1] != "b" {
		t.Errorf("record target: got %v", got)
	}
}

func TestChildProxy(t *testing.T) {
	_, rt := newTestRuntime()
	inner := map[string]any{"x": 1}
	p := rt.Wrap(map[string]any{"inner": inner, "n": 1})
	if p.Child("inner") != rt.Wrap(inner) {
		t.Error("Child should return the nested record's proxy")
	}
	if p.Child("n") != nil {
		t.Error("Child of a scalar should be nil")
	}
}

func TestWatchRef(t *testing.T) {
	l, rt := newTestRuntime()
	r := NewRef(rt, 1)

	type call struct{ v, old any }
	var calls []call
	var stop func()
	l.Do(func() {
		stop = rt.Watch(r, func(v, old any) {
			calls = append(calls, call{v, old})
		}, WatchOptions{})
	})
	if len(calls) != 0 {
		t.Fatal("watch without Immediate should not call back at creation")
	}

	l.Do(func() {
		r.Set(2)
		r.Set(3)
	})
	if len(calls) != 1 || calls[0].v != 3 || calls[0].old != 1 {
		t.Errorf("expected one call (3, 1), got %v", calls)
	}

	stop()
	l.Do(func() { r.Set(4) })
	if len(calls) != 1 {
		t.Errorf("stopped watcher called back: %v", calls)
	}
}

func TestWatchImmediateGetter(t *testing.T) {
	l, rt := newTestRuntime()
	p := rt.Wrap(map[string]any{"n": 5})

	var got []any
	l.Do(func() {
		rt.Watch(func() any { return p.Get("n") }, func(v, old any) {
			got = append(got, v, old)
		}, WatchOptions{Immediate: true})
	})
	if len(got) != 2 || got[0] != 5 || got[1] != nil {
		t.Errorf("immediate call: got %v", got)
	}
}

func TestWatchProxyIsDeep(t *testing.T) {
	l, rt := newTestRuntime()
	inner := map[string]any{"x": 1}
	p := rt.Wrap(map[string]any{"inner": inner})

	calls := 0
	l.Do(func() {
		rt.Watch(p, func(v, old any) { calls++ }, WatchOptions{})
	})
	l.Do(func() { rt.Wrap(inner).Set("x", 2) })
	if calls != 1 {
		t.Errorf("nested write should fire the deep watcher once, got %d", calls)
	}
}

func TestWatchPanicsOnUnsupportedSource(t *testing.T) {
	_, rt := newTestRuntime()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	rt.Watch(3, func(v, old any) {}, WatchOptions{})
}
