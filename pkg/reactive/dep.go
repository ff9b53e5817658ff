package reactive

import mapset "github.com/deckarep/golang-set/v2"

// Dep is the set of effects subscribed to one (target, key) pair, one Ref, or
// one Computed. Iteration follows subscription order.
type Dep struct {
	subs    []*Effect
	members mapset.Set[*Effect]
}

func newDep() *Dep {
	return &Dep{members: mapset.NewThreadUnsafeSet[*Effect]()}
}

// add subscribes e. Reports false if e was already subscribed.
func (d *Dep) add(e *Effect) bool {
	if !d.members.Add(e) {
		return false
	}
	d.subs = append(d.subs, e)
	return true
}

func (d *Dep) remove(e *Effect) {
	if !d.members.Contains(e) {
		return
	}
	d.members.Remove(e)
	for i, s := range d.subs {
		if s == e {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribers.
func (d *Dep) Len() int {
	if d == nil {
		return 0
	}
	return len(d.subs)
}

func (d *Dep) snapshot() []*Effect {
	out := make([]*Effect, len(d.subs))
	copy(out, d.subs)
	return out
}
