package pvec

import "testing"

func TestDetachReusesExclusiveTail(t *testing.T) {
	// move reuse is on by default: detaching the only handle lets the
	// transient write into the existing leaf storage
	v := New[int]().Append(0)
	before := &v.t.tail.items[0]
	tr := v.Detach()
	for i := 1; i <= 10; i++ {
		if err := tr.Append(i); err != nil {
			t.Fatal(err)
		}
	}
	out := tr.Persistent()
	if &out.t.tail.items[0] != before {
		t.Error("Detach should have kept the exclusive tail storage")
	}
	checkContents(t, out, seq(11))
}

func TestDetachWithoutMoveReuseCopies(t *testing.T) {
	v := New[int](WithMoveReuse(false)).Append(0)
	before := &v.t.tail.items[0]
	tr := v.Detach()
	for i := 1; i <= 10; i++ {
		if err := tr.Append(i); err != nil {
			t.Fatal(err)
		}
	}
	out := tr.Persistent()
	if &out.t.tail.items[0] == before {
		t.Error("disabled move reuse should force a copy on first write")
	}
	checkContents(t, out, seq(11))
}

func TestDetachLeavesSharedNodesAlone(t *testing.T) {
	// a tail shared with another vector must not be claimed, whatever
	// the policy says
	v := New[int]().Append(0)
	keep := v.Append(99) // derived value, holds its own copied tail
	shared := v.Transient().Persistent()
	before := &v.t.tail.items[0]

	tr := v.Detach()
	if err := tr.Append(1); err != nil {
		t.Fatal(err)
	}
	if &tr.t.tail.items[0] == before {
		t.Error("Detach claimed a node another handle still references")
	}
	checkContents(t, shared, []int{0})
	checkContents(t, keep, []int{0, 99})
}

func TestDetachDeepTreeSetInPlace(t *testing.T) {
	tr := New[int]().Transient()
	for i := 0; i < 5000; i++ {
		if err := tr.Append(i); err != nil {
			t.Fatal(err)
		}
	}
	v := tr.Persistent()

	d := v.Detach()
	if err := d.Set(100, -1); err != nil {
		t.Fatal(err)
	}
	// the root was exclusively owned; the first write claims the path
	// and the second write through it stays in place
	root := d.t.root
	if err := d.Set(101, -2); err != nil {
		t.Fatal(err)
	}
	if d.t.root != root {
		t.Error("second write through a claimed path replaced the root")
	}
	out := d.Persistent()
	want := seq(5000)
	want[100], want[101] = -1, -2
	checkContents(t, out, want)
}

func TestTransientAlwaysCopiesSharedPath(t *testing.T) {
	// Transient (non-consuming) must leave the source untouched even
	// for freshly built, exclusively held vectors
	v := FromSlice(seq(64))
	before := &v.t.tail.items[0]
	tr := v.Transient()
	if err := tr.Set(63, -1); err != nil {
		t.Fatal(err)
	}
	if &tr.t.tail.items[0] == before {
		t.Error("Transient claimed the source's tail")
	}
	if v.Get(63) != 63 {
		t.Errorf("source observed the write: %d", v.Get(63))
	}
}
