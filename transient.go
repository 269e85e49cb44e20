package pvec

import "fmt"

// Transient is a mutable handle over vector contents. It batches
// updates that would otherwise each pay for path copying: the first
// write to a shared node copies it and stamps the copy with the
// transient's ownership token, and every later write through that
// node lands in place.
//
// A Transient is single-owner state. It must not be used from more
// than one goroutine, and after Persistent it must not be used at
// all.
type Transient[T any] struct {
	t tree[T]
	e *edit
}

func (tr *Transient[T]) guard() {
	if tr.e == nil {
		panic("pvec: use of frozen Transient")
	}
}

// Len returns the number of elements.
func (tr *Transient[T]) Len() int {
	tr.guard()
	return tr.t.size
}

// IsEmpty reports whether the transient has no elements.
func (tr *Transient[T]) IsEmpty() bool {
	tr.guard()
	return tr.t.size == 0
}

// Get returns element i. It panics if i is out of range.
func (tr *Transient[T]) Get(i int) T {
	tr.guard()
	if i < 0 || i >= tr.t.size {
		panic(fmt.Sprintf("pvec: index out of range [%d] with length %d", i, tr.t.size))
	}
	return tr.t.get(i)
}

// Append adds v at the back. On error the transient is unchanged.
func (tr *Transient[T]) Append(v T) error {
	tr.guard()
	return tr.t.pushBackMut(tr.e, v)
}

// Set replaces element i with v. It returns ErrIndexOutOfRange when i
// is out of range; on any error the transient is unchanged.
func (tr *Transient[T]) Set(i int, v T) error {
	tr.guard()
	if i < 0 || i >= tr.t.size {
		return ErrIndexOutOfRange
	}
	return tr.t.assocMut(tr.e, i, v)
}

// Update replaces element i with fn applied to its current value. An
// error from fn is returned unchanged and nothing is written.
func (tr *Transient[T]) Update(i int, fn func(T) (T, error)) error {
	tr.guard()
	if i < 0 || i >= tr.t.size {
		return ErrIndexOutOfRange
	}
	v, err := fn(tr.t.get(i))
	if err != nil {
		return err
	}
	return tr.t.assocMut(tr.e, i, v)
}

// Take truncates to the first n elements. n is clamped to [0, Len].
// On error the transient is unchanged.
func (tr *Transient[T]) Take(n int) error {
	tr.guard()
	return tr.t.takeMut(tr.e, n)
}

// Drop removes the first n elements. n is clamped to [0, Len]. On
// error the transient is unchanged.
func (tr *Transient[T]) Drop(n int) error {
	tr.guard()
	return tr.t.dropMut(tr.e, n)
}

// Persistent freezes the transient and returns its contents as a
// vector. The vector adopts the transient's references; any later use
// of the transient panics.
func (tr *Transient[T]) Persistent() Vector[T] {
	tr.guard()
	t := tr.t
	tr.t = tree[T]{pol: t.pol}
	tr.e = nil
	return Vector[T]{t: t}
}

// Snapshot returns a persistent view of the current contents without
// freezing the transient. The transient keeps working; its next write
// to any node the snapshot shares copies that node first.
func (tr *Transient[T]) Snapshot() Vector[T] {
	tr.guard()
	t := tr.t.share()
	// rotate the token so nodes stamped before the snapshot are no
	// longer claimable in place
	tr.e = newEdit()
	return Vector[T]{t: t}
}

// ToSlice returns the elements as a fresh slice.
func (tr *Transient[T]) ToSlice() []T {
	tr.guard()
	if tr.t.size == 0 {
		return nil
	}
	out := make([]T, 0, tr.t.size)
	it := newChunkIterator(&tr.t)
	for it.Next() {
		out = append(out, it.Chunk()...)
	}
	return out
}
