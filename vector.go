package pvec

import (
	"fmt"
	"strings"
)

// Vector is an immutable sequence backed by a relaxed radix balanced
// tree. Operations return new vectors sharing structure with the
// receiver; the receiver is never changed. The zero value is an empty
// vector with default policy.
//
// Vector values are cheap to copy and safe for concurrent use.
type Vector[T any] struct {
	t tree[T]
}

// New returns an empty vector configured by opts.
func New[T any](opts ...Option) Vector[T] {
	return Vector[T]{t: tree[T]{pol: newPolicy[T](opts)}}
}

// Of returns a vector holding items in order.
func Of[T any](items ...T) Vector[T] {
	return FromSlice(items)
}

// FromSlice returns a vector holding a copy of items, configured by
// opts. Later changes to items do not affect the vector.
func FromSlice[T any](items []T, opts ...Option) Vector[T] {
	b := NewBuilder[T](opts...)
	for _, v := range items {
		b.Append(v)
	}
	return b.Vector()
}

// Len returns the number of elements.
func (v Vector[T]) Len() int { return v.t.size }

// IsEmpty reports whether the vector has no elements.
func (v Vector[T]) IsEmpty() bool { return v.t.size == 0 }

// Get returns element i. It panics if i is out of range.
func (v Vector[T]) Get(i int) T {
	if i < 0 || i >= v.t.size {
		panic(fmt.Sprintf("pvec: index out of range [%d] with length %d", i, v.t.size))
	}
	return v.t.get(i)
}

// Front returns the first element, or the zero value and false when
// the vector is empty.
func (v Vector[T]) Front() (T, bool) {
	if v.t.size == 0 {
		var zero T
		return zero, false
	}
	return v.t.get(0), true
}

// Back returns the last element, or the zero value and false when the
// vector is empty.
func (v Vector[T]) Back() (T, bool) {
	if v.t.size == 0 {
		var zero T
		return zero, false
	}
	return v.t.get(v.t.size - 1), true
}

// Append returns a vector with v added at the back.
func (v Vector[T]) Append(x T) Vector[T] {
	return Vector[T]{t: v.t.pushBack(x)}
}

// Set returns a vector with element i replaced by x. It panics if i
// is out of range.
func (v Vector[T]) Set(i int, x T) Vector[T] {
	if i < 0 || i >= v.t.size {
		panic(fmt.Sprintf("pvec: index out of range [%d] with length %d", i, v.t.size))
	}
	return Vector[T]{t: v.t.assoc(i, x)}
}

// Update returns a vector with element i replaced by fn applied to
// its current value. It panics if i is out of range.
func (v Vector[T]) Update(i int, fn func(T) T) Vector[T] {
	if i < 0 || i >= v.t.size {
		panic(fmt.Sprintf("pvec: index out of range [%d] with length %d", i, v.t.size))
	}
	return Vector[T]{t: v.t.assoc(i, fn(v.t.get(i)))}
}

// Take returns a vector keeping only the first n elements. n is
// clamped to [0, Len].
func (v Vector[T]) Take(n int) Vector[T] {
	return Vector[T]{t: v.t.take(n)}
}

// Drop returns a vector without the first n elements. n is clamped to
// [0, Len].
func (v Vector[T]) Drop(n int) Vector[T] {
	return Vector[T]{t: v.t.drop(n)}
}

// Slice returns the subvector covering [i, j). Both bounds are
// clamped, and j below i yields an empty vector.
func (v Vector[T]) Slice(i, j int) Vector[T] {
	taken := v.Take(j)
	out := taken.Drop(i)
	// the intermediate handle is not returned; drop its references
	release(taken.t.root, taken.t.pol)
	release(taken.t.tail, taken.t.pol)
	return out
}

// Transient returns a mutable handle seeded with v's contents. The
// vector remains valid: the transient copies any node it still shares
// with v before writing to it.
func (v Vector[T]) Transient() *Transient[T] {
	return &Transient[T]{t: v.t.share(), e: newEdit()}
}

// Detach converts v into a transient, adopting its references instead
// of sharing them. The receiver, and any copies of it, must not be
// used afterwards. When move reuse is enabled, nodes the vector held
// exclusively are claimed in place and the transient's first writes
// land directly in them.
func (v Vector[T]) Detach() *Transient[T] {
	e := newEdit()
	t := v.t
	if t.pol.moveEnabled() {
		if t.root != nil && t.root.refs.Load() == 1 {
			t.root.edit = e
		}
		if t.tail != nil && t.tail.refs.Load() == 1 {
			t.tail.edit = e
		}
	}
	return &Transient[T]{t: t, e: e}
}

// ToSlice returns the elements as a fresh slice. An empty vector
// yields nil.
func (v Vector[T]) ToSlice() []T {
	if v.t.size == 0 {
		return nil
	}
	out := make([]T, 0, v.t.size)
	it := v.Chunks()
	for it.Next() {
		out = append(out, it.Chunk()...)
	}
	return out
}

// String renders the vector like a slice literal.
func (v Vector[T]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	it := v.Chunks()
	for it.Next() {
		for j, x := range it.Chunk() {
			if it.Offset()+j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%v", x)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// Equal reports whether a and b hold equal elements in the same
// order. Chunks the two vectors share are compared by identity, not
// element by element.
func Equal[T comparable](a, b Vector[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return x == y })
}

// EqualFunc is Equal with a caller-supplied element predicate.
func EqualFunc[T any](a, b Vector[T], eq func(T, T) bool) bool {
	if a.t.size != b.t.size {
		return false
	}
	if a.t.size == 0 {
		return true
	}
	if a.t.root == b.t.root && a.t.tail == b.t.tail {
		return true
	}
	ca, cb := a.Chunks(), b.Chunks()
	var sa, sb []T
	for {
		if len(sa) == 0 {
			if !ca.Next() {
				return true
			}
			sa = ca.Chunk()
		}
		if len(sb) == 0 {
			cb.Next()
			sb = cb.Chunk()
		}
		if len(sa) == len(sb) && &sa[0] == &sb[0] {
			sa, sb = nil, nil
			continue
		}
		n := min(len(sa), len(sb))
		for i := 0; i < n; i++ {
			if !eq(sa[i], sb[i]) {
				return false
			}
		}
		sa, sb = sa[n:], sb[n:]
	}
}
