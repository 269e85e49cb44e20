// Package pvec provides an immutable persistent vector with efficient batch mutation.
//
// A vector is a relaxed radix balanced tree whose leaf nodes hold fixed-size
// element chunks and whose inner nodes fan out 32 ways. A small tail buffer
// absorbs appends so that only every 32nd append touches the tree. Indexing
// is pure bit arithmetic on balanced trees and a short cumulative-size scan
// on trees relaxed by front trimming.
//
// Key features:
//   - Effectively constant time Get, Append, Set, Take, and Drop
//   - Immutable operations return new vectors; originals are never modified
//   - Structural sharing keeps copies cheap; unreachable nodes are reclaimed
//     through atomic reference counts
//   - Transients batch writes in place under an ownership token, then freeze
//     back into immutable vectors
//   - Thread-safe for concurrent read access
//
// Basic usage:
//
//	v := pvec.Of(1, 2, 3)
//	w := v.Append(4)        // v still holds [1 2 3]
//	x := w.Set(0, 9)        // [9 2 3 4]
//
//	tr := x.Transient()
//	for i := 0; i < 1000; i++ {
//		tr.Append(i)
//	}
//	x2 := tr.Persistent()   // tr must not be used after this
//	_ = x2
//
// Vectors are values: copying one is free and never copies elements. A
// Transient is single-owner state and must stay confined to one goroutine.
package pvec
