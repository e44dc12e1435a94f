package utils

import "iter"

// Map yields fn of every value of seq.
func Map[S, T any](seq iter.Seq[S], fn func(S) T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			if !yield(fn(v)) {
				return
			}
		}
	}
}

// Filter yields the values of seq that keep accepts.
func Filter[T any](seq iter.Seq[T], keep func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			if keep(v) && !yield(v) {
				return
			}
		}
	}
}

// Page returns the window of s starting at offset holding at most limit
// elements. A zero limit means no limit.
func Page[S any](s []S, offset, limit uint64) []S {
	n := uint64(len(s))
	if offset >= n {
		return []S{}
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return s[offset:end]
}
