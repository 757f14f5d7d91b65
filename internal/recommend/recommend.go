// Package recommend holds the like-set similarity used for film
// recommendations. Everything here is pure: callers load the like sets and
// hydrate the resulting film ids.
package recommend

import "sort"

// Set is a set of film ids.
type Set map[uint64]struct{}

// NewSet builds a Set from ids. Duplicates collapse.
func NewSet(ids ...uint64) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in s.
func (s Set) Has(id uint64) bool {
	_, ok := s[id]
	return ok
}

// Overlap returns |s ∩ other|.
func (s Set) Overlap(other Set) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for id := range small {
		if large.Has(id) {
			n++
		}
	}
	return n
}

// Sorted returns the members of s in ascending order.
func (s Set) Sorted() []uint64 {
	out := make([]uint64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MostSimilar returns the user other than target whose like set shares the
// most films with liked. Ties go to the lowest user id. ok is false when no
// other user shares at least one film.
func MostSimilar(target uint64, liked Set, all map[uint64]Set) (userID uint64, ok bool) {
	ids := make([]uint64, 0, len(all))
	for id := range all {
		if id != target {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	best := 0
	for _, id := range ids {
		// Strictly greater keeps the earliest, lowest id on ties.
		if n := liked.Overlap(all[id]); n > best {
			best, userID = n, id
		}
	}
	return userID, best > 0
}

// Difference returns the members of from that are not in exclude, in
// ascending order.
func Difference(from, exclude Set) []uint64 {
	out := []uint64{}
	for _, id := range from.Sorted() {
		if !exclude.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// Suggest returns the film ids to recommend to target given every user's
// like set: the films liked by the most similar user that target has not
// liked, ascending. An empty result means there is nothing to suggest.
func Suggest(target uint64, likeSets map[uint64][]uint64) []uint64 {
	all := make(map[uint64]Set, len(likeSets))
	for id, films := range likeSets {
		all[id] = NewSet(films...)
	}
	liked := all[target]
	if liked == nil {
		liked = Set{}
	}
	peer, ok := MostSimilar(target, liked, all)
	if !ok {
		return []uint64{}
	}
	return Difference(all[peer], liked)
}
