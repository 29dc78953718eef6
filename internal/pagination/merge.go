// Package pagination implements the two-way merge behind participant
// listings. Each secondary index is range-scanned independently with the
// same exclusive cursor; the two ascending slices are merged here instead of
// maintaining a composite index across both roles.
package pagination

// PageSize is the fixed listing page size. Callers pass the last consumed
// key back as the next page's exclusive lower bound.
const PageSize = 25

// Merge combines two ascending sequences into one ascending sequence of at
// most limit items. Equal keys favor the first sequence.
func Merge[T any](a, b []T, key func(T) uint64, limit int) []T {
	out := make([]T, 0, min(limit, len(a)+len(b)))
	i, j := 0, 0
	for len(out) < limit && (i < len(a) || j < len(b)) {
		if j >= len(b) || (i < len(a) && key(a[i]) <= key(b[j])) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	return out
}
