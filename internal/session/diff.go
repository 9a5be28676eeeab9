package session

// Changed reports whether a freshly read snapshot differs from the
// previously emitted one. Equality is exact and positional: same length
// and identical content at every index, empty-line padding included.
// Normalization (trailing-whitespace trimming) is the console backend's
// job, not the differencer's.
func Changed(previous, current []string) bool {
	if len(previous) != len(current) {
		return true
	}
	for i := range current {
		if previous[i] != current[i] {
			return true
		}
	}
	return false
}
