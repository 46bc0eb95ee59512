package naming

// Index stores values under several keys. The first value added under a
// key keeps it.
type Index[T any] struct {
	m map[string]T
}

// NewIndex returns an empty index.
func NewIndex[T any]() *Index[T] {
	return &Index[T]{m: make(map[string]T)}
}

// Add registers v under keys not already taken.
func (ix *Index[T]) Add(v T, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := ix.m[k]; !ok {
			ix.m[k] = v
		}
	}
}

// Lookup returns the value of the first key present.
func (ix *Index[T]) Lookup(keys ...string) (T, bool) {
	for _, k := range keys {
		if v, ok := ix.m[k]; ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Has reports whether any key is present.
func (ix *Index[T]) Has(keys ...string) bool {
	_, ok := ix.Lookup(keys...)
	return ok
}

// Len returns the number of distinct keys.
func (ix *Index[T]) Len() int { return len(ix.m) }
