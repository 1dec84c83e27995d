package headers

import (
	"github.com/indigo-web/utils/strcomp"
)

type Pair struct {
	Key, Value string
}

// Headers is an ordered multi-map of header fields. Keys are compared case-insensitively,
// while their original case is preserved. It uses linear search instead of hashing, which
// proves to be more efficient on relatively low amount of entries, which often enough is
// the case.
type Headers struct {
	pairs      []Pair
	uniqueBuff []string
	valuesBuff []string
}

func New() *Headers {
	return new(Headers)
}

// NewPrealloc returns an instance of Headers with pre-allocated underlying storage.
func NewPrealloc(n int) *Headers {
	return &Headers{
		pairs: make([]Pair, 0, n),
	}
}

// Add appends a new pair. Repeated keys never override each other.
func (h *Headers) Add(key, value string) *Headers {
	h.pairs = append(h.pairs, Pair{
		Key:   key,
		Value: value,
	})
	return h
}

// Fold appends a continuation of the most recently added value, separated by a single
// space. Returns false if there is nothing to continue.
func (h *Headers) Fold(continuation string) bool {
	if len(h.pairs) == 0 {
		return false
	}

	last := &h.pairs[len(h.pairs)-1]
	if len(continuation) > 0 {
		last.Value += " " + continuation
	}

	return true
}

// Value returns the first value, corresponding to the key. Otherwise, empty string is returned
func (h *Headers) Value(key string) string {
	return h.ValueOr(key, "")
}

// ValueOr returns either the first value corresponding to the key or custom value, defined
// via the second parameter.
func (h *Headers) ValueOr(key, or string) string {
	value, found := h.Get(key)
	if !found {
		return or
	}

	return value
}

// Get returns a value and a bool, indicating whether the value was found. If it wasn't, it'll
// be an empty string.
func (h *Headers) Get(key string) (value string, found bool) {
	for _, pair := range h.pairs {
		if strcomp.EqualFold(key, pair.Key) {
			return pair.Value, true
		}
	}

	return "", false
}

// Last returns the most recently added value of the key.
func (h *Headers) Last(key string) (value string, found bool) {
	for i := len(h.pairs) - 1; i >= 0; i-- {
		if strcomp.EqualFold(key, h.pairs[i].Key) {
			return h.pairs[i].Value, true
		}
	}

	return "", false
}

// Values returns all values by the key in the order they were added. Returns nil if key
// doesn't exist.
//
// WARNING: calling it twice will override values, returned by the first call. Consider
// copying the returned slice for safe use.
func (h *Headers) Values(key string) []string {
	h.valuesBuff = h.valuesBuff[:0]

	for _, pair := range h.pairs {
		if strcomp.EqualFold(pair.Key, key) {
			h.valuesBuff = append(h.valuesBuff, pair.Value)
		}
	}

	if len(h.valuesBuff) == 0 {
		return nil
	}

	return h.valuesBuff
}

// Keys returns all unique presented keys, in the case they were first seen in.
//
// WARNING: calling it twice will override values, returned by the first call. Consider
// copying the returned slice for safe use.
func (h *Headers) Keys() []string {
	h.uniqueBuff = h.uniqueBuff[:0]

	for _, pair := range h.pairs {
		if contains(h.uniqueBuff, pair.Key) {
			continue
		}

		h.uniqueBuff = append(h.uniqueBuff, pair.Key)
	}

	return h.uniqueBuff
}

// Has indicates, whether there's an entry of the key.
func (h *Headers) Has(key string) bool {
	_, found := h.Get(key)
	return found
}

// Len returns a number of stored pairs.
func (h *Headers) Len() int {
	return len(h.pairs)
}

func (h *Headers) Empty() bool {
	return h.Len() == 0
}

// Clear drops all the pairs, keeping the allocated storage.
func (h *Headers) Clear() {
	h.pairs = h.pairs[:0]
}

func contains(collection []string, key string) bool {
	for _, element := range collection {
		if strcomp.EqualFold(element, key) {
			return true
		}
	}

	return false
}
