package headers

import (
	"iter"
	"strings"
)

// Field is a single header line.
type Field struct {
	Name  string
	Value string
}

// Headers is an ordered header set with unique, case-insensitive keys.
// Names keep the spelling they were first set with.
type Headers struct {
	fields []Field
	index  map[string]int // lowercased name -> position in fields
}

func NewHeaders() *Headers {
	return &Headers{
		index: make(map[string]int),
	}
}

// Get returns the value for a header
func (h *Headers) Get(key string) (string, bool) {
	i, ok := h.index[strings.ToLower(key)]
	if !ok {
		return "", false
	}
	return h.fields[i].Value, true
}

// Has reports whether the header is present
func (h *Headers) Has(key string) bool {
	_, ok := h.index[strings.ToLower(key)]
	return ok
}

// Set replaces the value of an existing header in place, or appends a new one.
func (h *Headers) Set(key, value string) {
	lower := strings.ToLower(key)
	if i, ok := h.index[lower]; ok {
		h.fields[i].Value = value
		return
	}
	h.index[lower] = len(h.fields)
	h.fields = append(h.fields, Field{Name: key, Value: value})
}

// Del removes a header
func (h *Headers) Del(key string) {
	lower := strings.ToLower(key)
	i, ok := h.index[lower]
	if !ok {
		return
	}
	h.fields = append(h.fields[:i], h.fields[i+1:]...)
	delete(h.index, lower)
	for j := i; j < len(h.fields); j++ {
		h.index[strings.ToLower(h.fields[j].Name)] = j
	}
}

// Merge sets every header of other onto h, in other's order.
func (h *Headers) Merge(other *Headers) {
	if other == nil {
		return
	}
	for name, value := range other.All() {
		h.Set(name, value)
	}
}

// Len returns the number of headers
func (h *Headers) Len() int {
	return len(h.fields)
}

// All iterates headers in insertion order.
func (h *Headers) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, f := range h.fields {
			if !yield(f.Name, f.Value) {
				return
			}
		}
	}
}

// Fields returns a copy of the headers in insertion order.
func (h *Headers) Fields() []Field {
	out := make([]Field, len(h.fields))
	copy(out, h.fields)
	return out
}
