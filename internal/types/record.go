// Package types contains the value model shared by the loader, the converter and the extractor.
//
// A document is a tree of three kinds of values: scalars (Go natives), N-dimensional
// arrays (*Array) and structured records (*Record). Records and arrays are handled by
// pointer, so the same node reached through two paths is the same Go value.
package types

import (
	"github.com/elliotchance/orderedmap/v2"
)

// Record is a named-field aggregate that keeps its fields in insertion order.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.NewOrderedMap[string, any]()}
}

// Set adds or replaces a field. Replacing keeps the original position.
// Returns the record so construction can be chained.
func (r *Record) Set(name string, value any) *Record {
	r.fields.Set(name, value)
	return r
}

// Get returns the named field.
func (r *Record) Get(name string) (any, bool) {
	return r.fields.Get(name)
}

// Has reports whether the record has the named field.
func (r *Record) Has(name string) bool {
	_, ok := r.fields.Get(name)
	return ok
}

// Names returns the field names in order.
func (r *Record) Names() []string {
	names := make([]string, 0, r.fields.Len())
	for el := r.fields.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	return names
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return r.fields.Len()
}
