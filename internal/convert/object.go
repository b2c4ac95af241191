package convert

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

// Object is a JSON object that marshals its keys in insertion order.
// Every mapping in a conversion result is an *Object so output is byte-stable.
type Object struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{m: orderedmap.NewOrderedMap[string, any]()}
}

// Set adds or replaces a key and returns the object for chaining.
func (o *Object) Set(key string, value any) *Object {
	o.m.Set(key, value)
	return o
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	return o.m.Get(key)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.m.Len())
	for el := o.m.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return o.m.Len()
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for el := o.m.Front(); el != nil; el = el.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(el.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", el.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
