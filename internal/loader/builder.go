package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/depextract/internal/types"
)

const (
	tagArray  = "$array"
	tagRef    = "$ref"
	tagOpaque = "$opaque"
)

// placeholder holds the slot of an unresolved $ref until resolve runs.
type placeholder struct {
	target string
	line   int
}

type pendingRef struct {
	ph     *placeholder
	assign func(any)
}

type builder struct {
	seen     map[*yaml.Node]any
	inferred map[*types.Array]bool // arrays built from plain sequences
	refs     []pendingRef

	// building holds sequences whose children are still being built.
	// A node set to true was reached again through an alias.
	building map[*yaml.Node]bool
}

func newBuilder() *builder {
	return &builder{
		seen:     make(map[*yaml.Node]any),
		inferred: make(map[*types.Array]bool),
		building: make(map[*yaml.Node]bool),
	}
}

func (b *builder) build(n *yaml.Node) (any, error) {
	if v, ok := b.seen[n]; ok {
		if _, inProgress := b.building[n]; inProgress {
			b.building[n] = true
		}
		return v, nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		root, err := b.build(n.Content[0])
		if err != nil {
			return nil, err
		}
		if _, ok := root.(*placeholder); ok {
			return nil, fmt.Errorf("%w: document root cannot be a %s", ErrInvalidDocument, tagRef)
		}
		return root, nil
	case yaml.AliasNode:
		return b.build(n.Alias)
	case yaml.MappingNode:
		return b.mapping(n)
	case yaml.SequenceNode:
		return b.sequence(n)
	case yaml.ScalarNode:
		return scalar(n)
	default:
		return nil, fmt.Errorf("%w: unexpected node kind %d at line %d", ErrInvalidDocument, n.Kind, n.Line)
	}
}

func (b *builder) mapping(n *yaml.Node) (any, error) {
	if len(n.Content) == 2 {
		key, val := n.Content[0], n.Content[1]
		switch key.Value {
		case tagRef:
			if val.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: %s at line %d must be a dotted path", ErrInvalidDocument, tagRef, val.Line)
			}
			return &placeholder{target: val.Value, line: val.Line}, nil
		case tagOpaque:
			return Opaque{Name: val.Value}, nil
		case tagArray:
			arr, err := b.explicitArray(n, val)
			if err != nil {
				return nil, err
			}
			b.seen[n] = arr
			return arr, nil
		}
	}

	rec := types.NewRecord()
	b.seen[n] = rec
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: non-scalar key at line %d", ErrInvalidDocument, key.Line)
		}
		child, err := b.build(val)
		if err != nil {
			return nil, err
		}
		name := key.Value
		if ph, ok := child.(*placeholder); ok {
			b.refs = append(b.refs, pendingRef{ph: ph, assign: func(v any) { rec.Set(name, v) }})
		}
		rec.Set(name, child)
	}
	return rec, nil
}

// sequence registers an object array for n before building its children, so
// an alias back to n yields that same array. When nothing re-entered n and
// the items are numeric, the stacked float64 array replaces it.
func (b *builder) sequence(n *yaml.Node) (any, error) {
	items := make([]any, len(n.Content))
	obj := types.NewObjectArray([]int{len(items)}, items)
	b.seen[n] = obj
	b.building[n] = false
	defer delete(b.building, n)

	for i, c := range n.Content {
		v, err := b.build(c)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}

	var arr *types.Array
	ok := false
	if !b.building[n] {
		arr, ok = b.stack(items)
	}
	if !ok {
		arr = obj
		for i, v := range items {
			if ph, isRef := v.(*placeholder); isRef {
				idx := i
				b.refs = append(b.refs, pendingRef{ph: ph, assign: func(v any) { arr.Elems[idx] = v }})
			}
		}
	}
	b.inferred[arr] = true
	b.seen[n] = arr
	return arr, nil
}

// stack turns a list of numbers, or of equally shaped numeric arrays built from
// sequences, into one float64 array.
func (b *builder) stack(items []any) (*types.Array, bool) {
	if len(items) == 0 {
		return types.NewArray([]int{0}, "float64", []float64{}), true
	}

	if inner, ok := items[0].(*types.Array); ok {
		if !b.inferred[inner] || inner.IsObject() {
			return nil, false
		}
		data := make([]float64, 0, len(items)*inner.Size())
		for _, it := range items {
			a, ok := it.(*types.Array)
			if !ok || !b.inferred[a] || a.IsObject() || !sameShape(a.Shape, inner.Shape) {
				return nil, false
			}
			data = append(data, a.Data...)
		}
		shape := append([]int{len(items)}, inner.Shape...)
		return types.NewArray(shape, "float64", data), true
	}

	data := make([]float64, len(items))
	for i, it := range items {
		f, ok := number(it)
		if !ok {
			return nil, false
		}
		data[i] = f
	}
	return types.NewArray([]int{len(items)}, "float64", data), true
}

func number(v any) (float64, bool) {
	switch v.(type) {
	case bool:
		return 0, false
	default:
		return types.ToFloat64(v)
	}
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// explicitArray decodes {shape, dtype, data}. The data length is not checked
// against the shape here; a mismatch is reported when the array is converted.
// owner is the {$array: ...} mapping; object arrays are registered under it
// before their elements are built.
func (b *builder) explicitArray(owner, n *yaml.Node) (any, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s at line %d must be a mapping", ErrInvalidDocument, tagArray, n.Line)
	}

	var shapeNode, dataNode *yaml.Node
	dtype := "float64"
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "shape":
			shapeNode = val
		case "dtype":
			dtype = val.Value
		case "data":
			dataNode = val
		default:
			return nil, fmt.Errorf("%w: unknown %s key %q at line %d", ErrInvalidDocument, tagArray, key.Value, key.Line)
		}
	}

	var shape []int
	if shapeNode != nil {
		if err := shapeNode.Decode(&shape); err != nil {
			return nil, fmt.Errorf("%w: bad shape at line %d: %v", ErrInvalidDocument, shapeNode.Line, err)
		}
	}
	if shape == nil {
		shape = []int{}
	}

	var data []*yaml.Node
	if dataNode != nil {
		if dataNode.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: %s data at line %d must be a sequence", ErrInvalidDocument, tagArray, dataNode.Line)
		}
		data = dataNode.Content
	}

	if dtype == types.DTypeObject {
		elems := make([]any, len(data))
		arr := types.NewObjectArray(shape, elems)
		b.seen[owner] = arr
		for i, c := range data {
			v, err := b.build(c)
			if err != nil {
				return nil, err
			}
			if ph, ok := v.(*placeholder); ok {
				idx := i
				b.refs = append(b.refs, pendingRef{ph: ph, assign: func(v any) { arr.Elems[idx] = v }})
			}
			elems[i] = v
		}
		return arr, nil
	}

	values := make([]float64, len(data))
	for i, c := range data {
		f, err := numericScalar(c)
		if err != nil {
			return nil, err
		}
		values[i] = f
	}
	return types.NewArray(shape, dtype, values), nil
}

// numericScalar reads one element of an explicit numeric array. Booleans
// become 0 and 1; "NaN", "Infinity" and "-Infinity" are accepted as strings.
func numericScalar(n *yaml.Node) (float64, error) {
	v, err := scalar(n)
	if err != nil {
		return 0, err
	}
	if s, ok := v.(string); ok {
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "Infinity", "inf":
			return math.Inf(1), nil
		case "-Infinity", "-inf":
			return math.Inf(-1), nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, nil
		}
		return 0, fmt.Errorf("%w: non-numeric array element %q at line %d", ErrInvalidDocument, s, n.Line)
	}
	f, ok := types.ToFloat64(v)
	if !ok {
		return 0, fmt.Errorf("%w: non-numeric array element at line %d", ErrInvalidDocument, n.Line)
	}
	return f, nil
}

func scalar(n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%w: expected scalar at line %d", ErrInvalidDocument, n.Line)
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidDocument, n.Line, err)
	}
	if i, ok := v.(int); ok {
		return int64(i), nil
	}
	return v, nil
}

// resolve replaces every placeholder with the node its path names.
// References to other references are resolved in later rounds.
func (b *builder) resolve(root any) error {
	pending := b.refs
	for len(pending) > 0 {
		var next []pendingRef
		for _, p := range pending {
			target, err := lookup(root, p.ph.target)
			if err != nil {
				return fmt.Errorf("%w: unresolved %s %q at line %d: %v", ErrInvalidDocument, tagRef, p.ph.target, p.ph.line, err)
			}
			if _, unresolved := target.(*placeholder); unresolved {
				next = append(next, p)
				continue
			}
			p.assign(target)
		}
		if len(next) == len(pending) {
			return fmt.Errorf("%w: %s %q at line %d only refers to other references", ErrInvalidDocument, tagRef, next[0].ph.target, next[0].ph.line)
		}
		pending = next
	}
	b.refs = nil
	return nil
}

// lookup walks a dotted path from root. Numeric segments index object arrays.
// An empty path or "$" names the root.
func lookup(root any, path string) (any, error) {
	if path == "" || path == "$" {
		return root, nil
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case *placeholder:
			return node, nil
		case *types.Record:
			v, ok := node.Get(seg)
			if !ok {
				return nil, fmt.Errorf("no field %q", seg)
			}
			cur = v
		case *types.Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || !node.IsObject() || idx < 0 || idx >= len(node.Elems) {
				return nil, fmt.Errorf("cannot index array with %q", seg)
			}
			cur = node.Elems[idx]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q", cur, seg)
		}
	}
	return cur, nil
}
