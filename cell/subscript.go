package cell

import "reflect"

// Sub is the statically-typed replacement for the dynamic subscript proxy of
// §4.5 (see §9's design note: "re-express as an explicit sub(keyCell)
// operation... do not emulate the dynamic proxy"). It lazily builds a
// transform cell computing parent.Value()[key]; key may be a plain value or
// itself a *Cell, in which case the result is a two-input transform keyed by
// the other cell's current value — the static equivalent of the source
// library's "cell-as-key" protocol.
func Sub(parent *Cell, key any) *TransformCell {
	if keyCell, ok := key.(*Cell); ok {
		return NewTransformCell([]Input{parent, keyCell}, func(args []any) any {
			return indexInto(args[0], args[1])
		}, TransformOptions{OutputDepth: 1}, Options{MayBeNull: true})
	}
	return NewTransformCell([]Input{parent}, func(args []any) any {
		return indexInto(args[0], key)
	}, TransformOptions{OutputDepth: 1}, Options{MayBeNull: true})
}

// SubChain applies Sub repeatedly for nested access (parent[keys[0]][keys[1]]...),
// the small generator utility for nested access named in §9.
func SubChain(parent *Cell, keys ...any) *Cell {
	current := parent
	var last *TransformCell
	for _, k := range keys {
		last = Sub(current, k)
		current = last.Cell
	}
	if last == nil {
		return parent
	}
	return last.Cell
}

// indexInto reads v[key] for v shaped as a map, slice/array, or struct,
// returning Undefined if the key doesn't resolve.
func indexInto(v any, key any) any {
	if v == nil {
		return Undefined
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		kv := reflect.ValueOf(key)
		if !kv.IsValid() || !kv.Type().ConvertibleTo(rv.Type().Key()) {
			return Undefined
		}
		mv := rv.MapIndex(kv.Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return Undefined
		}
		return mv.Interface()
	case reflect.Slice, reflect.Array:
		idx, ok := asInt(key)
		if !ok || idx < 0 || idx >= rv.Len() {
			return Undefined
		}
		return rv.Index(idx).Interface()
	case reflect.Struct:
		name, ok := key.(string)
		if !ok {
			return Undefined
		}
		fv := rv.FieldByName(name)
		if !fv.IsValid() {
			return Undefined
		}
		return fv.Interface()
	case reflect.Ptr:
		if rv.IsNil() {
			return Undefined
		}
		return indexInto(rv.Elem().Interface(), key)
	default:
		return Undefined
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
