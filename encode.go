package rowbind

import (
	"database/sql/driver"
	"encoding"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"
)

var (
	valuerType        = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	timeType          = reflect.TypeOf(time.Time{})
	valueType         = reflect.TypeOf(Value{})
)

// ToParams converts v into positional bound query arguments, one Value per
// element of v. Accepted shapes are slices and arrays (converted
// element-wise), and any single-column value, which becomes a one-element
// result. Byte slices and byte arrays are single-column values and bind as
// one BLOB, not element-wise. Structs and maps are refused; their fields are
// named, so they belong to ToParamsNamed.
func ToParams(v any) (Positional, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return Positional{Null()}, nil
	}
	for rv.Kind() == reflect.Pointer && !hasScalarForm(rv.Type()) {
		if rv.IsNil() {
			return Positional{Null()}, nil
		}
		rv = rv.Elem()
	}
	if hasScalarForm(rv.Type()) {
		val, err := bindReflect(rv)
		if err != nil {
			return nil, err
		}
		return Positional{val}, nil
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make(Positional, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			val, err := bindReflect(rv.Index(i))
			if err != nil {
				return nil, elemError(i, err)
			}
			out = append(out, val)
		}
		return out, nil
	case reflect.Struct, reflect.Map:
		return nil, fmt.Errorf("%w: %s has named fields; use ToParamsNamed", ErrUnsupportedShape, rv.Type())
	}
	return nil, fmt.Errorf("%w: cannot bind %s as positional parameters", ErrUnsupportedShape, rv.Type())
}

// ToParamsNamed converts v into named bound query arguments, one NamedParam
// per field of v. Accepted shapes are structs (exported fields, named by
// their `db` tag or their lower-cased field name, embedded structs
// flattened) and maps whose keys are strings or marshal to text. Anything
// else lacks field names and is refused.
func ToParamsNamed(v any) (Named, error) {
	return ToParamsNamedWithFields(v)
}

// ToParamsNamedWithFields is ToParamsNamed restricted to the given parameter
// names: fields of v not in the list are silently skipped, which is useful
// for building partial UPDATE argument sets. An empty list applies no
// filter.
func ToParamsNamedWithFields(v any, fields ...string) (Named, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil has no fields to name", ErrUnsupportedShape)
	}
	for rv.Kind() == reflect.Pointer && !hasScalarForm(rv.Type()) {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %s has no fields to name", ErrUnsupportedShape, rv.Type())
		}
		rv = rv.Elem()
	}
	if hasScalarForm(rv.Type()) {
		return nil, fmt.Errorf("%w: %s has a single-column form and no field names; use ToParams", ErrUnsupportedShape, rv.Type())
	}
	switch rv.Kind() {
	case reflect.Struct:
		fl := structFields(rv.Type())
		out := make(Named, 0, len(fl))
		for _, f := range fl {
			if !fieldAllowed(fields, f.name) {
				continue
			}
			val := Null()
			if fv, ok := fieldByIndex(rv, f.index); ok {
				var err error
				val, err = bindReflect(fv)
				if err != nil {
					return nil, fieldError(f.name, err)
				}
			}
			out = append(out, NamedParam{Name: f.name, Value: val})
		}
		return out, nil
	case reflect.Map:
		out := make(Named, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			name, err := parameterName(iter.Key())
			if err != nil {
				return nil, err
			}
			if !fieldAllowed(fields, name) {
				continue
			}
			val, err := bindReflect(iter.Value())
			if err != nil {
				return nil, fieldError(name, err)
			}
			out = append(out, NamedParam{Name: name, Value: val})
		}
		// map iteration order is random; keep the output deterministic
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	}
	return nil, fmt.Errorf("%w: cannot bind %s as named parameters", ErrUnsupportedShape, rv.Type())
}

// BindValue converts one Go value into its single database Value. The full
// conversion rules are documented on the package; briefly: nil and NaN
// become NULL, bools and all integer types become INTEGER (a uint64 beyond
// the signed range is an error rather than a silently wrapped value),
// floats become REAL, strings and text-marshaling types become TEXT, byte
// sequences become BLOB, zero-field named struct types become TEXT of their
// own type name, and time.Time becomes RFC 3339 TEXT. driver.Valuer is
// honored before any of the above.
func BindValue(v any) (Value, error) {
	return bindReflect(reflect.ValueOf(v))
}

func bindReflect(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null(), nil
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Null(), nil
		}
		return bindReflect(rv.Elem())
	}
	t := rv.Type()
	if t == valueType {
		return rv.Interface().(Value), nil
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null(), nil
	}
	if t == timeType {
		return Text(rv.Interface().(time.Time).Format(time.RFC3339Nano)), nil
	}
	if t.Implements(valuerType) {
		dv, err := rv.Interface().(driver.Valuer).Value()
		if err != nil {
			return Value{}, fmt.Errorf("binding %s: %w", t, err)
		}
		var out Value
		if err := out.Scan(dv); err != nil {
			return Value{}, err
		}
		return out, nil
	}
	if t.Implements(textMarshalerType) {
		b, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return Value{}, fmt.Errorf("binding %s: %w", t, err)
		}
		return Text(string(b)), nil
	}
	switch rv.Kind() {
	case reflect.Pointer:
		return bindReflect(rv.Elem())
	case reflect.Bool:
		if rv.Bool() {
			return Integer(1), nil
		}
		return Integer(0), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Integer(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d does not fit a signed 64-bit INTEGER", ErrIntegralOverflow, u)
		}
		return Integer(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) {
			// REAL cannot hold NaN; this loss is deliberate
			return Null(), nil
		}
		return Real(f), nil
	case reflect.String:
		return Text(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() != reflect.Uint8 {
			return Value{}, fmt.Errorf("%w: %s", ErrOnlyByteSequences, t)
		}
		b := make([]byte, rv.Len())
		for i := range b {
			b[i] = byte(rv.Index(i).Uint())
		}
		return Blob(b), nil
	case reflect.Struct:
		if t.NumField() == 0 {
			if name := t.Name(); name != "" {
				return Text(name), nil
			}
			return Null(), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %s has no single-column representation", ErrUnsupportedShape, t)
}

// hasScalarForm reports whether values of type t reduce to a single database
// Value, as opposed to being a whole-row container of several.
func hasScalarForm(t reflect.Type) bool {
	if t == timeType || t == valueType {
		return true
	}
	if t.Implements(valuerType) || t.Implements(textMarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() == reflect.Uint8
	case reflect.Struct:
		return t.NumField() == 0
	case reflect.Pointer:
		return hasScalarForm(t.Elem())
	}
	return false
}

type fieldSpec struct {
	name  string
	index []int
}

// structFields lists the bindable fields of a struct type in declaration
// order. Unexported fields and fields tagged `db:"-"` are skipped; embedded
// structs without their own tag are flattened into the enclosing struct.
func structFields(t reflect.Type) []fieldSpec {
	var out []fieldSpec
	collectFields(t, nil, &out)
	return out
}

func collectFields(t reflect.Type, prefix []int, out *[]fieldSpec) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("db")
		if comma := strings.IndexByte(tag, ','); comma >= 0 {
			tag = tag[:comma]
		}
		if tag == "-" {
			continue
		}
		index := append(append([]int(nil), prefix...), i)
		if f.Anonymous && tag == "" {
			ft := f.Type
			ptr := ft.Kind() == reflect.Pointer
			if ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && !hasScalarForm(f.Type) {
				// exported fields promoted through an unexported embedded
				// struct are settable, but an unexported embedded pointer
				// cannot be allocated, so those fields are unreachable
				if ptr && !f.IsExported() {
					continue
				}
				collectFields(ft, index, out)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		name := tag
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		*out = append(*out, fieldSpec{name: name, index: index})
	}
}

// fieldByIndex walks an index path through embedded structs. The second
// return is false when a nil embedded struct pointer makes the field
// unreachable.
func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, bool) {
	for n, i := range index {
		if n > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Value{}, false
			}
			rv = rv.Elem()
		}
		rv = rv.Field(i)
	}
	return rv, true
}

// fieldByIndexAlloc is fieldByIndex for decode targets: nil embedded struct
// pointers along the path are allocated so the field can be set.
func fieldByIndexAlloc(rv reflect.Value, index []int) reflect.Value {
	for n, i := range index {
		if n > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				rv.Set(reflect.New(rv.Type().Elem()))
			}
			rv = rv.Elem()
		}
		rv = rv.Field(i)
	}
	return rv
}

func fieldAllowed(allow []string, name string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, a := range allow {
		if a == name {
			return true
		}
	}
	return false
}

// parameterName derives a placeholder name from a map key.
func parameterName(key reflect.Value) (string, error) {
	if key.Kind() == reflect.Interface {
		if key.IsNil() {
			return "", fmt.Errorf("%w: nil map key cannot name a parameter", ErrUnsupportedShape)
		}
		key = key.Elem()
	}
	if key.Kind() == reflect.String {
		return key.String(), nil
	}
	if tm, ok := key.Interface().(encoding.TextMarshaler); ok {
		b, err := tm.MarshalText()
		if err != nil {
			return "", fmt.Errorf("map key of type %s: %w", key.Type(), err)
		}
		return string(b), nil
	}
	return "", fmt.Errorf("%w: map key of type %s cannot name a parameter", ErrUnsupportedShape, key.Type())
}
