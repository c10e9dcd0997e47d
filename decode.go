package rowbind

import (
	"database/sql"
	"encoding"
	"fmt"
	"math"
	"reflect"
	"time"
)

var (
	scannerType         = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// RowScanner is the row surface the decoder needs. *sql.Rows and *sql.Row
// both satisfy it.
type RowScanner interface {
	Scan(dest ...any) error
}

// FromRow decodes the current row of src into dst, which must be a non-nil
// pointer. Struct and array targets are filled positionally, one field or
// element per column in row order; slice targets are sized to the column
// count; map targets pair each column's name with its value; any
// single-column target decodes a one-column row.
//
// When src also provides column names (as *sql.Rows does) they are resolved
// on every call, which costs an allocation and a round through the driver
// each time. In a loop, resolve them once with ColumnsFromRows and use
// FromRowWithColumns, or use FromRows.
func FromRow(src RowScanner, dst any) error {
	var cols []Column
	if namer, ok := src.(ColumnNamer); ok {
		c, err := ColumnsFromRows(namer)
		if err != nil {
			return err
		}
		cols = c
	}
	return FromRowWithColumns(src, cols, dst)
}

// FromRowWithColumns decodes the current row of src into dst using
// pre-resolved columns, avoiding the per-row resolution cost of FromRow.
// cols must come from the same statement that produced src; it may be nil
// when src cannot supply names, in which case the column count is inferred
// from dst's own arity and map targets fail with ErrMissingColumnNames.
func FromRowWithColumns(src RowScanner, cols []Column, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", ErrUnsupportedShape, dst)
	}
	target := rv.Elem()
	n, err := rowWidth(target.Type(), cols)
	if err != nil {
		return err
	}
	raw := make([]Value, n)
	ptrs := make([]any, n)
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := src.Scan(ptrs...); err != nil {
		return WrapDBError(err)
	}
	return decodeRow(raw, cols, target)
}

// rowWidth determines how many column values to fetch for the row.
func rowWidth(t reflect.Type, cols []Column) (int, error) {
	if cols != nil {
		return len(cols), nil
	}
	if hasScalarForm(t) || t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return 1, nil
	}
	switch t.Kind() {
	case reflect.Struct:
		return len(structFields(t)), nil
	case reflect.Array:
		return t.Len(), nil
	case reflect.Map, reflect.Slice:
		return 0, fmt.Errorf("%w: cannot size a row for %s", ErrMissingColumnNames, t)
	}
	return 1, nil
}

func decodeRow(raw []Value, cols []Column, target reflect.Value) error {
	t := target.Type()
	if hasScalarForm(t) || t.Kind() == reflect.Pointer || (t.Kind() == reflect.Interface && t.NumMethod() == 0) {
		if len(raw) != 1 {
			return fmt.Errorf("%w: single-value target %s needs a one-column row, got %d columns", ErrColumnCountMismatch, t, len(raw))
		}
		val, err := valueAt(raw, 0)
		if err != nil {
			return err
		}
		if err := decodeValue(val, target); err != nil {
			return columnError(cols, 0, err)
		}
		return nil
	}
	switch t.Kind() {
	case reflect.Struct:
		fl := structFields(t)
		if len(fl) != len(raw) {
			return fmt.Errorf("%w: %s has %d fields, row has %d columns", ErrColumnCountMismatch, t, len(fl), len(raw))
		}
		for i, f := range fl {
			val, err := valueAt(raw, i)
			if err != nil {
				return err
			}
			fv := fieldByIndexAlloc(target, f.index)
			if err := decodeValue(val, fv); err != nil {
				return columnError(cols, i, err)
			}
		}
		return nil
	case reflect.Array:
		if t.Len() != len(raw) {
			return fmt.Errorf("%w: %s has %d elements, row has %d columns", ErrColumnCountMismatch, t, t.Len(), len(raw))
		}
		for i := 0; i < t.Len(); i++ {
			val, err := valueAt(raw, i)
			if err != nil {
				return err
			}
			if err := decodeValue(val, target.Index(i)); err != nil {
				return columnError(cols, i, err)
			}
		}
		return nil
	case reflect.Slice:
		s := reflect.MakeSlice(t, len(raw), len(raw))
		for i := range raw {
			if err := decodeValue(raw[i], s.Index(i)); err != nil {
				return columnError(cols, i, err)
			}
		}
		target.Set(s)
		return nil
	case reflect.Map:
		if cols == nil {
			return fmt.Errorf("%w: decoding into %s needs column names for its keys", ErrMissingColumnNames, t)
		}
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("%w: map key type %s cannot hold a column name", ErrUnsupportedShape, t.Key())
		}
		m := reflect.MakeMapWithSize(t, len(raw))
		for i := range raw {
			val, err := valueAt(raw, i)
			if err != nil {
				return err
			}
			ev := reflect.New(t.Elem()).Elem()
			if err := decodeValue(val, ev); err != nil {
				return columnError(cols, i, err)
			}
			kv := reflect.New(t.Key()).Elem()
			kv.SetString(cols[i].Name)
			m.SetMapIndex(kv, ev)
		}
		target.Set(m)
		return nil
	}
	return fmt.Errorf("%w: cannot decode a row into %s", ErrUnsupportedShape, t)
}

func valueAt(raw []Value, i int) (Value, error) {
	if i < 0 || i >= len(raw) {
		return Value{}, fmt.Errorf("%w: ordinal %d of a %d-column row", ErrIndexOutOfRange, i, len(raw))
	}
	return raw[i], nil
}

// decodeValue converts one column value into one settable Go value,
// reversing the BindValue rules.
func decodeValue(val Value, out reflect.Value) error {
	t := out.Type()
	if t.Kind() == reflect.Pointer {
		// option semantics: NULL clears, anything else decodes the element
		if val.IsNull() {
			out.Set(reflect.Zero(t))
			return nil
		}
		p := reflect.New(t.Elem())
		if err := decodeValue(val, p.Elem()); err != nil {
			return err
		}
		out.Set(p)
		return nil
	}
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return decodeAny(val, out)
	}
	if t == valueType {
		out.Set(reflect.ValueOf(val))
		return nil
	}
	if t == timeType {
		return decodeTime(val, out)
	}
	if out.CanAddr() && reflect.PointerTo(t).Implements(scannerType) {
		dv, err := val.Value()
		if err != nil {
			return err
		}
		if err := out.Addr().Interface().(sql.Scanner).Scan(dv); err != nil {
			return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return nil
	}
	if out.CanAddr() && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		if val.Kind() != KindText {
			return storageClassError(t, val)
		}
		if err := out.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(val.Text())); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrUnknownVariant, val.Text(), err)
		}
		return nil
	}
	switch t.Kind() {
	case reflect.Bool:
		// 0 and 0.0 are false, any other INTEGER or REAL is true
		switch val.Kind() {
		case KindInteger:
			out.SetBool(val.Int64() != 0)
		case KindReal:
			out.SetBool(val.Float64() != 0)
		default:
			return storageClassError(t, val)
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if val.Kind() != KindInteger {
			return storageClassError(t, val)
		}
		i := val.Int64()
		if out.OverflowInt(i) {
			return fmt.Errorf("%w: %d overflows %s", ErrIntegralOverflow, i, t)
		}
		out.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if val.Kind() != KindInteger {
			return storageClassError(t, val)
		}
		i := val.Int64()
		if i < 0 || out.OverflowUint(uint64(i)) {
			return fmt.Errorf("%w: %d overflows %s", ErrIntegralOverflow, i, t)
		}
		out.SetUint(uint64(i))
		return nil
	case reflect.Float32, reflect.Float64:
		switch val.Kind() {
		case KindNull:
			// NaN was stored as NULL; a plain float target gets it back
			out.SetFloat(math.NaN())
		case KindInteger:
			out.SetFloat(float64(val.Int64()))
		case KindReal:
			out.SetFloat(val.Float64())
		default:
			return storageClassError(t, val)
		}
		return nil
	case reflect.String:
		if val.Kind() != KindText {
			return storageClassError(t, val)
		}
		out.SetString(val.Text())
		return nil
	case reflect.Slice:
		if t.Elem().Kind() != reflect.Uint8 {
			return fmt.Errorf("%w: %s", ErrOnlyByteSequences, t)
		}
		if val.Kind() != KindBlob {
			return storageClassError(t, val)
		}
		b := val.Blob()
		s := reflect.MakeSlice(t, len(b), len(b))
		for i := range b {
			s.Index(i).SetUint(uint64(b[i]))
		}
		out.Set(s)
		return nil
	case reflect.Array:
		if t.Elem().Kind() != reflect.Uint8 {
			return fmt.Errorf("%w: %s", ErrOnlyByteSequences, t)
		}
		if val.Kind() != KindBlob {
			return storageClassError(t, val)
		}
		b := val.Blob()
		if len(b) != t.Len() {
			return fmt.Errorf("%w: BLOB holds %d bytes, %s wants %d", ErrTypeMismatch, len(b), t, t.Len())
		}
		for i := range b {
			out.Index(i).SetUint(uint64(b[i]))
		}
		return nil
	case reflect.Struct:
		if t.NumField() == 0 {
			if name := t.Name(); name != "" {
				if val.Kind() != KindText {
					return storageClassError(t, val)
				}
				if val.Text() != name {
					return fmt.Errorf("%w: stored %q, marker type is %s", ErrUnitStructNameMismatch, val.Text(), name)
				}
				return nil
			}
			if !val.IsNull() {
				return fmt.Errorf("%w: column holds %s", ErrExpectedNull, val.Kind())
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s has no single-column representation", ErrUnsupportedShape, t)
}

// decodeAny sets the natural Go value for the storage class into an empty
// interface target.
func decodeAny(val Value, out reflect.Value) error {
	switch val.Kind() {
	case KindNull:
		out.Set(reflect.Zero(out.Type()))
	case KindInteger:
		out.Set(reflect.ValueOf(val.Int64()))
	case KindReal:
		out.Set(reflect.ValueOf(val.Float64()))
	case KindText:
		out.Set(reflect.ValueOf(val.Text()))
	case KindBlob:
		out.Set(reflect.ValueOf(append([]byte(nil), val.Blob()...)))
	}
	return nil
}

// decodeTime reverses the two time encodings the package understands: RFC
// 3339 TEXT, and INTEGER Unix seconds.
func decodeTime(val Value, out reflect.Value) error {
	switch val.Kind() {
	case KindText:
		ts, err := time.Parse(time.RFC3339Nano, val.Text())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		out.Set(reflect.ValueOf(ts))
		return nil
	case KindInteger:
		out.Set(reflect.ValueOf(time.Unix(val.Int64(), 0).UTC()))
		return nil
	}
	return storageClassError(out.Type(), val)
}

func storageClassError(t reflect.Type, val Value) error {
	return fmt.Errorf("%w: cannot decode %s into %s", ErrTypeMismatch, val.Kind(), t)
}
