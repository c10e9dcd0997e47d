package rowbind

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"time"
)

// Kind identifies one of the five storage classes SQLite supports. Every
// value that goes into or comes out of the database is exactly one of these.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindReal
	KindText
	KindBlob
)

// String returns the lower-case name of the storage class, matching what
// SQLite's typeof() function reports.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a single database value in one of the five storage classes. The
// zero value of Value is NULL.
//
// Value implements driver.Valuer, so it can be passed directly as an argument
// to the Exec and Query methods of database/sql types, and sql.Scanner, so
// raw column values can be scanned into it.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
}

// Null returns the NULL Value.
func Null() Value {
	return Value{}
}

// Integer returns a Value holding v in the INTEGER storage class.
func Integer(v int64) Value {
	return Value{kind: KindInteger, i: v}
}

// Real returns a Value holding v in the REAL storage class.
func Real(v float64) Value {
	return Value{kind: KindReal, f: v}
}

// Text returns a Value holding v in the TEXT storage class.
func Text(v string) Value {
	return Value{kind: KindText, s: v}
}

// Blob returns a Value holding v in the BLOB storage class. The slice is not
// copied; the caller must not modify it while the Value is in use.
func Blob(v []byte) Value {
	if v == nil {
		v = []byte{}
	}
	return Value{kind: KindBlob, b: v}
}

// Kind returns the storage class of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Int64 returns the held integer. It is only meaningful when Kind is
// KindInteger.
func (v Value) Int64() int64 {
	return v.i
}

// Float64 returns the held real number. It is only meaningful when Kind is
// KindReal.
func (v Value) Float64() float64 {
	return v.f
}

// Text returns the held text. It is only meaningful when Kind is KindText.
func (v Value) Text() string {
	return v.s
}

// Blob returns the held byte sequence. It is only meaningful when Kind is
// KindBlob.
func (v Value) Blob() []byte {
	return v.b
}

// Equal reports whether v and o have the same storage class and the same
// contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInteger:
		return v.i == o.i
	case KindReal:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindBlob:
		return bytes.Equal(v.b, o.b)
	}
	return false
}

// String returns a debug representation such as "integer(42)". It is not a
// database representation; use Value (the driver.Valuer method) for binding.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInteger:
		return fmt.Sprintf("integer(%d)", v.i)
	case KindReal:
		return fmt.Sprintf("real(%v)", v.f)
	case KindText:
		return fmt.Sprintf("text(%q)", v.s)
	case KindBlob:
		return fmt.Sprintf("blob(%d bytes)", len(v.b))
	}
	return "invalid"
}

// Value implements driver.Valuer by unwrapping to the native Go type of the
// held storage class.
func (v Value) Value() (driver.Value, error) {
	switch v.kind {
	case KindInteger:
		return v.i, nil
	case KindReal:
		return v.f, nil
	case KindText:
		return v.s, nil
	case KindBlob:
		return v.b, nil
	}
	return nil, nil
}

// Scan implements sql.Scanner. It classifies a raw value produced by a
// database driver into one of the five storage classes. Byte slices are
// copied, as drivers are free to reuse their buffers between rows.
func (v *Value) Scan(src any) error {
	switch sv := src.(type) {
	case nil:
		*v = Null()
	case Value:
		*v = sv
	case int64:
		*v = Integer(sv)
	case int:
		*v = Integer(int64(sv))
	case int32:
		*v = Integer(int64(sv))
	case int16:
		*v = Integer(int64(sv))
	case int8:
		*v = Integer(int64(sv))
	case bool:
		if sv {
			*v = Integer(1)
		} else {
			*v = Integer(0)
		}
	case float64:
		*v = Real(sv)
	case float32:
		*v = Real(float64(sv))
	case string:
		*v = Text(sv)
	case []byte:
		*v = Blob(append([]byte(nil), sv...))
	case time.Time:
		*v = Text(sv.Format(time.RFC3339Nano))
	default:
		return fmt.Errorf("%w: driver value of type %T has no storage class", ErrTypeMismatch, src)
	}
	return nil
}
