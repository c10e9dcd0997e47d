package rowbind

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
)

var (
	// ErrUnsupportedShape is returned when a value's shape has no
	// representation in the requested parameter form, such as asking for
	// positional parameters from a struct or named parameters from a slice.
	ErrUnsupportedShape = errors.New("value shape is not supported for the requested form")

	// ErrIntegralOverflow is returned when an integer cannot be stored in or
	// retrieved from a 64-bit signed INTEGER column without changing its
	// value.
	ErrIntegralOverflow = errors.New("integer value does not fit the target range")

	// ErrTypeMismatch is returned when a column's storage class cannot be
	// decoded into the target type.
	ErrTypeMismatch = errors.New("column storage class is incompatible with the target type")

	// ErrExpectedNull is returned when decoding into struct{} and the column
	// holds anything other than NULL.
	ErrExpectedNull = errors.New("expected a NULL column value")

	// ErrUnitStructNameMismatch is returned when decoding into a zero-field
	// marker struct and the stored text is not the struct type's name.
	ErrUnitStructNameMismatch = errors.New("stored text does not match the marker struct's name")

	// ErrUnknownVariant is returned when stored text cannot be unmarshaled by
	// the target's TextUnmarshaler, such as an enumeration value that does not
	// name any known variant.
	ErrUnknownVariant = errors.New("stored text does not match any known variant")

	// ErrOnlyByteSequences is returned when a slice or array whose element
	// type is not a byte appears where a single column value is required.
	// Only byte sequences have a single-column form, the BLOB storage class.
	ErrOnlyByteSequences = errors.New("only byte sequences can be stored in a single column")

	// ErrMissingColumnNames is returned when decoding requires column names
	// (or at minimum a column count) and the row source cannot supply them.
	ErrMissingColumnNames = errors.New("column names are not available")

	// ErrColumnCountMismatch is returned when a fixed-arity target (struct or
	// array) does not have exactly one field or element per row column.
	ErrColumnCountMismatch = errors.New("column count does not match the target's arity")

	// ErrIndexOutOfRange is returned when a decode is driven to request a
	// column ordinal beyond the end of the row.
	ErrIndexOutOfRange = errors.New("column ordinal is out of range")

	// ErrDatabase is returned when the underlying database layer reports an
	// error. The engine's error is preserved in the chain and can be examined
	// with errors.As.
	ErrDatabase = errors.New("the database layer returned an error")
)

// WrapDBError wraps an error from the database layer so that it matches
// ErrDatabase under errors.Is while keeping the original error available for
// inspection. Errors from the SQLite engine are annotated with the engine's
// error-code string, which is far more descriptive than the default message
// for most codes. A nil error stays nil.
func WrapDBError(err error) error {
	if err == nil {
		return nil
	}
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if str, ok := sqlite.ErrorCodeString[sqliteErr.Code()]; ok {
			return fmt.Errorf("%w: %s: %w", ErrDatabase, str, err)
		}
		return fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return fmt.Errorf("%w: %w", ErrDatabase, err)
}

// fieldError tags a conversion error with the name of the struct field or map
// key it occurred on.
func fieldError(name string, err error) error {
	return fmt.Errorf("field %q: %w", name, err)
}

// elemError tags a conversion error with the index of the sequence element it
// occurred on.
func elemError(idx int, err error) error {
	return fmt.Errorf("element %d: %w", idx, err)
}

// columnError tags a decode error with the column it occurred on, by name
// when names were resolved and by ordinal otherwise.
func columnError(cols []Column, idx int, err error) error {
	if idx < len(cols) && cols[idx].Name != "" {
		return fmt.Errorf("column %q: %w", cols[idx].Name, err)
	}
	return fmt.Errorf("column %d: %w", idx, err)
}
