// Package rowbind converts between Go values and the row and parameter
// model of SQLite as exposed through database/sql. It "serializes" Go
// values into bound query arguments, positional or named, and
// "deserializes" fetched rows back into Go values.
//
// Named arguments can only be produced from structs and maps, because other
// shapes carry no column-name information. Likewise, positional arguments
// can only be produced from slices, arrays and single-column values; in the
// last case the result is a one-element list.
//
// SQLite stores exactly five classes of value: NULL, INTEGER (int64), REAL
// (float64), TEXT (string) and BLOB ([]byte). Every Go value bound or
// decoded by this package reduces to exactly one of them per column; the
// Value type is that closed set. Rules beyond the obvious ones:
//
//   - A uint64 too large for int64 fails with ErrIntegralOverflow rather
//     than wrapping, since SQLite has no unsigned 64-bit column.
//   - Types implementing encoding.TextMarshaler and TextUnmarshaler are
//     stored as TEXT, which is how enumeration types like
//
//     type Gender int
//
//     with variant names for text forms get one TEXT value per variant.
//     Decoding text that matches no variant fails with ErrUnknownVariant.
//   - bool is stored as INTEGER 0 or 1 and decodes from INTEGER or REAL,
//     where 0 and 0.0 are false and anything else is true.
//   - A NaN float is stored as NULL. Decoding that NULL into a *float64
//     yields nil, and into a plain float64 yields NaN again. The database
//     cannot represent NaN in REAL, so this loss is deliberate.
//   - Pointers behave as options: nil binds as NULL, and NULL decodes to a
//     nil pointer where any other value allocates and decodes the element.
//   - struct{} binds as NULL and insists on NULL when decoding.
//   - A zero-field named struct type binds as TEXT of its own type name and
//     verifies that name when decoding, making it usable as a stored marker.
//   - Slices and arrays of any element type other than a byte have no
//     single-column form and fail with ErrOnlyByteSequences where one is
//     required.
//   - time.Time is stored as RFC 3339 TEXT and additionally decodes from
//     INTEGER Unix seconds.
//   - driver.Valuer and sql.Scanner implementations (uuid.UUID, the
//     sql.Null types, and so on) take precedence over all of the above, so
//     existing database-aware types keep their own representation.
//
// Serialization goes through ToParams, ToParamsNamed and
// ToParamsNamedWithFields, which produce Positional and Named argument
// lists whose Args method feeds directly into the Exec and Query families
// of database/sql.
//
// Deserialization goes through FromRow for one-off decodes, or, when
// decoding many rows from one statement, either FromRowWithColumns with a
// column list resolved once by ColumnsFromRows, or the FromRows /
// FromRowsRef readers which do exactly that internally. FromRowsRef leaves
// the cursor open and resumable for callers that only want to decode a
// prefix of the result set.
package rowbind
