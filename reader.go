package rowbind

import "database/sql"

// RowReader decodes each row of a *sql.Rows cursor into values of type T.
// It is a thin forward-only adapter; rows are fetched lazily and a decode
// failure on one row does not consume or terminate the rest, so the caller
// can skip bad rows and keep going.
//
//	rd := rowbind.FromRows[Example](rows)
//	defer rd.Close()
//	for rd.Next() {
//		ex, err := rd.Row()
//		...
//	}
//	if err := rd.Err(); err != nil {
//		...
//	}
//
// Like the *sql.Rows it wraps, a RowReader is not safe for concurrent use.
type RowReader[T any] struct {
	rows    *sql.Rows
	cols    []Column
	colsErr error
	owned   bool
	err     error
}

// FromRows returns a RowReader that takes ownership of rows: the cursor is
// closed when iteration reaches its natural end and when Close is called.
// Column names are resolved once, up front, and reused for every row.
func FromRows[T any](rows *sql.Rows) *RowReader[T] {
	return newRowReader[T](rows, true)
}

// FromRowsRef returns a RowReader that borrows rows without ever closing
// them. When the reader is abandoned, the cursor is left positioned wherever
// the reader last advanced it, so the caller can decode some rows through
// the reader and then resume manual iteration on the original rows.
func FromRowsRef[T any](rows *sql.Rows) *RowReader[T] {
	return newRowReader[T](rows, false)
}

func newRowReader[T any](rows *sql.Rows, owned bool) *RowReader[T] {
	r := &RowReader[T]{rows: rows, owned: owned}
	r.cols, r.colsErr = ColumnsFromRows(rows)
	return r
}

// Next advances to the next row. It returns false at the end of the result
// set or on a cursor error; distinguish the two with Err.
func (r *RowReader[T]) Next() bool {
	if r.rows.Next() {
		return true
	}
	r.err = WrapDBError(r.rows.Err())
	if r.owned {
		if err := r.rows.Close(); err != nil && r.err == nil {
			r.err = WrapDBError(err)
		}
	}
	return false
}

// Row decodes the current row. Call it after Next has returned true. An
// error concerns this row alone; Next may still be called to move past it.
func (r *RowReader[T]) Row() (T, error) {
	var out T
	if r.colsErr != nil {
		return out, r.colsErr
	}
	err := FromRowWithColumns(r.rows, r.cols, &out)
	return out, err
}

// Err returns the cursor error that stopped iteration, if any. Per-row
// decode errors are reported by Row, not here.
func (r *RowReader[T]) Err() error {
	return r.err
}

// Close releases the underlying cursor when the reader owns it. For a
// borrowed reader it does nothing; closing stays with whoever owns the rows.
func (r *RowReader[T]) Close() error {
	if !r.owned {
		return nil
	}
	return WrapDBError(r.rows.Close())
}

// CollectRows decodes every remaining row of rows into a slice, then closes
// the cursor. The first error of any kind abandons the rest.
func CollectRows[T any](rows *sql.Rows) ([]T, error) {
	rd := FromRows[T](rows)
	defer rd.Close()

	var out []T
	for rd.Next() {
		v, err := rd.Row()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
