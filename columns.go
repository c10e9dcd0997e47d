package rowbind

// Column describes one result-set column: its name and its zero-based
// position in the row. A []Column resolved from a statement's rows is
// immutable and may be reused, including concurrently, for every row that
// statement produces. Reusing it against a different statement's rows is a
// caller error and is not detected here.
type Column struct {
	Name    string
	Ordinal int
}

// ColumnNamer is the column-name surface of a row source. *sql.Rows
// satisfies it.
type ColumnNamer interface {
	Columns() ([]string, error)
}

// ColumnsFromRows resolves the ordered column list of a row source once, so
// that the result can be cached and handed to FromRowWithColumns for each
// row. Resolving columns on every row works but is strictly slower; see
// FromRow.
func ColumnsFromRows(src ColumnNamer) ([]Column, error) {
	names, err := src.Columns()
	if err != nil {
		return nil, WrapDBError(err)
	}
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Ordinal: i}
	}
	return cols, nil
}
