package rowbind

import "fmt"

// gender is the kind of closed enumeration the TEXT conversion is meant
// for: one variant name per value, rejected on unknown input.
type gender int

const (
	genderM gender = iota
	genderF
)

func (g gender) MarshalText() ([]byte, error) {
	switch g {
	case genderM:
		return []byte("M"), nil
	case genderF:
		return []byte("F"), nil
	}
	return nil, fmt.Errorf("not a valid gender: %d", int(g))
}

func (g *gender) UnmarshalText(b []byte) error {
	switch string(b) {
	case "M":
		*g = genderM
	case "F":
		*g = genderF
	default:
		return fmt.Errorf("not a valid gender: %q", b)
	}
	return nil
}

// marker is a zero-field named type; it stores as TEXT "marker".
type marker struct{}

// fakeRow is an in-memory row source with column names, standing in for
// *sql.Rows in tests that don't need a real database.
type fakeRow struct {
	names []string
	vals  []any
}

func (r fakeRow) Columns() ([]string, error) {
	return r.names, nil
}

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r.vals) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(r.vals), len(dest))
	}
	for i, d := range dest {
		if err := d.(*Value).Scan(r.vals[i]); err != nil {
			return err
		}
	}
	return nil
}

// bareRow is a row source that cannot supply column names.
type bareRow struct {
	vals []any
}

func (r bareRow) Scan(dest ...any) error {
	return fakeRow{vals: r.vals}.Scan(dest...)
}
