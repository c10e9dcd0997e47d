package rowbind

import "database/sql"

// Positional holds an ordered list of bound query arguments produced by
// ToParams. Hand it to database/sql by splatting Args:
//
//	db.Exec("INSERT INTO t VALUES (?, ?)", params.Args()...)
type Positional []Value

// Args returns the parameters as an argument slice for the Exec and Query
// families of database/sql. The underlying Values are shared, not copied.
func (p Positional) Args() []any {
	out := make([]any, len(p))
	for i := range p {
		out[i] = p[i]
	}
	return out
}

// NamedParam is a single named bound query argument. Name carries no
// placeholder prefix; the statement decides whether it is referenced as
// :name, @name or $name.
type NamedParam struct {
	Name  string
	Value Value
}

// Named holds an ordered list of named bound query arguments produced by
// ToParamsNamed. Struct fields appear in declaration order and map keys in
// sorted order, so the list is deterministic for a given input.
type Named []NamedParam

// Args returns the parameters as sql.Named arguments for the Exec and Query
// families of database/sql.
func (n Named) Args() []any {
	out := make([]any, len(n))
	for i, p := range n {
		out[i] = sql.Named(p.Name, p.Value)
	}
	return out
}

// Get returns the value bound under name and whether the name is present.
func (n Named) Get(name string) (Value, bool) {
	for _, p := range n {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Value{}, false
}
