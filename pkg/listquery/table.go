package listquery

import "strings"

// Kind is the storage type of a column, used to coerce filter values.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBool
	KindDate
)

// Column is a resolved, SQL qualified column.
type Column struct {
	Name string
	Expr string
	Kind Kind
}

// Table describes a filterable table and the API names of its columns.
type Table struct {
	Name    string
	Alias   string
	columns map[string]Column
}

// ColumnDef maps an API field name onto a SQL column.
type ColumnDef struct {
	Field  string
	Column string
	Kind   Kind
}

// Def is shorthand for a ColumnDef.
func Def(field, column string, kind Kind) ColumnDef {
	return ColumnDef{Field: field, Column: column, Kind: kind}
}

// NewTable builds a table descriptor. Column expressions are qualified with
// the alias.
func NewTable(name, alias string, defs ...ColumnDef) *Table {
	if alias == "" {
		alias = name
	}
	t := &Table{Name: name, Alias: alias, columns: make(map[string]Column, len(defs))}
	for _, d := range defs {
		t.columns[d.Field] = Column{Name: d.Field, Expr: alias + "." + d.Column, Kind: d.Kind}
	}
	return t
}

// Column returns the column registered under the API name.
func (t *Table) Column(name string) (Column, bool) {
	if t == nil {
		return Column{}, false
	}
	col, ok := t.columns[name]
	return col, ok
}

// From renders "name alias".
func (t *Table) From() string {
	if t.Alias == t.Name {
		return t.Name
	}
	return t.Name + " " + t.Alias
}

// Relations maps relation names used in dotted paths onto joined tables.
type Relations map[string]*Table

// Resolve maps a field path onto a column. A dotted path selects a relation
// and a column on it; any other path is a column of base.
func Resolve(base *Table, joins Relations, path string) (Column, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Column{}, false
	}
	relation, field, dotted := strings.Cut(path, ".")
	if !dotted {
		return base.Column(path)
	}
	joined, ok := joins[relation]
	if !ok {
		return Column{}, false
	}
	return joined.Column(field)
}
