package listquery

import "strings"

// OrderDirective is a single resolved ORDER BY term.
type OrderDirective struct {
	Expr string
	Desc bool
}

func (d OrderDirective) String() string {
	if d.Desc {
		return d.Expr + " DESC"
	}
	return d.Expr + " ASC"
}

// BuildOrderBy resolves sort items in the caller's order. When nothing
// resolves, the default column is used instead.
func BuildOrderBy(base *Table, joins Relations, sort []SortItem, defaultColumn string, defaultDesc bool) []OrderDirective {
	return defaultBuilder.BuildOrderBy(base, joins, sort, defaultColumn, defaultDesc)
}

// BuildOrderBy resolves sort items in the caller's order. When nothing
// resolves, the default column is used instead.
func (b *Builder) BuildOrderBy(base *Table, joins Relations, sort []SortItem, defaultColumn string, defaultDesc bool) []OrderDirective {
	directives := make([]OrderDirective, 0, len(sort))
	seen := make(map[string]struct{}, len(sort))
	for _, item := range sort {
		col, ok := Resolve(base, joins, item.ID)
		if !ok {
			b.skip(item.ID, ErrUnresolvedField)
			continue
		}
		if _, dup := seen[col.Expr]; dup {
			continue
		}
		seen[col.Expr] = struct{}{}
		directives = append(directives, OrderDirective{Expr: col.Expr, Desc: item.Desc})
	}
	if len(directives) > 0 {
		return directives
	}
	if col, ok := Resolve(base, joins, defaultColumn); ok {
		return []OrderDirective{{Expr: col.Expr, Desc: defaultDesc}}
	}
	return nil
}

// RenderOrderBy renders " ORDER BY ..." or an empty string.
func RenderOrderBy(directives []OrderDirective) string {
	if len(directives) == 0 {
		return ""
	}
	parts := make([]string, len(directives))
	for i, d := range directives {
		parts[i] = d.String()
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
