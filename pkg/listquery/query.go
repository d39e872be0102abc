package listquery

// Page is a resolved LIMIT/OFFSET pair.
type Page struct {
	Limit  int
	Offset int
}

// Paginate converts a 1-based page number into LIMIT/OFFSET. Inputs are
// assumed to be validated.
func Paginate(page, perPage int) Page {
	return Page{Limit: perPage, Offset: (page - 1) * perPage}
}

// Query is a list query over a FROM clause that may include joins.
type Query struct {
	Columns string
	From    string
	Where   Predicate
	OrderBy []OrderDirective
}

// Select renders the paginated SELECT and its arguments.
func (q Query) Select(page Page) (string, []interface{}) {
	sql := "SELECT " + q.Columns + " FROM " + q.From + q.Where.Where() + RenderOrderBy(q.OrderBy) + " LIMIT ? OFFSET ?"
	args := make([]interface{}, 0, len(q.Where.Args)+2)
	args = append(args, q.Where.Args...)
	args = append(args, page.Limit, page.Offset)
	return sql, args
}

// Count renders a COUNT(*) over the same FROM and predicate.
func (q Query) Count() (string, []interface{}) {
	return "SELECT COUNT(*) FROM " + q.From + q.Where.Where(), q.Where.Args
}

// Spec describes an entity list: its base table, joinable relations, select
// list, FROM clause and default ordering.
type Spec struct {
	Base        *Table
	Joins       Relations
	Columns     string
	From        string
	DefaultSort string
	DefaultDesc bool
}

// Build assembles the query for req.
func (b *Builder) Build(spec Spec, req Request) Query {
	from := spec.From
	if from == "" {
		from = spec.Base.From()
	}
	return Query{
		Columns: spec.Columns,
		From:    from,
		Where:   b.BuildPredicate(spec.Base, spec.Joins, req.Filters, req.Join()),
		OrderBy: b.BuildOrderBy(spec.Base, spec.Joins, req.Sort, spec.DefaultSort, spec.DefaultDesc),
	}
}
