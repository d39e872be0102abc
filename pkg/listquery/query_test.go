package listquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildOrderByPreservesCallerOrder(t *testing.T) {
	dirs := BuildOrderBy(testStudents, testJoins, []SortItem{
		{ID: "class.name", Desc: false},
		{ID: "name", Desc: true},
		{ID: "ghost", Desc: true},
	}, "updatedAt", true)

	assert.Equal(t, []OrderDirective{{Expr: "c.name"}, {Expr: "s.name", Desc: true}}, dirs)
	assert.Equal(t, " ORDER BY c.name ASC, s.name DESC", RenderOrderBy(dirs))
}

func TestBuildOrderByFallsBackToDefault(t *testing.T) {
	dirs := BuildOrderBy(testStudents, testJoins, nil, "updatedAt", true)
	assert.Equal(t, []OrderDirective{{Expr: "s.updated_at", Desc: true}}, dirs)

	dirs = BuildOrderBy(testStudents, testJoins, []SortItem{{ID: "nope"}}, "updatedAt", false)
	assert.Equal(t, []OrderDirective{{Expr: "s.updated_at"}}, dirs)

	assert.Empty(t, BuildOrderBy(testStudents, testJoins, nil, "missing", true))
	assert.Equal(t, "", RenderOrderBy(nil))
}

func TestPaginate(t *testing.T) {
	assert.Equal(t, Page{Limit: 10, Offset: 0}, Paginate(1, 10))
	assert.Equal(t, Page{Limit: 25, Offset: 50}, Paginate(3, 25))
}

func TestTotalPages(t *testing.T) {
	cases := []struct{ rows, perPage, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{101, 100, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TotalPages(tc.rows, tc.perPage))
		meta := NewMeta(1, tc.perPage, tc.rows)
		assert.Equal(t, tc.want, meta.TotalPage)
	}
}

func TestBuilderBuildQuery(t *testing.T) {
	spec := Spec{
		Base:        testStudents,
		Joins:       testJoins,
		Columns:     "s.id, s.name",
		DefaultSort: "updatedAt",
		DefaultDesc: true,
	}
	req := NewRequest()
	req.Page = 2
	req.Filters = []Filter{{ID: "name", Value: "a", Variant: VariantText, Operator: OpILike}}

	q := (&Builder{}).Build(spec, req)

	sql, args := q.Select(Paginate(req.Page, req.PerPage))
	assert.Equal(t, "SELECT s.id, s.name FROM students s WHERE (s.name ILIKE ?) ORDER BY s.updated_at DESC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []interface{}{"%a%", 10, 10}, args)

	countSQL, countArgs := q.Count()
	assert.Equal(t, "SELECT COUNT(*) FROM students s WHERE (s.name ILIKE ?)", countSQL)
	assert.Equal(t, []interface{}{"%a%"}, countArgs)
}

func TestRequestDefaults(t *testing.T) {
	req := NewRequest()
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 10, req.PerPage)
	assert.Equal(t, JoinAnd, req.Join())

	req.JoinOperator = "xor"
	assert.Equal(t, JoinAnd, req.Join())

	export := req.ForExport()
	assert.Equal(t, ExportPerPage, export.PerPage)
	assert.Equal(t, 1, export.Page)
}
