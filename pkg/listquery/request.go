// Package listquery turns declarative list requests (filters, sort and
// pagination) into SQL fragments that work against any registered table.
package listquery

// Variant describes how a filter value should be interpreted.
type Variant string

const (
	VariantText        Variant = "text"
	VariantNumber      Variant = "number"
	VariantRange       Variant = "range"
	VariantDate        Variant = "date"
	VariantDateRange   Variant = "dateRange"
	VariantBoolean     Variant = "boolean"
	VariantSelect      Variant = "select"
	VariantMultiSelect Variant = "multiSelect"
	VariantEnum        Variant = "enum"
)

// Operator is a filter comparison.
type Operator string

const (
	OpEq                Operator = "eq"
	OpNe                Operator = "ne"
	OpLt                Operator = "lt"
	OpLte               Operator = "lte"
	OpGt                Operator = "gt"
	OpGte               Operator = "gte"
	OpILike             Operator = "iLike"
	OpNotILike          Operator = "notILike"
	OpInArray           Operator = "inArray"
	OpNotInArray        Operator = "notInArray"
	OpIsBetween         Operator = "isBetween"
	OpIsRelativeToToday Operator = "isRelativeToToday"
	OpIsEmpty           Operator = "isEmpty"
	OpIsNotEmpty        Operator = "isNotEmpty"
)

// JoinOperator combines all filter conditions of a request.
type JoinOperator string

const (
	JoinAnd JoinOperator = "and"
	JoinOr  JoinOperator = "or"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
	// ExportPerPage is the page size used to materialise every matching row.
	ExportPerPage = 100000
)

// Filter is a single predicate over a (possibly dotted) field path.
type Filter struct {
	ID       string      `json:"id" validate:"required"`
	Value    interface{} `json:"value"`
	Variant  Variant     `json:"variant" validate:"required,oneof=text number range date dateRange boolean select multiSelect enum"`
	Operator Operator    `json:"operator" validate:"required,oneof=eq ne lt lte gt gte iLike notILike inArray notInArray isBetween isRelativeToToday isEmpty isNotEmpty"`
}

// SortItem orders results by a field path.
type SortItem struct {
	ID   string `json:"id" validate:"required"`
	Desc bool   `json:"desc"`
}

// Request is the body accepted by every list endpoint.
type Request struct {
	Page         int          `json:"page" validate:"gte=1"`
	PerPage      int          `json:"perPage" validate:"gte=1,lte=100"`
	Filters      []Filter     `json:"filters,omitempty" validate:"omitempty,dive"`
	JoinOperator JoinOperator `json:"joinOperator,omitempty" validate:"omitempty,oneof=and or"`
	Sort         []SortItem   `json:"sort,omitempty" validate:"omitempty,dive"`
}

// NewRequest returns a request preloaded with defaults. Decoding a body into
// it keeps the defaults for absent fields.
func NewRequest() Request {
	return Request{Page: DefaultPage, PerPage: DefaultPerPage, JoinOperator: JoinAnd}
}

// ForExport returns a copy of r that selects every matching row.
func (r Request) ForExport() Request {
	r.Page = 1
	r.PerPage = ExportPerPage
	return r
}

// Join returns the effective join operator.
func (r Request) Join() JoinOperator {
	if r.JoinOperator == JoinOr {
		return JoinOr
	}
	return JoinAnd
}

// Meta is the pagination block of a list response.
type Meta struct {
	Page      int `json:"page"`
	PerPage   int `json:"perPage"`
	TotalRows int `json:"totalRows"`
	TotalPage int `json:"totalPage"`
}

// Result is a page of rows plus pagination metadata.
type Result[T any] struct {
	Rows []T  `json:"rows"`
	Meta Meta `json:"meta"`
}

// NewMeta computes pagination metadata.
func NewMeta(page, perPage, totalRows int) Meta {
	return Meta{Page: page, PerPage: perPage, TotalRows: totalRows, TotalPage: TotalPages(totalRows, perPage)}
}

// TotalPages returns ceil(totalRows / perPage).
func TotalPages(totalRows, perPage int) int {
	if perPage <= 0 || totalRows <= 0 {
		return 0
	}
	return (totalRows + perPage - 1) / perPage
}
