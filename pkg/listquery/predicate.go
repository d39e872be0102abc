package listquery

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnresolvedField is reported for filters or sort items whose path does
// not resolve against the registered tables.
var ErrUnresolvedField = errors.New("unresolved field")

// Predicate is a WHERE fragment using "?" placeholders.
type Predicate struct {
	SQL  string
	Args []interface{}
}

// Empty reports whether the predicate matches every row.
func (p Predicate) Empty() bool {
	return strings.TrimSpace(p.SQL) == ""
}

// Where renders " WHERE ..." or an empty string.
func (p Predicate) Where() string {
	if p.Empty() {
		return ""
	}
	return " WHERE " + p.SQL
}

// Builder translates filters and sort items. The zero value is usable and
// evaluates dates in UTC against the wall clock.
type Builder struct {
	Now      func() time.Time
	Location *time.Location
	// OnSkip is called for each condition that is dropped.
	OnSkip func(path string, err error)
}

var defaultBuilder = &Builder{}

// BuildPredicate combines filters with the default builder.
func BuildPredicate(base *Table, joins Relations, filters []Filter, join JoinOperator) Predicate {
	return defaultBuilder.BuildPredicate(base, joins, filters, join)
}

// BuildPredicate resolves each filter and combines the resulting
// comparisons with join. Filters that cannot be resolved or translated are
// skipped.
func (b *Builder) BuildPredicate(base *Table, joins Relations, filters []Filter, join JoinOperator) Predicate {
	clauses := make([]string, 0, len(filters))
	var args []interface{}
	for _, f := range filters {
		col, ok := Resolve(base, joins, f.ID)
		if !ok {
			b.skip(f.ID, ErrUnresolvedField)
			continue
		}
		clause, clauseArgs, err := b.condition(col, f)
		if err != nil {
			b.skip(f.ID, err)
			continue
		}
		if clause == "" {
			continue
		}
		clauses = append(clauses, clause)
		args = append(args, clauseArgs...)
	}
	if len(clauses) == 0 {
		return Predicate{}
	}
	sep := " AND "
	if join == JoinOr {
		sep = " OR "
	}
	return Predicate{SQL: "(" + strings.Join(clauses, sep) + ")", Args: args}
}

func (b *Builder) skip(path string, err error) {
	if b.OnSkip != nil {
		b.OnSkip(path, err)
	}
}

func (b *Builder) loc() *time.Location {
	if b.Location != nil {
		return b.Location
	}
	return time.UTC
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now().In(b.loc())
	}
	return time.Now().In(b.loc())
}

func isDateVariant(v Variant) bool {
	return v == VariantDate || v == VariantDateRange
}

func isNumberVariant(v Variant) bool {
	return v == VariantNumber || v == VariantRange
}

// condition returns an empty clause with a nil error when the filter
// carries no usable value and should simply not constrain the query.
func (b *Builder) condition(col Column, f Filter) (string, []interface{}, error) {
	switch f.Operator {
	case OpIsEmpty:
		if col.Kind == KindText {
			return fmt.Sprintf("(%s IS NULL OR %s = '')", col.Expr, col.Expr), nil, nil
		}
		return col.Expr + " IS NULL", nil, nil
	case OpIsNotEmpty:
		if col.Kind == KindText {
			return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", col.Expr, col.Expr), nil, nil
		}
		return col.Expr + " IS NOT NULL", nil, nil
	case OpILike, OpNotILike:
		return b.like(col, f)
	case OpEq, OpNe:
		return b.equality(col, f)
	case OpLt, OpLte, OpGt, OpGte:
		return b.ordering(col, f)
	case OpInArray, OpNotInArray:
		return b.membership(col, f)
	case OpIsBetween:
		return b.between(col, f)
	case OpIsRelativeToToday:
		if !isDateVariant(f.Variant) {
			return "", nil, fmt.Errorf("%s requires a date variant", f.Operator)
		}
		start, end, err := relativeRange(f.Value, b.now())
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("(%s >= ? AND %s <= ?)", col.Expr, col.Expr), []interface{}{start, end}, nil
	}
	return "", nil, fmt.Errorf("unsupported operator %q", f.Operator)
}

func (b *Builder) like(col Column, f Filter) (string, []interface{}, error) {
	if f.Variant != VariantText {
		return "", nil, fmt.Errorf("%s requires a text variant", f.Operator)
	}
	s, err := asString(f.Value)
	if err != nil || strings.TrimSpace(s) == "" {
		return "", nil, nil
	}
	op := "ILIKE"
	if f.Operator == OpNotILike {
		op = "NOT ILIKE"
	}
	return fmt.Sprintf("%s %s ?", col.Expr, op), []interface{}{"%" + escapeLike(s) + "%"}, nil
}

func (b *Builder) equality(col Column, f Filter) (string, []interface{}, error) {
	if isBlank(f.Value) {
		return "", nil, nil
	}
	if isDateVariant(f.Variant) {
		day, err := asTime(f.Value, b.loc())
		if err != nil {
			return "", nil, err
		}
		if f.Operator == OpEq {
			return fmt.Sprintf("(%s >= ? AND %s <= ?)", col.Expr, col.Expr), []interface{}{startOfDay(day), endOfDay(day)}, nil
		}
		return fmt.Sprintf("(%s < ? OR %s > ?)", col.Expr, col.Expr), []interface{}{startOfDay(day), endOfDay(day)}, nil
	}
	value, err := b.scalar(col, f)
	if err != nil {
		return "", nil, err
	}
	op := "="
	if f.Operator == OpNe {
		op = "<>"
	}
	return fmt.Sprintf("%s %s ?", col.Expr, op), []interface{}{value}, nil
}

func (b *Builder) ordering(col Column, f Filter) (string, []interface{}, error) {
	if isBlank(f.Value) {
		return "", nil, nil
	}
	ops := map[Operator]string{OpLt: "<", OpLte: "<=", OpGt: ">", OpGte: ">="}
	op := ops[f.Operator]
	if isDateVariant(f.Variant) {
		day, err := asTime(f.Value, b.loc())
		if err != nil {
			return "", nil, err
		}
		bound := startOfDay(day)
		if f.Operator == OpLte || f.Operator == OpGt {
			bound = endOfDay(day)
		}
		return fmt.Sprintf("%s %s ?", col.Expr, op), []interface{}{bound}, nil
	}
	value, err := b.scalar(col, f)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s %s ?", col.Expr, op), []interface{}{value}, nil
}

func (b *Builder) membership(col Column, f Filter) (string, []interface{}, error) {
	items, ok := asSlice(f.Value)
	if !ok {
		return "", nil, fmt.Errorf("%s requires an array value", f.Operator)
	}
	if len(items) == 0 {
		return "", nil, nil
	}
	args := make([]interface{}, 0, len(items))
	for _, item := range items {
		value, err := b.scalar(col, Filter{Value: item, Variant: f.Variant})
		if err != nil {
			return "", nil, err
		}
		args = append(args, value)
	}
	op := "IN"
	if f.Operator == OpNotInArray {
		op = "NOT IN"
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	return fmt.Sprintf("%s %s (%s)", col.Expr, op, marks), args, nil
}

func (b *Builder) between(col Column, f Filter) (string, []interface{}, error) {
	bounds, ok := asSlice(f.Value)
	if !ok || len(bounds) != 2 {
		return "", nil, fmt.Errorf("%s requires a two element value", f.Operator)
	}
	lowBlank, highBlank := isBlank(bounds[0]), isBlank(bounds[1])
	if lowBlank && highBlank {
		return "", nil, nil
	}

	if isDateVariant(f.Variant) {
		var clauses []string
		var args []interface{}
		if !lowBlank {
			low, err := asTime(bounds[0], b.loc())
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, col.Expr+" >= ?")
			args = append(args, startOfDay(low))
		}
		if !highBlank {
			high, err := asTime(bounds[1], b.loc())
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, col.Expr+" <= ?")
			args = append(args, endOfDay(high))
		}
		return "(" + strings.Join(clauses, " AND ") + ")", args, nil
	}

	if lowBlank || highBlank {
		only := bounds[0]
		if lowBlank {
			only = bounds[1]
		}
		value, err := b.scalar(col, Filter{Value: only, Variant: f.Variant})
		if err != nil {
			return "", nil, err
		}
		return col.Expr + " = ?", []interface{}{value}, nil
	}
	low, err := b.scalar(col, Filter{Value: bounds[0], Variant: f.Variant})
	if err != nil {
		return "", nil, err
	}
	high, err := b.scalar(col, Filter{Value: bounds[1], Variant: f.Variant})
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("(%s >= ? AND %s <= ?)", col.Expr, col.Expr), []interface{}{low, high}, nil
}

// scalar coerces a single value according to the column kind, falling back
// to the variant when the column is text.
func (b *Builder) scalar(col Column, f Filter) (interface{}, error) {
	switch {
	case col.Kind == KindBool || f.Variant == VariantBoolean:
		return asBool(f.Value)
	case col.Kind == KindNumber || isNumberVariant(f.Variant):
		return asNumber(f.Value)
	case col.Kind == KindDate:
		return asTime(f.Value, b.loc())
	}
	return asString(f.Value)
}
