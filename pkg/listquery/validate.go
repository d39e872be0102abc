package listquery

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var operatorsByVariant = map[Variant][]Operator{
	VariantText:        {OpILike, OpNotILike, OpEq, OpNe, OpIsEmpty, OpIsNotEmpty},
	VariantNumber:      {OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpIsBetween, OpIsEmpty, OpIsNotEmpty},
	VariantRange:       {OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpIsBetween, OpIsEmpty, OpIsNotEmpty},
	VariantDate:        {OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpIsBetween, OpIsRelativeToToday, OpIsEmpty, OpIsNotEmpty},
	VariantDateRange:   {OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpIsBetween, OpIsRelativeToToday, OpIsEmpty, OpIsNotEmpty},
	VariantBoolean:     {OpEq, OpNe},
	VariantSelect:      {OpEq, OpNe, OpInArray, OpNotInArray, OpIsEmpty, OpIsNotEmpty},
	VariantMultiSelect: {OpEq, OpNe, OpInArray, OpNotInArray, OpIsEmpty, OpIsNotEmpty},
	VariantEnum:        {OpEq, OpNe, OpInArray, OpNotInArray, OpIsEmpty, OpIsNotEmpty},
}

// Supports reports whether op is valid for variant.
func Supports(variant Variant, op Operator) bool {
	for _, allowed := range operatorsByVariant[variant] {
		if allowed == op {
			return true
		}
	}
	return false
}

// ValidationError lists request fields that failed validation, keyed by
// their JSON path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid list request: " + strings.Join(parts, "; ")
}

// Validator checks list requests before they reach the builder.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a validator with the filter rules registered.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateFilter, Filter{})
	return &Validator{validate: v}
}

// Validate checks paging bounds and every filter and sort item.
func (v *Validator) Validate(req Request) error {
	return v.check(req)
}

// ValidateForExport checks filters and sort items only; paging is replaced
// by the export page size.
func (v *Validator) ValidateForExport(req Request) error {
	req.Page = DefaultPage
	req.PerPage = DefaultPerPage
	return v.check(req)
}

func (v *Validator) check(req Request) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}
		out.Fields[key] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "operator":
		return fmt.Sprintf("operator %v is not valid for this variant", fe.Value())
	case "pair":
		return "must be a two element array"
	case "array":
		return "must be an array"
	}
	return "is invalid"
}

func validateFilter(sl validator.StructLevel) {
	f, ok := sl.Current().Interface().(Filter)
	if !ok {
		return
	}
	if _, known := operatorsByVariant[f.Variant]; known && f.Operator != "" && !Supports(f.Variant, f.Operator) {
		sl.ReportError(f.Operator, "operator", "Operator", "operator", "")
	}
	switch f.Operator {
	case OpIsBetween:
		if items, ok := asSlice(f.Value); !ok || len(items) != 2 {
			sl.ReportError(f.Value, "value", "Value", "pair", "")
		}
	case OpInArray, OpNotInArray:
		if _, ok := asSlice(f.Value); !ok {
			sl.ReportError(f.Value, "value", "Value", "array", "")
		}
	}
}
