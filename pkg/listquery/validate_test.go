package listquery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) Request {
	t.Helper()
	req := NewRequest()
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	req := decode(t, `{
		"page": 2,
		"perPage": 50,
		"joinOperator": "or",
		"filters": [
			{"id": "name", "value": "an", "variant": "text", "operator": "iLike"},
			{"id": "score", "value": ["10", "20"], "variant": "range", "operator": "isBetween"},
			{"id": "classId", "value": ["1", "2"], "variant": "multiSelect", "operator": "inArray"}
		],
		"sort": [{"id": "name", "desc": true}]
	}`)
	assert.NoError(t, NewValidator().Validate(req))
}

func TestValidateDefaultsApplyToMissingFields(t *testing.T) {
	req := decode(t, `{}`)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 10, req.PerPage)
	assert.NoError(t, NewValidator().Validate(req))
}

func TestValidateRejectsBadPaging(t *testing.T) {
	v := NewValidator()
	err := v.Validate(decode(t, `{"page": 0, "perPage": 101}`))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be at least 1", verr.Fields["page"])
	assert.Equal(t, "must be at most 100", verr.Fields["perPage"])
}

func TestValidateRejectsUnknownVariantAndOperator(t *testing.T) {
	err := NewValidator().Validate(decode(t, `{"filters": [
		{"id": "name", "value": "x", "variant": "fuzzy", "operator": "eq"},
		{"id": "name", "value": "x", "variant": "text", "operator": "startsWith"}
	]}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "filters[0].variant")
	assert.Contains(t, verr.Fields, "filters[1].operator")
}

func TestValidateOperatorVariantCompatibility(t *testing.T) {
	err := NewValidator().Validate(decode(t, `{"filters": [
		{"id": "isActive", "value": "true", "variant": "boolean", "operator": "iLike"}
	]}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["filters[0].operator"], "not valid")
}

func TestValidateValueShapes(t *testing.T) {
	err := NewValidator().Validate(decode(t, `{"filters": [
		{"id": "score", "value": ["10"], "variant": "number", "operator": "isBetween"},
		{"id": "classId", "value": "1", "variant": "select", "operator": "inArray"}
	]}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be a two element array", verr.Fields["filters[0].value"])
	assert.Equal(t, "must be an array", verr.Fields["filters[1].value"])
}

func TestValidateIgnoresValueForNullnessOperators(t *testing.T) {
	err := NewValidator().Validate(decode(t, `{"filters": [
		{"id": "bio", "variant": "text", "operator": "isEmpty"},
		{"id": "bio", "value": 42, "variant": "text", "operator": "isNotEmpty"}
	]}`))
	assert.NoError(t, err)
}

func TestValidateForExportSkipsPaging(t *testing.T) {
	v := NewValidator()
	req := decode(t, `{"perPage": 100000}`)
	assert.Error(t, v.Validate(req))
	assert.NoError(t, v.ValidateForExport(req))
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports(VariantDate, OpIsRelativeToToday))
	assert.False(t, Supports(VariantText, OpIsRelativeToToday))
	assert.False(t, Supports(VariantBoolean, OpInArray))
	assert.False(t, Supports("unknown", OpEq))
}
