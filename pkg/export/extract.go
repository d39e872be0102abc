package export

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the ISO-8601 layout used for date values.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Column pairs a dotted field path with its header label.
type Column struct {
	Path   string
	Header string
}

// Columns builds columns from path/header pairs.
func Columns(pairs ...string) []Column {
	cols := make([]Column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		cols = append(cols, Column{Path: pairs[i], Header: pairs[i+1]})
	}
	return cols
}

// Extract follows a dotted path through maps, structs (by json tag) and
// pointers and renders the value found. Missing and null values become "".
func Extract(row interface{}, path string) string {
	v := reflect.ValueOf(row)
	for _, part := range strings.Split(path, ".") {
		v = step(v, part)
		if !v.IsValid() {
			return ""
		}
	}
	return render(v)
}

func step(v reflect.Value, key string) reflect.Value {
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}
		}
		return v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
	case reflect.Struct:
		return fieldByJSONName(v, key)
	}
	return reflect.Value{}
}

func fieldByJSONName(v reflect.Value, key string) reflect.Value {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if f.Anonymous && name == "" {
			if found := fieldByJSONName(indirect(v.Field(i)), key); found.IsValid() {
				return found
			}
			continue
		}
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if name == key {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func render(v reflect.Value) string {
	if v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
	}
	iface := v.Interface()
	switch t := iface.(type) {
	case time.Time:
		return formatTime(t)
	case *time.Time:
		return formatTime(*t)
	case driver.Valuer:
		value, err := t.Value()
		if err != nil || value == nil {
			return ""
		}
		return render(reflect.ValueOf(value))
	case json.RawMessage:
		return string(t)
	case fmt.Stringer:
		return t.String()
	}
	v = indirect(v)
	if !v.IsValid() {
		return ""
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Struct:
		if ts, ok := v.Interface().(time.Time); ok {
			return formatTime(ts)
		}
	}
	raw, err := json.Marshal(v.Interface())
	if err != nil {
		return fmt.Sprint(v.Interface())
	}
	return string(raw)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}
