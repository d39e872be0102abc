package export

import (
	"reflect"
	"strings"
)

// CSVExporter renders rows as comma separated text. Values are quoted only
// when they contain a comma, a double quote or a newline, lines are joined
// with "\n" and no trailing newline is written.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces the CSV document for rows. rows must be a slice; each
// element is read with Extract for every column.
func (e *CSVExporter) Render(rows interface{}, columns []Column) string {
	lines := make([]string, 0, 1)
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = Escape(col.Header)
	}
	lines = append(lines, strings.Join(headers, ","))

	forEach(rows, func(row interface{}) {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = Escape(Extract(row, col.Path))
		}
		lines = append(lines, strings.Join(cells, ","))
	})
	return strings.Join(lines, "\n")
}

// Escape quotes value when it contains a comma, a double quote or a newline.
func Escape(value string) string {
	if !strings.ContainsAny(value, ",\"\n") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func forEach(rows interface{}, fn func(interface{})) {
	v := reflect.ValueOf(rows)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return
	}
	for i := 0; i < v.Len(); i++ {
		fn(v.Index(i).Interface())
	}
}
