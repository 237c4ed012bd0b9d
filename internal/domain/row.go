package domain

import "strings"

// Record is one raw input record exposing named fields.
type Record interface {
	Field(name string) (string, bool)
}

// MapRecord is a Record backed by a map of field name to cell text.
type MapRecord map[string]string

// Field returns the value of the named field.
func (m MapRecord) Field(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Row is one unit of work: a file name plus candidate links in attempt order.
type Row struct {
	Name       string
	Candidates []string
}

// NewRow extracts a Row from rec. The name is taken verbatim. Link fields are
// read in the given order and null values are dropped; survivors keep their
// relative order.
func NewRow(rec Record, nameField string, linkFields []string) Row {
	name, _ := rec.Field(nameField)
	row := Row{Name: name}
	for _, field := range linkFields {
		v, ok := rec.Field(field)
		if !ok || IsNull(v) {
			continue
		}
		row.Candidates = append(row.Candidates, strings.TrimSpace(v))
	}
	return row
}

// IsNull reports whether a cell value is a null marker.
func IsNull(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "nan")
}
