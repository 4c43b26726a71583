// Package schema declares the logical table model the ingester writes to.
//
// A TableSpec is declared once, statically, and handed to the catalog for
// reconciliation. Column types are expressed as a closed set of logical
// DataType values; each storage dialect maps every DataType to exactly one
// native SQL type (see the Dialect implementations under internal/storage).
package schema

import (
	"fmt"
	"strings"
)

// DataType is the closed set of logical column types.
type DataType int

const (
	ID DataType = iota
	Date
	Long
	Small
	UUID
	Double
	URL
	Boolean
	Text
	String

	// numDataTypes must stay last.
	numDataTypes
)

// Maximum lengths, in characters, of the bounded text types.
const (
	URLWidth    = 2083
	StringWidth = 255
)

// Width returns the maximum length of t in characters, or 0 when t is not a
// bounded text type.
func (t DataType) Width() int {
	switch t {
	case URL:
		return URLWidth
	case String:
		return StringWidth
	}
	return 0
}

var dataTypeNames = [numDataTypes]string{
	ID:      "id",
	Date:    "date",
	Long:    "long",
	Small:   "small",
	UUID:    "uuid",
	Double:  "double",
	URL:     "url",
	Boolean: "boolean",
	Text:    "text",
	String:  "string",
}

// DataTypes returns every DataType in declaration order. Dialect tests use it
// to check that their type mapping is total.
func DataTypes() []DataType {
	out := make([]DataType, 0, numDataTypes)
	for t := DataType(0); t < numDataTypes; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is one of the declared constants.
func (t DataType) Valid() bool { return t >= 0 && t < numDataTypes }

func (t DataType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("DataType(%d)", int(t))
	}
	return dataTypeNames[t]
}

// ColumnSpec is a single declared column.
type ColumnSpec struct {
	Name string
	Type DataType
}

// TableSpec is a declared table: a name and columns unique by name. Column
// order is the declaration order and is used when rendering CREATE TABLE.
type TableSpec struct {
	name    string
	columns []ColumnSpec
}

// NewTableSpec validates and builds a TableSpec. Column names must be
// non-empty and unique (case-insensitive, as SQL identifiers are folded by
// most stores).
func NewTableSpec(name string, columns ...ColumnSpec) (TableSpec, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return TableSpec{}, fmt.Errorf("schema: table name must not be empty")
	}
	if len(columns) == 0 {
		return TableSpec{}, fmt.Errorf("schema: table %s: at least one column is required", name)
	}

	seen := make(map[string]struct{}, len(columns))
	cols := make([]ColumnSpec, 0, len(columns))
	for _, c := range columns {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return TableSpec{}, fmt.Errorf("schema: table %s: column with empty name", name)
		}
		if !c.Type.Valid() {
			return TableSpec{}, fmt.Errorf("schema: table %s: column %s has unknown type %v", name, c.Name, c.Type)
		}
		key := strings.ToLower(c.Name)
		if _, dup := seen[key]; dup {
			return TableSpec{}, fmt.Errorf("schema: table %s: duplicate column %s", name, c.Name)
		}
		seen[key] = struct{}{}
		cols = append(cols, c)
	}
	return TableSpec{name: name, columns: cols}, nil
}

// MustTableSpec is NewTableSpec for static declarations; it panics on error.
func MustTableSpec(name string, columns ...ColumnSpec) TableSpec {
	t, err := NewTableSpec(name, columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the table name.
func (t TableSpec) Name() string { return t.name }

// Columns returns a copy of the declared columns.
func (t TableSpec) Columns() []ColumnSpec {
	out := make([]ColumnSpec, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks up a column by name (case-insensitive).
func (t TableSpec) Column(name string) (ColumnSpec, bool) {
	for _, c := range t.columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// LogsTable declares the access-log table under the given name.
func LogsTable(name string) TableSpec {
	return MustTableSpec(name,
		ColumnSpec{Name: "id", Type: ID},
		ColumnSpec{Name: "ip_address", Type: String},
		ColumnSpec{Name: "identd", Type: String},
		ColumnSpec{Name: "username", Type: String},
		ColumnSpec{Name: "time", Type: Date},
		ColumnSpec{Name: "request", Type: Text},
		ColumnSpec{Name: "status_code", Type: Long},
		ColumnSpec{Name: "size", Type: Long},
		ColumnSpec{Name: "referrer", Type: URL},
		ColumnSpec{Name: "user_agent", Type: Text},
	)
}
