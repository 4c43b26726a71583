package ddl

import "github.com/cetra3/apache-log/internal/schema"

// ColumnDef describes a single column ready for rendering.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: native SQL type of the target dialect (e.g. bigint, NVARCHAR(255))
type ColumnDef struct {
	Name    string
	SQLType string
}

// TableDef holds the table name and an ordered list of columns. The FQN may
// be dotted ("schema.table"); each segment is quoted separately.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect captures the per-backend differences needed to render DDL.
//
// MapType must be total over schema.DataTypes(); every backend has a test
// asserting that.
type Dialect interface {
	// Name is the storage kind, e.g. "postgres".
	Name() string
	// MapType returns the native SQL type for a logical type.
	MapType(t schema.DataType) string
	// QuoteIdent quotes a single identifier segment.
	QuoteIdent(id string) string
	// AddColumnClause is the keyword sequence used by ALTER TABLE to add a
	// column: "ADD COLUMN" for most stores, "ADD" for SQL Server.
	AddColumnClause() string
}

// FromTableSpec converts a declared table into a TableDef using the dialect's
// type mapping. Column order is preserved.
func FromTableSpec(d Dialect, t schema.TableSpec) TableDef {
	cols := t.Columns()
	out := TableDef{FQN: t.Name(), Columns: make([]ColumnDef, 0, len(cols))}
	for _, c := range cols {
		out.Columns = append(out.Columns, ColumnFromSpec(d, c))
	}
	return out
}

// ColumnFromSpec converts one declared column.
func ColumnFromSpec(d Dialect, c schema.ColumnSpec) ColumnDef {
	return ColumnDef{Name: c.Name, SQLType: d.MapType(c.Type)}
}
