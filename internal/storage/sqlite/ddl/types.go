// Package ddl contains the SQLite dialect: logical type mapping, identifier
// quoting and the catalog queries used for schema introspection.
//
// SQLite has dynamic typing, so the mapping prefers canonical affinities.
// Timestamps are stored through the driver's TIMESTAMP handling.
package ddl

import (
	"fmt"
	"strings"

	"github.com/cetra3/apache-log/internal/schema"
)

// Dialect implements the SQLite flavour of ddl.Dialect and sqldb.Dialect.
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

// MapType maps a logical column type into a SQLite column type.
func (Dialect) MapType(t schema.DataType) string {
	switch t {
	case schema.ID:
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	case schema.Date:
		return "TIMESTAMP"
	case schema.Long, schema.Small:
		return "INTEGER"
	case schema.UUID, schema.Text:
		return "TEXT"
	case schema.Double:
		return "REAL"
	case schema.URL:
		return fmt.Sprintf("VARCHAR(%d)", schema.URLWidth)
	case schema.Boolean:
		return "INTEGER" // 0/1
	case schema.String:
		return fmt.Sprintf("VARCHAR(%d)", schema.StringWidth)
	default:
		panic(fmt.Sprintf("sqlite: unmapped data type %v", t))
	}
}

// QuoteIdent double-quotes id, doubling embedded quotes.
func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (Dialect) AddColumnClause() string { return "ADD COLUMN" }

func (Dialect) Placeholder(int) string { return "?" }

// TablesQuery reads pragma_table_list so attached databases can be listed
// by schema name. An empty schema means "main".
func (Dialect) TablesQuery() string {
	return `SELECT name FROM pragma_table_list
WHERE schema = COALESCE(NULLIF(?, ''), 'main')
  AND type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`
}

// ColumnsQuery binds the schema first, then the table, and passes both to
// pragma_table_info, whose second argument is the schema.
func (Dialect) ColumnsQuery() string {
	return `SELECT c.name
FROM (SELECT COALESCE(NULLIF(?, ''), 'main') AS s, ? AS t) AS a,
     pragma_table_info(a.t, a.s) AS c
ORDER BY c.cid`
}
