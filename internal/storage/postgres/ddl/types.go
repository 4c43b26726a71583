// Package ddl contains the Postgres dialect: logical type mapping, identifier
// quoting and the information_schema queries used for introspection.
package ddl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cetra3/apache-log/internal/schema"
)

// Dialect implements the Postgres flavour of ddl.Dialect.
type Dialect struct{}

func (Dialect) Name() string { return "postgres" }

// MapType maps a logical column type into a Postgres SQL type.
//
//	ID      -> bigserial primary key
//	Date    -> timestamp
//	URL     -> varchar(2083)
//	String  -> varchar(255)
func (Dialect) MapType(t schema.DataType) string {
	switch t {
	case schema.ID:
		return "bigserial primary key"
	case schema.Date:
		return "timestamp"
	case schema.Long:
		return "bigint"
	case schema.Small:
		return "smallint"
	case schema.UUID:
		return "uuid"
	case schema.Double:
		return "double precision"
	case schema.URL:
		return fmt.Sprintf("varchar(%d)", schema.URLWidth)
	case schema.Boolean:
		return "boolean"
	case schema.Text:
		return "text"
	case schema.String:
		return fmt.Sprintf("varchar(%d)", schema.StringWidth)
	default:
		panic(fmt.Sprintf("postgres: unmapped data type %v", t))
	}
}

// QuoteIdent double-quotes id, doubling embedded quotes.
func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (Dialect) AddColumnClause() string { return "ADD COLUMN" }

func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Dialect) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
  AND table_type = 'BASE TABLE'
ORDER BY table_name`
}

func (Dialect) ColumnsQuery() string {
	return `SELECT column_name FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
  AND table_name = $2
ORDER BY ordinal_position`
}
