// Package ddl contains the MySQL dialect.
package ddl

import (
	"fmt"
	"strings"

	"github.com/cetra3/apache-log/internal/schema"
)

// Dialect implements the MySQL flavour of ddl.Dialect.
type Dialect struct{}

func (Dialect) Name() string { return "mysql" }

// MapType maps a logical column type into a MySQL type. UUIDs are stored in
// their canonical 36-character text form.
func (Dialect) MapType(t schema.DataType) string {
	switch t {
	case schema.ID:
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	case schema.Date:
		return "DATETIME"
	case schema.Long:
		return "BIGINT"
	case schema.Small:
		return "SMALLINT"
	case schema.UUID:
		return "CHAR(36)"
	case schema.Double:
		return "DOUBLE"
	case schema.URL:
		return fmt.Sprintf("VARCHAR(%d)", schema.URLWidth)
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Text:
		return "TEXT"
	case schema.String:
		return fmt.Sprintf("VARCHAR(%d)", schema.StringWidth)
	default:
		panic(fmt.Sprintf("mysql: unmapped data type %v", t))
	}
}

// QuoteIdent backtick-quotes id, doubling embedded backticks.
func (Dialect) QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

func (Dialect) AddColumnClause() string { return "ADD COLUMN" }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
  AND table_type = 'BASE TABLE'
ORDER BY table_name`
}

func (Dialect) ColumnsQuery() string {
	return `SELECT column_name FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
  AND table_name = ?
ORDER BY ordinal_position`
}
