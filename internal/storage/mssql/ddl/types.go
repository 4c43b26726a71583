// Package ddl contains the SQL Server dialect.
package ddl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cetra3/apache-log/internal/schema"
)

// Dialect implements the SQL Server flavour of ddl.Dialect. SQL Server spells
// ALTER TABLE ... ADD without COLUMN and quotes identifiers with brackets.
type Dialect struct{}

func (Dialect) Name() string { return "mssql" }

// MapType maps a logical column type into a SQL Server type.
func (Dialect) MapType(t schema.DataType) string {
	switch t {
	case schema.ID:
		return "BIGINT IDENTITY(1,1) PRIMARY KEY"
	case schema.Date:
		return "DATETIME2"
	case schema.Long:
		return "BIGINT"
	case schema.Small:
		return "SMALLINT"
	case schema.UUID:
		return "UNIQUEIDENTIFIER"
	case schema.Double:
		return "FLOAT"
	case schema.URL:
		return fmt.Sprintf("NVARCHAR(%d)", schema.URLWidth)
	case schema.Boolean:
		return "BIT"
	case schema.Text:
		return "NVARCHAR(MAX)"
	case schema.String:
		return fmt.Sprintf("NVARCHAR(%d)", schema.StringWidth)
	default:
		panic(fmt.Sprintf("mssql: unmapped data type %v", t))
	}
}

// QuoteIdent brackets id, doubling embedded closing brackets.
func (Dialect) QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func (Dialect) AddColumnClause() string { return "ADD" }

func (Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

func (Dialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = COALESCE(NULLIF(@p1, ''), SCHEMA_NAME())
  AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`
}

func (Dialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = COALESCE(NULLIF(@p1, ''), SCHEMA_NAME())
  AND TABLE_NAME = @p2
ORDER BY ORDINAL_POSITION`
}
