// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render the two statements the schema catalog issues: CREATE TABLE for a
// missing table and ALTER TABLE ... ADD COLUMN for a missing column.
//
// Dialect-specific behavior (type names, identifier quoting, the add-column
// keyword) comes from a Dialect supplied by each storage backend.
//
// The renderer never emits DROP or ALTER COLUMN; reconciliation is additive.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// Rules:
//
//   - t.FQN must be non-empty.
//
//   - Each column must have a non-empty Name and SQLType.
//
//   - A column is rendered as:
//
//     <quoted name> <SQLType>
//
//   - The resulting statement has the form:
//
//     CREATE TABLE <quoted FQN> (
//     <col1-def>,
//     <col2-def>
//     )
//
// Primary keys and identity behavior are carried inside SQLType (for example
// "bigserial primary key"), so no separate constraint clause is rendered.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		def, err := renderColumn(d, fqn, c)
		if err != nil {
			return "", err
		}
		cols = append(cols, def)
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		QuoteFQN(d, fqn),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildAddColumnSQL renders an additive ALTER TABLE statement:
//
//	ALTER TABLE <quoted table> ADD COLUMN <quoted name> <SQLType>
func BuildAddColumnSQL(d Dialect, table string, c ColumnDef) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	def, err := renderColumn(d, table, c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s %s %s", QuoteFQN(d, table), d.AddColumnClause(), def), nil
}

func renderColumn(d Dialect, table string, c ColumnDef) (string, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: column with empty name in table %s", table)
	}
	typ := strings.TrimSpace(c.SQLType)
	if typ == "" {
		return "", fmt.Errorf("ddl: column %s missing SQLType", name)
	}
	return d.QuoteIdent(name) + " " + typ, nil
}

// QuoteFQN quotes a possibly schema-qualified name segment by segment.
// Empty segments are ignored.
func QuoteFQN(d Dialect, fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}
