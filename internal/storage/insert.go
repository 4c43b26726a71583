package storage

import (
	"strings"

	"github.com/cetra3/apache-log/internal/ddl"
)

// BuildInsertSQL renders the single-row statement a batch is executed with:
//
//	INSERT INTO <table>(<col1>, <col2>, ...) VALUES (<p1>, <p2>, ...)
//
// placeholder receives 1-based positions so that dialects using numbered
// parameters ($1, @p1) and positional ones (?) share the builder.
func BuildInsertSQL(d ddl.Dialect, placeholder func(n int) string, table string, columns []string) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(ddl.QuoteFQN(d, table))
	sb.WriteByte('(')
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.QuoteIdent(c))
	}
	sb.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholder(i + 1))
	}
	sb.WriteByte(')')
	return sb.String()
}
