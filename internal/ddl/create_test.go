package ddl

import (
	"strings"
	"testing"

	"github.com/cetra3/apache-log/internal/schema"
)

// testDialect renders double-quoted identifiers and upper-case type names.
type testDialect struct{ addClause string }

func (testDialect) Name() string { return "test" }

func (testDialect) MapType(t schema.DataType) string { return strings.ToUpper(t.String()) }

func (testDialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (d testDialect) AddColumnClause() string {
	if d.addClause == "" {
		return "ADD COLUMN"
	}
	return d.addClause
}

// TestBuildCreateTableSQL verifies that BuildCreateTableSQL generates the
// expected CREATE TABLE statements and surfaces appropriate errors for invalid
// inputs.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{FQN: "", Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "t"},
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "", SQLType: "INT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "column with empty type returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id", SQLType: " "}}},
			errContains: "missing SQLType",
		},
		{
			name:    "single column",
			def:     TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			wantSQL: "CREATE TABLE \"t\" (\n  \"id\" INT\n)",
		},
		{
			name: "column order is preserved and whitespace trimmed",
			def: TableDef{
				FQN: "  public.logs ",
				Columns: []ColumnDef{
					{Name: " b ", SQLType: " TEXT "},
					{Name: "a", SQLType: "BIGINT"},
				},
			},
			wantSQL: "CREATE TABLE \"public\".\"logs\" (\n  \"b\" TEXT,\n  \"a\" BIGINT\n)",
		},
		{
			name:    "embedded quotes are escaped",
			def:     TableDef{FQN: `we"ird`, Columns: []ColumnDef{{Name: `c"ol`, SQLType: "TEXT"}}},
			wantSQL: "CREATE TABLE \"we\"\"ird\" (\n  \"c\"\"ol\" TEXT\n)",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(testDialect{}, tc.def)
			if tc.errContains != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tc.errContains)
				}
				if !strings.Contains(err.Error(), tc.errContains) {
					t.Fatalf("error = %q, want substring %q", err, tc.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.wantSQL {
				t.Fatalf("SQL mismatch\n got: %q\nwant: %q", got, tc.wantSQL)
			}
		})
	}
}

func TestBuildAddColumnSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildAddColumnSQL(testDialect{}, "logs", ColumnDef{Name: "size", SQLType: "bigint"})
	if err != nil {
		t.Fatalf("BuildAddColumnSQL: %v", err)
	}
	if want := `ALTER TABLE "logs" ADD COLUMN "size" bigint`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got, err = BuildAddColumnSQL(testDialect{addClause: "ADD"}, "logs", ColumnDef{Name: "size", SQLType: "BIGINT"})
	if err != nil {
		t.Fatalf("BuildAddColumnSQL: %v", err)
	}
	if want := `ALTER TABLE "logs" ADD "size" BIGINT`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if _, err := BuildAddColumnSQL(testDialect{}, " ", ColumnDef{Name: "x", SQLType: "INT"}); err == nil {
		t.Fatalf("expected error for empty table")
	}
	if _, err := BuildAddColumnSQL(testDialect{}, "t", ColumnDef{Name: "x"}); err == nil {
		t.Fatalf("expected error for missing type")
	}
}

func TestFromTableSpec(t *testing.T) {
	t.Parallel()

	td := FromTableSpec(testDialect{}, schema.LogsTable("logs"))
	if td.FQN != "logs" {
		t.Fatalf("FQN = %q, want logs", td.FQN)
	}
	if len(td.Columns) != 10 {
		t.Fatalf("len(Columns) = %d, want 10", len(td.Columns))
	}
	if td.Columns[0].Name != "id" || td.Columns[0].SQLType != "ID" {
		t.Fatalf("first column = %+v, want id/ID", td.Columns[0])
	}
	if td.Columns[4].Name != "time" || td.Columns[4].SQLType != "DATE" {
		t.Fatalf("fifth column = %+v, want time/DATE", td.Columns[4])
	}
}
