package schema

import (
	"strings"
	"testing"
)

func TestNewTableSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		table       string
		cols        []ColumnSpec
		errContains string
	}{
		{
			name:  "valid",
			table: "t",
			cols:  []ColumnSpec{{Name: "a", Type: Long}, {Name: "b", Type: Text}},
		},
		{
			name:        "empty table name",
			table:       "  ",
			cols:        []ColumnSpec{{Name: "a", Type: Long}},
			errContains: "table name must not be empty",
		},
		{
			name:        "no columns",
			table:       "t",
			errContains: "at least one column",
		},
		{
			name:        "empty column name",
			table:       "t",
			cols:        []ColumnSpec{{Name: "", Type: Long}},
			errContains: "column with empty name",
		},
		{
			name:        "duplicate column differs only in case",
			table:       "t",
			cols:        []ColumnSpec{{Name: "a", Type: Long}, {Name: "A", Type: Text}},
			errContains: "duplicate column",
		},
		{
			name:        "unknown type",
			table:       "t",
			cols:        []ColumnSpec{{Name: "a", Type: DataType(99)}},
			errContains: "unknown type",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewTableSpec(tc.table, tc.cols...)
			if tc.errContains == "" {
				if err != nil {
					t.Fatalf("NewTableSpec: unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errContains) {
				t.Fatalf("NewTableSpec error = %v, want containing %q", err, tc.errContains)
			}
		})
	}
}

func TestLogsTable(t *testing.T) {
	t.Parallel()

	tbl := LogsTable("logs")
	if tbl.Name() != "logs" {
		t.Fatalf("Name() = %q, want logs", tbl.Name())
	}
	cols := tbl.Columns()
	if len(cols) != 10 {
		t.Fatalf("len(Columns()) = %d, want 10", len(cols))
	}
	want := map[string]DataType{
		"id": ID, "ip_address": String, "identd": String, "username": String,
		"time": Date, "request": Text, "status_code": Long, "size": Long,
		"referrer": URL, "user_agent": Text,
	}
	for name, typ := range want {
		c, ok := tbl.Column(name)
		if !ok {
			t.Fatalf("column %s missing", name)
		}
		if c.Type != typ {
			t.Fatalf("column %s type = %v, want %v", name, c.Type, typ)
		}
	}

	// Columns returns a copy.
	cols[0].Name = "mutated"
	if tbl.Columns()[0].Name != "id" {
		t.Fatalf("Columns() exposed internal slice")
	}
}

func TestDataTypes_Complete(t *testing.T) {
	t.Parallel()

	all := DataTypes()
	if len(all) != 10 {
		t.Fatalf("len(DataTypes()) = %d, want 10", len(all))
	}
	for _, dt := range all {
		if !dt.Valid() {
			t.Fatalf("%v not valid", dt)
		}
		if strings.HasPrefix(dt.String(), "DataType(") {
			t.Fatalf("%d has no name", int(dt))
		}
	}
	if DataType(-1).Valid() {
		t.Fatalf("DataType(-1) reported valid")
	}
}

func TestDataType_Width(t *testing.T) {
	t.Parallel()

	for _, dt := range DataTypes() {
		want := 0
		switch dt {
		case URL:
			want = 2083
		case String:
			want = 255
		}
		if got := dt.Width(); got != want {
			t.Fatalf("%v.Width() = %d, want %d", dt, got, want)
		}
	}
}
