// Package catalog reconciles declared tables with the live database schema.
//
// Reconciliation is additive and idempotent: missing tables are created with
// every declared column, missing columns are added one ALTER at a time, and
// nothing is ever dropped or retyped. Columns present in the database but not
// declared are left alone. DDL is not transactional in every supported store,
// so a failure part-way leaves earlier statements applied; rerunning
// Reconcile picks up where it stopped.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cetra3/apache-log/internal/ddl"
	"github.com/cetra3/apache-log/internal/schema"
)

// Store is the part of storage.Repository the catalog uses.
type Store interface {
	Tables(ctx context.Context, schema string) ([]string, error)
	Columns(ctx context.Context, schema, table string) ([]string, error)
	Exec(ctx context.Context, sql string) error
	Dialect() ddl.Dialect
}

// SchemaError reports a failed introspection query or DDL statement.
// Statement is empty when introspection failed.
type SchemaError struct {
	Table     string
	Column    string
	Statement string
	Err       error
}

func (e *SchemaError) Error() string {
	switch {
	case e.Statement == "":
		return fmt.Sprintf("schema: inspect %s: %v", e.Table, e.Err)
	case e.Column != "":
		return fmt.Sprintf("schema: add column %s.%s: %v", e.Table, e.Column, e.Err)
	default:
		return fmt.Sprintf("schema: create table %s: %v", e.Table, e.Err)
	}
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Report lists the changes a Reconcile call applied.
type Report struct {
	Created []string // tables created
	Added   []string // columns added, as "table.column"
}

// Changed reports whether any DDL was issued.
func (r Report) Changed() bool { return len(r.Created) > 0 || len(r.Added) > 0 }

// Catalog reconciles declared TableSpecs against a Store.
type Catalog struct {
	store Store
	log   zerolog.Logger
}

// New returns a Catalog for store.
func New(store Store, logger zerolog.Logger) *Catalog {
	return &Catalog{
		store: store,
		log:   logger.With().Str("component", "catalog").Logger(),
	}
}

// Reconcile makes every declared table and column exist. It stops at the
// first failure and returns a *SchemaError together with the changes applied
// so far.
func (c *Catalog) Reconcile(ctx context.Context, tables ...schema.TableSpec) (Report, error) {
	var rep Report
	start := time.Now()
	d := c.store.Dialect()

	// Existing tables, keyed by schema qualifier ("" is the current schema).
	have := map[string]map[string]struct{}{}
	listed := func(schemaName string) (map[string]struct{}, error) {
		if set, ok := have[schemaName]; ok {
			return set, nil
		}
		names, err := c.store.Tables(ctx, schemaName)
		if err != nil {
			return nil, err
		}
		set := make(map[string]struct{}, len(names))
		for _, n := range names {
			set[n] = struct{}{}
		}
		have[schemaName] = set
		return set, nil
	}

	for _, spec := range tables {
		schemaName, local := splitName(spec.Name())
		set, err := listed(schemaName)
		if err != nil {
			return rep, &SchemaError{Table: spec.Name(), Err: err}
		}
		if _, ok := set[local]; ok {
			continue
		}
		stmt, err := ddl.BuildCreateTableSQL(d, ddl.FromTableSpec(d, spec))
		if err != nil {
			return rep, &SchemaError{Table: spec.Name(), Statement: "CREATE TABLE", Err: err}
		}
		if err := c.store.Exec(ctx, stmt); err != nil {
			return rep, &SchemaError{Table: spec.Name(), Statement: stmt, Err: err}
		}
		set[local] = struct{}{}
		rep.Created = append(rep.Created, spec.Name())
		c.log.Info().Str("table", spec.Name()).Msg("table created")
	}

	for _, spec := range tables {
		schemaName, local := splitName(spec.Name())
		cols, err := c.store.Columns(ctx, schemaName, local)
		if err != nil {
			return rep, &SchemaError{Table: spec.Name(), Err: err}
		}
		present := make(map[string]struct{}, len(cols))
		for _, col := range cols {
			present[col] = struct{}{}
		}

		for _, col := range spec.Columns() {
			if _, ok := present[col.Name]; ok {
				continue
			}
			stmt, err := ddl.BuildAddColumnSQL(d, spec.Name(), ddl.ColumnFromSpec(d, col))
			if err != nil {
				return rep, &SchemaError{Table: spec.Name(), Column: col.Name, Statement: "ALTER TABLE", Err: err}
			}
			if err := c.store.Exec(ctx, stmt); err != nil {
				return rep, &SchemaError{Table: spec.Name(), Column: col.Name, Statement: stmt, Err: err}
			}
			rep.Added = append(rep.Added, spec.Name()+"."+col.Name)
			c.log.Info().Str("table", spec.Name()).Str("column", col.Name).Msg("column added")
		}
	}

	c.log.Debug().
		Int("tables", len(tables)).
		Bool("changed", rep.Changed()).
		Dur("took", time.Since(start)).
		Msg("schema reconciled")
	return rep, nil
}

// splitName separates an optional schema qualifier from the table name.
// Everything before the last dot is the schema.
func splitName(table string) (schemaName, local string) {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		return table[:i], table[i+1:]
	}
	return "", table
}
