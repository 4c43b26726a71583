// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. Importing it makes the following
// storage kinds available at runtime:
//
//   - "postgres" (internal/storage/postgres)
//   - "sqlite"   (internal/storage/sqlite)
//   - "mssql"    (internal/storage/mssql)
//   - "mysql"    (internal/storage/mysql)
//
// Typical usage (in cmd/logingest/main.go):
//
//	import _ "github.com/cetra3/apache-log/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn})
//
// A binary that supports only a subset of backends can import the backend
// packages it needs directly instead.
package all

import (
	_ "github.com/cetra3/apache-log/internal/storage/mssql"
	_ "github.com/cetra3/apache-log/internal/storage/mysql"
	_ "github.com/cetra3/apache-log/internal/storage/postgres"
	_ "github.com/cetra3/apache-log/internal/storage/sqlite"
)
