// Package migration applies the embedded SQL schema migrations for the
// brokerage sqlite database. Migration files follow the naming convention
// {version}_{description}.sql and are executed once each, in version order,
// inside individual transactions tracked by the schema_migrations table.
package migration
