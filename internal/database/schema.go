package database

import _ "embed"

// Schema is the flattened database schema, regenerated from the migration
// files. Tests apply it directly instead of running migrations.
//
//go:embed schema.sql
var Schema string
