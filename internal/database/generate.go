package database

// This file documents code generation for the database package.
//
// To regenerate the flattened schema from migrations:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
