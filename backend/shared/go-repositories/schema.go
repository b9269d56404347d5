package repositories

import (
	"context"
	_ "embed"
)

// SchemaSQL creates every table the repositories use.
//
//go:embed schema.sql
var SchemaSQL string

// ApplySchema runs SchemaSQL against db. Safe to call repeatedly.
func ApplySchema(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, SchemaSQL)
	return classify(err)
}
