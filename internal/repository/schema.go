package repository

import (
	"context"
	_ "embed"
	"log/slog"

	"github.com/forgo/ascend/api/internal/database"
)

//go:embed schema.surql
var schema string

// EnsureSchema defines the tables and indexes the repositories rely on.
// Every statement is idempotent, so it runs on each startup.
func EnsureSchema(ctx context.Context, db database.Database) error {
	if err := db.Execute(ctx, schema, nil); err != nil {
		return err
	}
	slog.Debug("schema ensured")
	return nil
}
