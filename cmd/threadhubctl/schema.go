package main

import (
	"context"
	"fmt"

	"github.com/dalemusser/threadhub/internal/app/system/indexes"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/app/system/validators"
	"github.com/urfave/cli/v2"
)

// SchemaCommand returns the schema command
func SchemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Manage collections, indexes and validators",
		Subcommands: []*cli.Command{
			{
				Name:   "ensure",
				Usage:  "Create or reconcile indexes and validators (idempotent)",
				Action: runSchemaEnsure,
			},
		},
	}
}

func runSchemaEnsure(c *cli.Context) error {
	db, done, err := connect(c)
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(c.Context, timeouts.Long())
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Schema is up to date in %s\n", db.Name())
	return nil
}
