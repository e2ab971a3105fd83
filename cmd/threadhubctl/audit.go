package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dalemusser/threadhub/internal/app/store/audit"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/urfave/cli/v2"
)

// AuditCommand returns the audit command
func AuditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Review recorded webhook deliveries",
		Subcommands: []*cli.Command{
			{
				Name:  "recent",
				Usage: "Print the most recent audit events as JSON lines",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "limit",
						Usage: "Number of events",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "org",
						Usage: "Only events for this organization id",
					},
				},
				Action: runAuditRecent,
			},
		},
	}
}

func runAuditRecent(c *cli.Context) error {
	db, done, err := connect(c)
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(c.Context, timeouts.Medium())
	defer cancel()

	store := audit.New(db)
	var events []audit.Event
	if org := c.String("org"); org != "" {
		events, err = store.Query(ctx, audit.QueryFilter{OrgID: org, Limit: c.Int64("limit")})
	} else {
		events, err = store.GetRecent(ctx, c.Int64("limit"))
	}
	if err != nil {
		return fmt.Errorf("query audit events: %w", err)
	}

	enc := json.NewEncoder(c.App.Writer)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
