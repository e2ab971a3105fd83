package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dalemusser/threadhub/internal/app/services/threadsvc"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// ThreadsCommand returns the threads command
func ThreadsCommand() *cli.Command {
	return &cli.Command{
		Name:  "threads",
		Usage: "Inspect threads",
		Subcommands: []*cli.Command{
			{
				Name:  "tree",
				Usage: "Print a thread and its replies as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Thread id (ObjectID hex)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "depth",
						Usage: "Levels of replies to include (-1 for the whole tree)",
						Value: -1,
					},
				},
				Action: runThreadsTree,
			},
		},
	}
}

func runThreadsTree(c *cli.Context) error {
	db, done, err := connect(c)
	if err != nil {
		return err
	}
	defer done()

	svc := threadsvc.New(db, threadsvc.Config{DefaultDepth: threadsvc.DefaultDepth}, zap.NewNop())
	ctx, cancel := context.WithTimeout(c.Context, timeouts.Medium())
	defer cancel()
	node, err := svc.FetchThreadTree(ctx, c.String("id"), c.Int("depth"))
	if err != nil {
		return fmt.Errorf("fetch thread: %w", err)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(node)
}
