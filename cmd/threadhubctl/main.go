// Command threadhubctl is the operator tool for threadhub: schema setup,
// thread inspection, audit review and locally signed webhook deliveries.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/threadhub/internal/app/system/docstore"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "threadhubctl",
		Usage: "Operate a threadhub deployment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mongo-uri",
				Usage:   "MongoDB connection URI",
				Value:   "mongodb://localhost:27017",
				EnvVars: []string{"THREADHUB_MONGO_URI"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "MongoDB database name",
				Value:   "threadhub",
				EnvVars: []string{"THREADHUB_MONGO_DATABASE"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log driver and schema activity to stderr",
			},
		},
		Commands: []*cli.Command{
			SchemaCommand(),
			ThreadsCommand(),
			WebhookCommand(),
			AuditCommand(),
		},
	}
}

func newLogger(c *cli.Context) *zap.Logger {
	if !c.Bool("verbose") {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// connect opens the database named by the global flags. The returned func
// disconnects.
func connect(c *cli.Context) (*mongo.Database, func(), error) {
	logger := newLogger(c)
	conn := docstore.New(docstore.Config{
		URI:      c.String("mongo-uri"),
		Database: c.String("db"),
	}, logger)

	ctx, cancel := context.WithTimeout(c.Context, timeouts.Ping())
	defer cancel()
	db, err := conn.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	closeFn := func() {
		_ = conn.Disconnect(context.Background())
		_ = logger.Sync()
	}
	return db, closeFn, nil
}
