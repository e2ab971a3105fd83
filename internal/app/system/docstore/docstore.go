// Package docstore owns the process-wide MongoDB connection.
//
// A Conn is created once by the bootstrap, connected on demand, shared by
// every store, and disconnected at shutdown. Connect is connect-or-reuse:
// concurrent callers block on the same attempt and all receive the same
// client.
package docstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Config describes how to reach the document store.
type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
}

// Conn is the connection handle. The zero value is not usable; call New.
type Conn struct {
	cfg Config
	log *zap.Logger

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

// New returns an unconnected handle.
func New(cfg Config, logger *zap.Logger) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conn{cfg: cfg, log: logger}
}

// Connect establishes the connection if it is not already up and verifies it
// with a ping. An empty URI returns apperr.ErrConfiguration.
func (c *Conn) Connect(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}
	if strings.TrimSpace(c.cfg.URI) == "" {
		return nil, fmt.Errorf("mongo_uri: %w", apperr.ErrConfiguration)
	}
	if c.cfg.Database == "" {
		return nil, fmt.Errorf("mongo_database: %w", apperr.ErrConfiguration)
	}

	opts := options.Client().ApplyURI(c.cfg.URI)
	if c.cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(c.cfg.MaxPoolSize)
	}
	if c.cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(c.cfg.MinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, apperr.Persistence("connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperr.Persistence("ping", err)
	}

	c.client = client
	c.db = client.Database(c.cfg.Database)
	c.log.Info("connected to MongoDB", zap.String("database", c.cfg.Database))
	return c.db, nil
}

// Connected reports whether Connect has succeeded.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db != nil
}

// Client returns the driver client, or nil before Connect succeeds.
func (c *Conn) Client() *mongo.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

// Database returns the app database, or nil before Connect succeeds.
func (c *Conn) Database() *mongo.Database {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db
}

// Disconnect tears the connection down. A later Connect reconnects.
func (c *Conn) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	c.db = nil
	return err
}
