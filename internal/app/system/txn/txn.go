// Package txn runs multi-document writes atomically where the deployment
// allows it.
//
// Replica sets and sharded clusters get a real transaction. Standalone
// servers (typical in development) reject transactions; there the steps run
// sequentially and, when one fails, the Undo of every step that already
// succeeded runs in reverse order. Undo is best effort and only logged.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Step is one write in a multi-document change.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error // optional compensation for the sequential path
}

// Run executes steps in order. Inside a transaction every Do receives the
// session context, so the store calls join the transaction.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, steps ...Step) error {
	if log == nil {
		log = zap.NewNop()
	}
	if client == nil {
		return runSequential(ctx, log, steps)
	}

	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return runSequential(ctx, log, steps)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, s := range steps {
			if err := s.Do(sc); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil && IsNotSupported(err) {
		log.Debug("transactions unsupported; running steps sequentially", zap.Error(err))
		return runSequential(ctx, log, steps)
	}
	return err
}

func runSequential(ctx context.Context, log *zap.Logger, steps []Step) error {
	for i, s := range steps {
		if err := s.Do(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if steps[j].Undo == nil {
					continue
				}
				if uerr := steps[j].Undo(ctx); uerr != nil {
					log.Error("compensating write failed; manual reconciliation needed",
						zap.String("step", steps[j].Name),
						zap.String("failed_step", s.Name),
						zap.Error(uerr))
				} else {
					log.Warn("compensated partial write",
						zap.String("step", steps[j].Name),
						zap.String("failed_step", s.Name))
				}
			}
			return err
		}
	}
	return nil
}

// IsNotSupported reports whether err says the server cannot run a
// transaction (standalone mongod, or an operation illegal inside one).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	s := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(s, kw) {
			hits++
		}
	}
	return hits >= 2
}
