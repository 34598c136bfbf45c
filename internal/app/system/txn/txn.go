// Package txn runs multi-document writes in a MongoDB transaction.
//
// Standalone servers do not support transactions. When the server reports
// that, Run executes the function directly so development setups keep
// working; uniqueness guarantees still come from indexes.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction. The ctx passed to fn carries the
// session; every store call inside fn must use it.
func Run(ctx context.Context, db *mongo.Database, logger *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			logFallback(logger, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	if err != nil && IsNotSupported(err) {
		logFallback(logger, err)
		return fn(ctx)
	}
	return err
}

func logFallback(logger *zap.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Debug("transactions not supported; running without", zap.Error(err))
}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if ce.HasErrorLabel("TransientTransactionError") || ce.HasErrorLabel("UnknownTransactionCommitResult") {
			return false
		}
		switch ce.Code {
		case 20, // IllegalOperation: transaction numbers on a standalone
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("only allowed on a replica set"):
		return true
	case has("does not support sessions"):
		return true
	case has("transactions are not supported"):
		return true
	}
	return false
}
