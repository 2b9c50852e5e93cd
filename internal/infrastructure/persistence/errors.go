package persistence

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes and classes used for classification
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgClassIntegrity       = "23"
	pgClassConnection      = "08"
)

// translateError maps a driver or gorm error to a DomainError. Domain errors pass
// through unchanged; a missing row becomes NOT_FOUND for entityType/id.
func translateError(err error, entityType, id string) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(entityType, id)
	}
	return classify(err)
}

// classify turns a storage failure into a PERSISTENCE error, marking transient causes
// retryable: serialization failures, deadlocks, lock timeouts and lost connections.
// Constraint violations are not retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if code, ok := sqlState(err); ok {
		switch {
		case code == pgSerializationFailure, code == pgDeadlockDetected, code == pgLockNotAvailable:
			return shared.NewPersistenceError(shared.CodeTransientFailure, err, true)
		case strings.HasPrefix(code, pgClassIntegrity):
			return shared.NewPersistenceError(shared.CodeConstraintViolation, err, false)
		case strings.HasPrefix(code, pgClassConnection):
			return shared.NewPersistenceError(shared.CodeTransientFailure, err, true)
		}
		return shared.NewPersistenceError(shared.CodePersistenceFailure, err, false)
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return shared.NewPersistenceError(shared.CodeConstraintViolation, err, false)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, context.DeadlineExceeded):
		return shared.NewPersistenceError(shared.CodeTransientFailure, err, true)
	}
	// sqlite reports constraint failures and lock contention only in the message
	msg := err.Error()
	switch {
	case strings.Contains(msg, "constraint failed"):
		return shared.NewPersistenceError(shared.CodeConstraintViolation, err, false)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "database table is locked"):
		return shared.NewPersistenceError(shared.CodeTransientFailure, err, true)
	}
	return shared.NewPersistenceError(shared.CodePersistenceFailure, err, false)
}

// sqlState extracts the SQLSTATE from either postgres driver in use: pgx under gorm,
// lib/pq under golang-migrate
func sqlState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	return "", false
}

func concurrentModification(entityType, id string) error {
	return shared.NewConcurrentModificationError(entityType, id)
}
