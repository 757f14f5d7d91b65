// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors. For example,
// ErrIntegrityViolation signals that a write referenced a genre, director
// or rating that does not exist, while ErrStoreUnavailable marks a
// transient access failure.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when an identifier has no matching row.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrIntegrityViolation is returned when a write would violate a
// relational constraint, such as referencing a missing genre id. The
// write is aborted and nothing is committed. Handlers should translate
// this into an HTTP 409 response.
var ErrIntegrityViolation = errors.New("integrity violation")

// ErrStoreUnavailable is returned when the store cannot be reached or the
// request deadline expired while talking to it.
var ErrStoreUnavailable = errors.New("store unavailable")

// MySQL server error numbers mapped onto ErrIntegrityViolation.
const (
	mysqlDupEntry         = 1062
	mysqlNoReferencedRow  = 1216
	mysqlRowIsReferenced  = 1217
	mysqlRowIsReferenced2 = 1451
	mysqlNoReferencedRow2 = 1452
	mysqlCheckViolated    = 3819
)

// classify wraps driver level errors into the package sentinels. Errors
// that are already sentinels, or that are not recognised, pass through
// unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrIntegrityViolation) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDupEntry, mysqlNoReferencedRow, mysqlRowIsReferenced,
			mysqlRowIsReferenced2, mysqlNoReferencedRow2, mysqlCheckViolated:
			return fmt.Errorf("%w: %s", ErrIntegrityViolation, me.Message)
		}
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// isDuplicate reports whether err is a MySQL duplicate-key error.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}
