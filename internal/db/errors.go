package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
)

// Op names used for error context. Redis ops use command names.
const (
	OpGet     = "GET"
	OpSet     = "SET"
	OpPing    = "PING"
	OpOpen    = "OPEN"
	OpMigrate = "MIGRATE"
	OpAcquire = "ACQUIRE"
	OpQuery   = "QUERY"
	OpExec    = "EXEC"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
