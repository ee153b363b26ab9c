package errs

import (
	"errors"
	"fmt"
)

var (
	ErrPointOnly     = errors.New("orm: only pointers to structs are supported")
	ErrNoRows        = errors.New("orm: no rows in result set")
	ErrInsertZeroRow = errors.New("orm: insert zero rows")
	// ErrPoolTimeout 连接池在超时时间内没有可用连接
	ErrPoolTimeout = errors.New("orm: timed out waiting for a pooled connection")
)

func NewUnsupportedExpression(expr any) error {
	return fmt.Errorf("orm: unsupported expression %v", expr)
}

func NewUnknownField(expr any) error {
	return fmt.Errorf("orm: unknown field %s", expr)
}

func NewUnknownColumn(expr any) error {
	return fmt.Errorf("orm: unknown column %s", expr)
}

func NewErrInvalidTagContext(pair string) error {
	return fmt.Errorf("orm: invalid tag %s", pair)
}

func NewErrUnsupportedSelectable(col any) error {
	return fmt.Errorf("orm: unsupported selectable %v", col)
}

func NewErrFailedToRollbackTx(bizErr error, rbErr error, panicked bool) error {
	return fmt.Errorf("orm: failed to roll back transaction, business error: %w. rollback error: %s. panicked: %t", bizErr, rbErr, panicked)
}

func NewErrPoolTimeout(cause error) error {
	return fmt.Errorf("%w: %w", ErrPoolTimeout, cause)
}
