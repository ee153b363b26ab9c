package scope

import (
	"errors"
	"fmt"
)

// OperationType 决定一次工作单元使用读库还是写库
type OperationType string

const (
	OpRead  OperationType = "read"
	OpWrite OperationType = "write"
)

var (
	ErrInvalidOperationType = errors.New("scope: operation type must be read or write")
	ErrNoSessionFactory     = errors.New("scope: no session factory for operation type")
	ErrUnboundModel         = errors.New("scope: entity base is not bound to any engine")
	ErrEngineDisposed       = errors.New("scope: engine has been disposed")
	ErrSessionReleased      = errors.New("scope: session has been released")
)

// ParseOperationType 空串默认是 write
func ParseOperationType(s string) (OperationType, error) {
	switch OperationType(s) {
	case "":
		return OpWrite, nil
	case OpRead, OpWrite:
		return OperationType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOperationType, s)
}

func (o OperationType) String() string {
	return string(o)
}

// State 会话的生命周期
// Unopened -> Acquired -> Committed | RolledBack -> Released
type State uint8

const (
	StateUnopened State = iota
	StateAcquired
	StateCommitted
	StateRolledBack
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateAcquired:
		return "acquired"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled back"
	case StateReleased:
		return "released"
	}
	return "unknown"
}
