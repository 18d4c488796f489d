package zensegur

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecipe = errors.New("invalid recipe")
)

type ErrorKind int

const (
	KindConnection ErrorKind = iota + 1
	KindRead
	KindWrite
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	default:
		return "unknown"
	}
}

// OpError carries the driver error untouched; the message is whatever the driver said.
type OpError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func connectionError(op string, err error) error {
	return &OpError{Kind: KindConnection, Op: op, Err: err}
}

func readError(op string, err error) error {
	return &OpError{Kind: KindRead, Op: op, Err: err}
}

func writeError(op string, err error) error {
	return &OpError{Kind: KindWrite, Op: op, Err: err}
}

func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	return errors.As(err, &oe) && oe.Kind == kind
}

// FatalError stops the workflow. The caller still owns cleanup.
type FatalError struct {
	Step string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
