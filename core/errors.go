package core

import (
	"errors"
	"fmt"
)

// Contract violations are programming errors at the call site. They are
// returned immediately and never retried.
var (
	ErrContractViolation = errors.New("contract violation")
	ErrMissingRadius     = fmt.Errorf("%w: search radius is required", ErrContractViolation)
	ErrInvalidContainer  = fmt.Errorf("%w: a node and an edge surface are required", ErrContractViolation)
	ErrUnknownEntity     = errors.New("unknown entity")
)

// EntityKind names the kind of entity an error refers to.
type EntityKind string

const (
	KindNode EntityKind = "node"
	KindEdge EntityKind = "edge"
)

// UnknownEntityError reports an operation that referenced an id absent from
// the identity index. Callers must reconcile before updating.
type UnknownEntityError struct {
	Kind EntityKind
	ID   string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("no %s with id %q", e.Kind, e.ID)
}

// Is lets errors.Is match ErrUnknownEntity.
func (e *UnknownEntityError) Is(target error) bool {
	return target == ErrUnknownEntity
}
