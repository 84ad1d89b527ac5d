package metnet

import (
	"errors"
	"fmt"
	"strings"
)

// EntityKind identifies the kind of network entity referenced by an error.
type EntityKind string

// Entity kinds used in lookup and operation errors.
const (
	KindReaction   EntityKind = "reaction"
	KindMetabolite EntityKind = "metabolite"
	KindGene       EntityKind = "gene"
	KindModel      EntityKind = "model"
	KindDelta      EntityKind = "delta"
)

// NotFoundError reports that no entity matched a lookup query.
type NotFoundError struct {
	Kind      EntityKind
	ID        string
	Namespace string
}

func (e NotFoundError) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("%s %s not found in namespace %s", e.Kind, e.ID, e.Namespace)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// AmbiguousMatchError reports that more than one entity matched a lookup
// query. This indicates an inconsistency in the source model annotations and
// is never resolved silently.
type AmbiguousMatchError struct {
	Kind    EntityKind
	ID      string
	Matches []string
}

func (e AmbiguousMatchError) Error() string {
	return fmt.Sprintf("expected single %s for %s, found %s", e.Kind, e.ID, strings.Join(e.Matches, ", "))
}

// DuplicateIDError reports an attempt to insert an entity whose id is already
// present in the model.
type DuplicateIDError struct {
	Kind EntityKind
	ID   string
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.ID)
}

// InvalidInputError reports a malformed or underdetermined request.
type InvalidInputError struct {
	Reason string
}

func (e InvalidInputError) Error() string {
	return e.Reason
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
