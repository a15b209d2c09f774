package cli

import (
	"fmt"

	"lawcode-cli/internal/editor"
	"lawcode-cli/internal/model"
)

// notFoundError reports an id that is not in the loaded tree. It matches editor.ErrNotFound.
type notFoundError struct {
	kind model.Kind
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s %q is not in the tree", e.kind, e.id)
}

func (e notFoundError) Unwrap() error { return editor.ErrNotFound }

func errNotFound(kind model.Kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type flagConflictError struct {
	a, b string
}

func (e flagConflictError) Error() string {
	return fmt.Sprintf("--%s and --%s are mutually exclusive; pass exactly one", e.a, e.b)
}

func errFlagConflict(a, b string) error {
	return flagConflictError{a: a, b: b}
}
