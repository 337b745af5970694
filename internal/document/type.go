package document

import "strings"

// Type identifies the kind of a document. It is always the last segment of
// the document's collection path.
type Type string

const (
	TypeAccount Type = "account"
	TypeProject Type = "project"
)

type capabilities struct {
	deletable bool
}

var types = map[Type]capabilities{
	// Accounts are locked, never hard-deleted.
	TypeAccount: {deletable: false},
	TypeProject: {deletable: true},
}

// TypeFromPath derives the document type from a collection path.
func TypeFromPath(path string) Type {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	return Type(segments[len(segments)-1])
}

// Valid reports whether t is a known document type.
func (t Type) Valid() bool {
	_, ok := types[t]
	return ok
}

// Deletable reports whether documents of type t may be removed.
func (t Type) Deletable() bool {
	return types[t].deletable
}

func (t Type) String() string { return string(t) }
