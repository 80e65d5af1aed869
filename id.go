package chronographer

import (
	"github.com/google/uuid"
)

// TaskIdentifier is an opaque, globally unique handle for a registered task.
// Zero value is never produced by a factory and is reserved for "no id".
type TaskIdentifier struct {
	value uuid.UUID
}

func (id TaskIdentifier) String() string {
	return id.value.String()
}

// IsZero reports whether id is the zero TaskIdentifier.
func (id TaskIdentifier) IsZero() bool {
	return id.value == uuid.Nil
}

// IdentifierFactory generates opaque task identifiers on store insertion.
type IdentifierFactory interface {
	Generate() TaskIdentifier
}

// UUIDIdentifierFactory is the default IdentifierFactory, backed by
// RFC 4122 version 4 UUIDs.
type UUIDIdentifierFactory struct{}

func (UUIDIdentifierFactory) Generate() TaskIdentifier {
	return TaskIdentifier{value: uuid.New()}
}
