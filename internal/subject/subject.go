// Package subject defines the uniform reference to any entity that can
// receive reactions, comments or an accepted answer.
package subject

import (
	"fmt"
	"strings"
)

// Type names the kind of entity a Ref points at.
type Type string

const (
	TypeQuestion Type = "question"
	TypeAnswer   Type = "answer"
	TypeSolution Type = "solution"
)

// ParseType maps a wire string onto a known subject type.
func ParseType(s string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeQuestion:
		return TypeQuestion, true
	case TypeAnswer:
		return TypeAnswer, true
	case TypeSolution:
		return TypeSolution, true
	}
	return "", false
}

// Ref identifies one likable/commentable entity. Immutable value type;
// resolved to the concrete row only at the boundaries that need it.
type Ref struct {
	Type Type  `json:"subject_type"`
	ID   int64 `json:"subject_id"`
}

func (r Ref) Valid() bool {
	_, ok := ParseType(string(r.Type))
	return ok && r.ID > 0
}

// Tag is the cache tag shared by every derived entry for this subject.
func (r Ref) Tag() string {
	return fmt.Sprintf("subject:%s:%d", r.Type, r.ID)
}

// Channel is the subject-scoped broadcast channel name.
func (r Ref) Channel() string {
	return fmt.Sprintf("private-%s.%d", r.Type, r.ID)
}

// CollectionChannel names a collection-wide broadcast channel,
// e.g. CollectionChannel("questions") for new-question events.
func CollectionChannel(collection string) string {
	return "private-" + collection
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%d", r.Type, r.ID)
}
