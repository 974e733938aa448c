package annotation

import "errors"

// Grammar validation errors.
// They are returned wrapped with the offending value; use errors.Is to test.
var (
	// ErrNoKind is returned when a grammar has no kind name.
	ErrNoKind = errors.New("grammar has no kind")

	// ErrNoTags is returned when a grammar declares no tags.
	ErrNoTags = errors.New("grammar declares no tags")

	// ErrEmptyToken is returned when a tag has an empty token.
	ErrEmptyToken = errors.New("tag token is empty")

	// ErrEmptyKey is returned when a tag has an empty key.
	ErrEmptyKey = errors.New("tag key is empty")

	// ErrDuplicateToken is returned when two tags share a token.
	ErrDuplicateToken = errors.New("duplicate tag token")

	// ErrDuplicateKey is returned when two tags share a key.
	ErrDuplicateKey = errors.New("duplicate tag key")

	// ErrNameTag is returned when a grammar does not have exactly one name tag.
	ErrNameTag = errors.New("grammar must declare exactly one name tag")

	// ErrMultipleName is returned when the name tag is declared multi-value.
	ErrMultipleName = errors.New("name tag cannot be multi-value")

	// ErrUnknownRole is returned for a tag role that is not recognized.
	ErrUnknownRole = errors.New("unknown tag role")

	// ErrDuplicateRole is returned when a display role is used by two tags.
	ErrDuplicateRole = errors.New("duplicate tag role")

	// ErrEmptyCommentPrefix is returned when a comment prefix is blank.
	ErrEmptyCommentPrefix = errors.New("comment prefix is empty")

	// ErrUnknownKind is returned when a built-in grammar does not exist.
	ErrUnknownKind = errors.New("unknown annotation kind")
)
