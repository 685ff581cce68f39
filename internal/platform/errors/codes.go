// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Comment rule errors
	CodeCommentAlreadyExists Code = "COMMENT_ALREADY_EXISTS"
	CodeCommentMissing       Code = "COMMENT_MISSING"
	CodeCommentDeleted       Code = "COMMENT_DELETED"

	// Event log errors
	CodeEventInvalid       Code = "EVENT_INVALID"
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"
	CodeDataCorruption     Code = "DATA_CORRUPTION"

	// Projection errors
	CodeProjectionApplyFailure Code = "PROJECTION_APPLY_FAILURE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Query errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

// Category groups codes by failure class so callers can branch on the class
// without enumerating every code.
type Category string

const (
	// CategoryBusinessRule marks an aggregate invariant rejection; the log and
	// all derived state are untouched.
	CategoryBusinessRule Category = "business_rule"
	// CategoryPersistence marks a failed durable write; nothing was committed
	// and the whole operation is safe to retry.
	CategoryPersistence Category = "persistence"
	// CategoryProjectionApply marks a read-model apply failure for an event
	// that is already durable; the projection is recoverable by rebuild.
	CategoryProjectionApply Category = "projection_apply"
	// CategoryDataCorruption marks an unreadable stored record.
	CategoryDataCorruption Category = "data_corruption"
	// CategoryInvalidArgument marks malformed input to an operation.
	CategoryInvalidArgument Category = "invalid_argument"
	// CategoryNotFound marks a missing record.
	CategoryNotFound Category = "not_found"
	// CategoryInternal marks everything else.
	CategoryInternal Category = "internal"
)

// Category maps a code to its failure class.
func (c Code) Category() Category {
	switch c {
	case CodeCommentAlreadyExists,
		CodeCommentMissing,
		CodeCommentDeleted:
		return CategoryBusinessRule

	case CodePersistenceFailure:
		return CategoryPersistence

	case CodeProjectionApplyFailure:
		return CategoryProjectionApply

	case CodeDataCorruption:
		return CategoryDataCorruption

	case CodeEventInvalid,
		CodeInvalidArgument:
		return CategoryInvalidArgument

	case CodeNotFound:
		return CategoryNotFound

	default:
		return CategoryInternal
	}
}
