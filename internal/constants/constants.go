package constants

// Context keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyIdentity = "identity"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Validation limits
const (
	MaxRoomNameLength    = 255
	MaxDestinationLength = 255
	// MaxDescriptionLength bounds free text carried in room events, which
	// must fit a Postgres NOTIFY payload.
	MaxDescriptionLength = 1000
)
