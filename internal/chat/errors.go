package chat

import "errors"

var (
	// ErrNotAuthorized rejects a subscribe before the connection ever
	// reaches the Joined state.
	ErrNotAuthorized = errors.New("not authorized for room")

	// ErrConnectionClosed reports an operation on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrMailboxFull reports a dropped event on an overflowing mailbox.
	// The dispatcher counts these; they never abort a fan-out.
	ErrMailboxFull = errors.New("mailbox full, event dropped")
)
