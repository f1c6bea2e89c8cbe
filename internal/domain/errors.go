package domain

import "errors"

// ErrorKind is the closed set of failure categories. Transport layers map a
// kind to an HTTP status or a websocket error event; nothing else inspects it.
type ErrorKind int

const (
	KindAuth ErrorKind = iota + 1
	KindValidation
	KindNotFound
	KindForbidden
	KindPersistence
)

// Error carries a kind, a stable machine code and a client-safe message.
// The wrapped cause (if any) stays server-side.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func E(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause to a taxonomy error without leaking it to clients.
func Wrap(kind ErrorKind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

// KindOf extracts the kind from err, or KindPersistence for anything outside
// the taxonomy (unknown faults are reported as generic storage failures).
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// CodeOf extracts the machine code from err, or "INTERNAL".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}

// MessageOf extracts the client-safe message from err. Errors outside the
// taxonomy never expose their text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong"
}

// Auth failures, fatal to the connection or request.
var (
	ErrNoToken      = E(KindAuth, "NO_TOKEN", "No token provided")
	ErrInvalidToken = E(KindAuth, "INVALID_TOKEN", "Invalid or expired token")
	ErrUnknownUser  = E(KindAuth, "UNKNOWN_USER", "User not found")
)

// Reported to the caller only, never broadcast.
var (
	ErrRoomNotFound    = E(KindNotFound, "ROOM_NOT_FOUND", "Room not found")
	ErrMessageNotFound = E(KindNotFound, "MESSAGE_NOT_FOUND", "Message not found")
	ErrRoomForbidden   = E(KindForbidden, "ROOM_FORBIDDEN", "You don't have permission to join this room")
	ErrNotMessageOwner = E(KindForbidden, "NOT_MESSAGE_OWNER", "You can only modify your own messages")
	ErrNotAMember      = E(KindValidation, "NOT_A_MEMBER", "You are not a member of this room")
)
