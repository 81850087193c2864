package model

import "errors"

var (
	// ErrInvalidEvent is returned when an inbound socket event is malformed or missing a required field.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrUnauthenticated is returned when an action requiring a registered connection comes from an anonymous one.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrClientClosed is returned when sending to a connection that has already been closed.
	ErrClientClosed = errors.New("client closed")

	// ErrSendBufferFull is returned when a connection's outbound queue is full and the connection was dropped.
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrRegistryInconsistency signals a broken registry invariant. It should never be observed.
	ErrRegistryInconsistency = errors.New("registry inconsistency")

	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUsernameTaken is returned when registering with a username that already exists.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned when a login does not match any account.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized is returned when a user is not authorized.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when access to a resource is forbidden.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyFriends is returned when adding a friendship that already exists.
	ErrAlreadyFriends = errors.New("already friends")

	// ErrSelfFriendship is returned when a user tries to befriend themselves.
	ErrSelfFriendship = errors.New("cannot add yourself as a friend")

	// ErrChatNotFound is returned when a chat is not found.
	ErrChatNotFound = errors.New("chat not found")
)
