package identity

import "errors"

var (
	// ErrInvalidCredential is returned when a bearer credential fails
	// verification or an authorization code cannot be exchanged. The cause
	// is logged server-side and never reaches the client.
	ErrInvalidCredential = errors.New("invalid or expired credential")

	// ErrMissingCredential is returned when a login request carries neither
	// a token nor an authorization code.
	ErrMissingCredential = errors.New("missing token or code")

	// ErrUserNotFound is returned when no member record exists for an email.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned by the repository on a duplicate email insert.
	ErrUserExists = errors.New("user already exists")

	// ErrSelfRoleChange is returned when a caller tries to change their own role.
	ErrSelfRoleChange = errors.New("cannot change own role")

	// ErrSuperadminImmutable is returned when the target of a role change
	// holds the top tier.
	ErrSuperadminImmutable = errors.New("cannot change a superadmin's role")

	// ErrInvalidRole is returned when the requested role is not assignable.
	ErrInvalidRole = errors.New("role must be user or admin")
)
