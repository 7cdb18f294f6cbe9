package repo

import "errors"

var (
	// ErrNotFound means the requested record does not exist (or is not visible).
	ErrNotFound = errors.New("not found")

	// ErrNotAuthor means the caller is not the author of the post it tried to mutate.
	ErrNotAuthor = errors.New("not the author")

	// ErrAlreadyDeleted means the post was already soft-deleted.
	ErrAlreadyDeleted = errors.New("already deleted")

	// ErrDuplicateEmail means the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateSlug means another post already owns the derived slug.
	ErrDuplicateSlug = errors.New("slug already in use")
)
