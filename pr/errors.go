package pr

import "errors"

// PR provider errors
var (
	// ErrNoProvider indicates no PR provider is configured.
	ErrNoProvider = errors.New("no PR provider configured")

	// ErrUnknownProvider indicates the git remote uses an unknown provider.
	ErrUnknownProvider = errors.New("unknown git provider")

	// ErrNotFound indicates the PR does not exist.
	ErrNotFound = errors.New("pull request not found")

	// ErrCommentNotFound indicates the comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrForbidden indicates the token cannot comment on the PR.
	ErrForbidden = errors.New("insufficient permissions for pull request")
)
