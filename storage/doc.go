// Package storage publishes build artifacts to object storage.
//
// Objects are keyed by commit SHA so every pushed commit of a pull request
// gets its own immutable wheel URL:
//
//	<sha>/<package>-<version>-py3-none-any.whl
package storage
