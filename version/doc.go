// Package version resolves the package version a preview is built for.
//
// A Source returns the raw version string; Parse enforces the strict
// MAJOR.MINOR.PATCH form the wheel filename and object key depend on.
package version
