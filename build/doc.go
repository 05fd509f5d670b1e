// Package build runs the UI and wheel build commands and locates the
// resulting wheel.
package build
