// Package errors turns pipeline failures into user-facing CLI errors.
//
// Core types:
//   - CLIError: Wraps errors with message, suggestion, and details
//   - ErrorMessenger: Interface for customizing error messages
//
// Sentinel errors for common scenarios:
//   - ErrNotAuthenticated: Token missing or rejected
//   - ErrSessionExpired: Token has expired
//   - ErrMissingSecret: Required secret env var is unset
//   - ErrNotInGitRepo: Command requires a git repository
//   - ErrConnectionFailed: Remote service is unreachable
//   - ErrPermissionDenied: Insufficient permissions
//
// Example usage:
//
//	if err := deployer.Deploy(ctx, target, dir); err != nil {
//	    return errors.Explain(err, "Hugging Face Hub", hubURL)
//	}
package errors
