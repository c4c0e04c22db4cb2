// Package common holds helpers shared by the daemon and the control CLI.
//
// It provides a lightweight gRPC client wrapper with timeouts and a helper to
// detect the current "user@host" actor for audit purposes.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
