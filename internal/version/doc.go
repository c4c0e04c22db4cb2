// Package version exposes build metadata: the release, commit and build time
// injected via ldflags, the version subcommand and the gRPC user agent.
package version
