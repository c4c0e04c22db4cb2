// Package daemon runs the alarm clock: it owns the time store, the trigger
// watcher and the alert emitter, and exposes them over gRPC.
package daemon
