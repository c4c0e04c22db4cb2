// Package ctl implements the alarm-ctl commands.
//
// Set, Get, Clear and Check talk to a running daemon over gRPC. Register and
// Unregister edit the background task registry and the reboot autostart
// entry directly, so they work while the daemon is stopped.
package ctl
