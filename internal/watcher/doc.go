// Package watcher detects when the pending alarm becomes due and fires it once.
//
// Cycle is one read/decide/fire/clear pass. It is driven either by Poller, a
// foreground loop that lives as long as its context, or by BackgroundTask,
// which hands Cycle to a task scheduler. Detection latency is bounded by the
// driving interval: an alarm for T fires at a check time in [T, T+interval).
package watcher
