// Package alarm contains the core domain types of the alarm trigger lifecycle.
//
// A PendingAlarm is the single armed timestamp. Decide is the pure rule a
// watcher cycle applies to it: fire once now has reached the trigger time,
// otherwise do nothing. FetchResult is what a cycle reports back to whoever
// scheduled it.
package alarm
