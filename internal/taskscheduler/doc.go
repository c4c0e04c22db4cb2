// Package taskscheduler runs named periodic background tasks the way a mobile
// OS background-fetch facility does.
//
// A task is defined (bound to a handler) and registered (given options)
// separately. Registrations that persist across restarts are kept in a YAML
// registry and restored on the next start; tasks that should run after a
// reboot get a login autostart entry. Each run reports a FetchResult, and the
// scheduler backs off after failures.
package taskscheduler
