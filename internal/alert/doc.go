// Package alert emits the alarm: a spoken phrase, a desktop notification and
// optionally a chime.
//
// Every channel is best-effort. A failing or panicking channel is logged and
// never prevents the remaining channels, nor the clearing of the alarm that
// follows Fire.
package alert
