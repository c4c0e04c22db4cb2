// Package config defines the settings shared by alarm-daemon and alarm-ctl and
// provides helpers to load, validate and save them in YAML format.
//
// Load starts from Default, so a file only needs the keys it changes.
package config
