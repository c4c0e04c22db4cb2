// Package logger wraps zap with a shared console logger and context helpers.
//
// Services take a context and log through it: WithName scopes entries to a
// component and WithKV attaches fields such as a watcher cycle id, so they
// travel with every entry written further down the call chain. The shared
// atomic level is set from the log_level setting.
package logger
