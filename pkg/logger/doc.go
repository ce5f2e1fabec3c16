// Package logger builds the service's slog.Logger.
//
// New applies functional options (format, level, static attributes) and
// wraps the handler so registered ContextExtractor callbacks can inject
// request-scoped attributes, such as the current school, on every log call.
// Attribute constructors in attr.go keep key names consistent across the
// codebase.
package logger
