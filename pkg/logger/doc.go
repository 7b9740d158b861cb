// Package logger builds the structured slog logger shared by the poller,
// the HTTP front-end and the CLI. Development environments get a text
// handler, production gets JSON.
package logger
