// Package log builds the slog loggers used across wantedanchors.
//
// Every logger is wrapped in a SecureHandler so that wiki credentials
// (session cookies, login passwords, API tokens) passed to the API renderer
// never end up in log output.
package log
