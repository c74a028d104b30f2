// Package logging builds the slog loggers AppDeck writes through: a
// single-line console format, a JSON format, component tagging and scan id
// correlation.
package logging
