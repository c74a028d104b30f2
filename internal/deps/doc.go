// Package deps reports whether the platform commands AppDeck shells out to
// are installed.
package deps
