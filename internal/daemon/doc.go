// Package daemon keeps a live catalog for AppDeck clients.
//
// The daemon holds the only lock on the data directory, performs an initial
// scan at startup, refreshes running state on a fixed interval, and rescans
// when the override store changes on disk. The latest snapshot is published
// through an atomic pointer so readers never block on a scan in progress.
package daemon
