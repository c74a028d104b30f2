// Package ipc exposes the AppDeck daemon over JSON-RPC on a Unix socket and
// ships the matching client used by the CLI.
//
// Sentinel errors from the engine and override store do not survive the wire
// as values, so the client maps known messages back onto them. Callers can keep
// using errors.Is regardless of whether they talk to the daemon or run locally.
package ipc
