// Package census takes snapshots of the executables currently running on the
// host.
//
// A snapshot is a set of lower-cased executable base names. Listing failures
// never reach callers: they are logged and yield an empty set, since a stale
// running flag is preferable to a failed catalog scan.
package census
