// Package scanner produces raw application candidates from the host.
//
// Registry reads installed-program metadata from `reg query` output,
// Shortcuts resolves launcher shortcuts (Windows .lnk files and XDG .desktop
// entries) to executable targets, and the manual source loads durable
// overrides. Collector fans every source and the process census out
// concurrently and joins them before returning, so callers always merge a
// complete set of inputs. Source failures are logged and produce no records;
// they never fail a collection.
package scanner
