// Package overrides persists the user's corrections to the catalog: custom
// executable paths keyed by entry id, and manually registered portable
// applications.
//
// Two backends implement Store. The JSON backend keeps customPaths.json and
// portableApps.json in the data directory and serializes writers across
// processes with a lock file. The SQLite backend keeps both maps in
// overrides.db. Open picks one from configuration.
package overrides
