// Package preflight runs the environment checks behind `appdeck doctor`:
// data directory access, override store health, scan source reachability
// and external command availability.
package preflight
