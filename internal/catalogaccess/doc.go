// Package catalogaccess lets CLI commands work against the daemon when it is
// running and against an in-process engine when it is not.
package catalogaccess
