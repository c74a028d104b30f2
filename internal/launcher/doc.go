// Package launcher starts and stops catalog entries. It spawns the entry's
// executable detached from AppDeck and stops it by image name, so it only
// needs the catalog entry and not the original process handle.
package launcher
