// Command appdeck lists, launches and manages the applications installed on
// this machine. It talks to a running `appdeck daemon` over its socket and
// falls back to scanning in-process when no daemon is reachable.
package main
