// Package cli implements the offline command-line tool: identifying ROMs,
// looking them up in a cheat database and writing cheats into an emulator
// store without running the server.
package cli
