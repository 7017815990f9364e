// Package main hosts the plex-file-namer CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the logger and
// the SQLite store, and wires the TMDB catalog, the prober and the batch
// driver for each command. Identification, naming and file handling live in
// the internal packages; commands here only translate flags into their
// options and print results.
package main
