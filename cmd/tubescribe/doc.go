// Package main hosts the tubescribe CLI entrypoint and command graph.
//
// The Cobra-based command tree turns a video reference into transcript files
// by wiring the caption client, audio adapter, speech-to-text backend, output
// writer, and run ledger into a pipeline controller. It centralizes
// configuration resolution and logging setup so subcommands can focus on
// user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
