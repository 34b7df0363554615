// Package main hosts the cropflow CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into detection
// passes against the identity registry, nodule flow analysis across dates,
// RootPainter CSV ingestion, and registry and configuration utilities. It
// centralizes configuration resolution, run identifiers, and structured
// logging setup so subcommands only orchestrate the internal packages.
//
// Keep this package lean: new behavior belongs in internal packages first and
// is surfaced here through dedicated commands or flags.
package main
