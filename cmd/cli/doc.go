// Package cli constructs the debsync command-line interface. It wires the
// Cobra command hierarchy to the configuration loader and the structured
// logger, and registers the sync and packages commands.
package cli
