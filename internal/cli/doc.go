// Package cli implements the can-monitor command-line interface.
//
// Each Cobra command loads configuration, builds the frame sources and
// recorders it needs, and hands them to a monitor session. The session owns
// terminal setup, logging and teardown.
package cli
