package recording

import "io"

// Backend is the interface that all export backends must implement.
// Backends receive recorded commands and translate them to their output
// format (a text log, a CSV table, ...).
//
// Backends are registered as a Format in their init() functions and
// created through Lookup(name).New or ForFile(path).New.
//
// # Implementation Contract
//
// Each backend must:
//  1. Register a Format in init() using recording.Register()
//  2. Accept Begin, Command and End in that order
//  3. Produce output only after End
type Backend interface {
	// Begin prepares the backend for n commands.
	Begin(n int) error

	// Command receives one command. The pointer is only valid during
	// the call.
	Command(c *Command) error

	// End finalizes the output.
	End() error

	// WriteTo writes the finalized output.
	io.WriterTo
}
