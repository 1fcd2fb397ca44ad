package recording

import (
	"errors"
	"fmt"
)

// Recording is an immutable list of recorded commands.
type Recording struct {
	commands []Command
}

// NewRecording builds a recording from commands. The slice is copied.
func NewRecording(commands []Command) *Recording {
	return &Recording{commands: append([]Command(nil), commands...)}
}

// Len returns the number of commands.
func (r *Recording) Len() int { return len(r.commands) }

// Commands returns a copy of the commands in issue order.
func (r *Recording) Commands() []Command {
	return append([]Command(nil), r.commands...)
}

// Labels returns the label of every command in issue order.
func (r *Recording) Labels() []string {
	out := make([]string, len(r.commands))
	for i := range r.commands {
		out[i] = r.commands[i].Label
	}
	return out
}

// Draws returns the draw labels in issue order.
func (r *Recording) Draws() []string {
	var out []string
	for i := range r.commands {
		if r.commands[i].Type == CmdDraw {
			out = append(out, r.commands[i].Label)
		}
	}
	return out
}

// Filter returns the commands of type t.
func (r *Recording) Filter(t CommandType) []Command {
	var out []Command
	for _, c := range r.commands {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the first command with the label, or nil.
func (r *Recording) Find(label string) *Command {
	for i := range r.commands {
		if r.commands[i].Label == label {
			c := r.commands[i]
			return &c
		}
	}
	return nil
}

// Err returns the errors of failed commands joined together, or nil.
func (r *Recording) Err() error {
	var errs []error
	for _, c := range r.commands {
		if c.Err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", c.Type, c.Label, c.Err))
		}
	}
	return errors.Join(errs...)
}

// Playback sends every command to b between Begin and End.
func (r *Recording) Playback(b Backend) error {
	if err := b.Begin(len(r.commands)); err != nil {
		return err
	}
	for i := range r.commands {
		if err := b.Command(&r.commands[i]); err != nil {
			return err
		}
	}
	return b.End()
}
