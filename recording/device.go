package recording

import (
	"sync"

	"github.com/prajeeshag/windgl/render"
)

// Device records the commands issued to a wrapped render.Device.
//
// Resource creation is forwarded unrecorded. Recording can be paused
// to skip setup work, and Finish hands over everything recorded so far.
//
// Example:
//
//	rec := recording.NewDevice(soft.New())
//	...
//	r := rec.Finish()
//	for _, c := range r.Commands() {
//	    fmt.Println(c.String())
//	}
type Device struct {
	render.Device

	mu       sync.Mutex
	commands []Command
	paused   bool
}

var _ render.Device = (*Device)(nil)

// NewDevice wraps dev.
func NewDevice(dev render.Device) *Device {
	return &Device{Device: dev, commands: make([]Command, 0, 64)}
}

// Unwrap returns the wrapped device.
func (d *Device) Unwrap() render.Device { return d.Device }

// Pause stops recording until Resume. Commands still execute.
func (d *Device) Pause() {
	d.mu.Lock()
	d.paused = true
	d.mu.Unlock()
}

// Resume restarts recording after Pause.
func (d *Device) Resume() {
	d.mu.Lock()
	d.paused = false
	d.mu.Unlock()
}

func (d *Device) record(c Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.paused {
		d.commands = append(d.commands, c)
	}
}

// Clear records and forwards a clear.
func (d *Device) Clear(fb render.Framebuffer, c render.Color) error {
	err := d.Device.Clear(fb, c)
	cmd := Command{Type: CmdClear, Color: c, Err: err}
	cmd.Target, cmd.Width, cmd.Height = targetInfo(fb)
	cmd.Label = cmd.Target
	d.record(cmd)
	return err
}

// Draw records and forwards a draw. The program state is captured
// before the wrapped device runs.
func (d *Device) Draw(cmd *render.DrawCommand) error {
	c := newDrawCommand(cmd)
	err := d.Device.Draw(cmd)
	c.Err = err
	d.record(c)
	return err
}

// ReadPixels records and forwards a readback.
func (d *Device) ReadPixels(fb render.Framebuffer) ([]byte, error) {
	pix, err := d.Device.ReadPixels(fb)
	cmd := Command{Type: CmdReadPixels, Err: err}
	cmd.Target, cmd.Width, cmd.Height = targetInfo(fb)
	cmd.Label = cmd.Target
	d.record(cmd)
	return pix, err
}

// Len returns the number of commands recorded since the last Finish.
func (d *Device) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.commands)
}

// Finish returns the commands recorded so far and starts a new
// recording.
func (d *Device) Finish() *Recording {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := &Recording{commands: d.commands}
	d.commands = make([]Command, 0, cap(d.commands))
	return r
}
