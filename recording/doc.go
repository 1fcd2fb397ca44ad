// Package recording captures the device commands an engine issues.
//
// The recording system wraps a render.Device and logs every Clear, Draw
// and ReadPixels as a typed Command before forwarding it. A finished
// Recording can be inspected directly in tests or played back to a
// Backend that exports it as a trace.
//
// # Architecture
//
//   - Device: a render.Device decorator that records commands
//   - Recording: an immutable command list
//   - Backend: renders a Recording into an output format
//
// # Basic Usage
//
//	rec := recording.NewDevice(soft.New())
//	surface, _ := render.NewOffscreenSurface(rec, 256, 256)
//	eng, _ := windgl.New(surface, f)
//	_ = eng.Draw(0)
//
//	r := rec.Finish()
//	fmt.Println(r.Labels())
//
// # Playback to Backends
//
//	import _ "github.com/prajeeshag/windgl/recording/backends/text"
//
//	f, err := recording.Lookup("text")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b := f.New()
//	if err := r.Playback(b); err != nil {
//	    log.Fatal(err)
//	}
//	b.WriteTo(os.Stdout)
//
// Backends register a Format in init(), following the database/sql
// driver pattern. The text backend writes one line per command to
// .txt files; the table backend writes CSV to .csv files. ForFile picks
// the format from an output path.
package recording
