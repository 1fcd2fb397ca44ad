package recording

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Format is a trace output format: a backend and the file extension
// its output is written with.
type Format struct {
	Name string
	// Ext includes the leading dot.
	Ext string
	New func() Backend
}

var (
	registryMu sync.RWMutex
	formats    = make(map[string]Format)
)

// Register makes a format available by name and by extension. Backend
// packages call it from init:
//
//	func init() {
//	    recording.Register(recording.Format{Name: "text", Ext: ".txt", New: func() recording.Backend { return New() }})
//	}
//
// Register panics on a nil constructor, or when the name or extension
// is already taken.
func Register(f Format) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if f.New == nil {
		panic("recording: Register of " + f.Name + " with nil New")
	}
	if _, dup := formats[f.Name]; dup {
		panic("recording: Register called twice for " + f.Name)
	}
	f.Ext = strings.ToLower(f.Ext)
	for _, g := range formats {
		if g.Ext == f.Ext {
			panic("recording: extension " + f.Ext + " taken by " + g.Name)
		}
	}
	formats[f.Name] = f
}

// Lookup returns the format registered under name.
func Lookup(name string) (Format, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := formats[name]
	if !ok {
		return Format{}, fmt.Errorf("recording: unknown format %q (forgotten import?)", name)
	}
	return f, nil
}

// ForFile returns the format whose extension matches path.
func ForFile(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, f := range formats {
		if f.Ext == ext {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("recording: no format writes %q files", ext)
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
