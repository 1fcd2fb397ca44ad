package viewer

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Store persists small blobs between runs. *gdata.Manager implements it.
type Store interface {
	ObjectPropExists(object, property string) bool
	LoadObjectProp(object, property string) ([]byte, error)
	SaveObjectProp(object, property string, data []byte) error
}

const (
	settingsObject   = "viewer"
	settingsProperty = "settings"
)

// Settings are the viewer choices restored on the next start.
type Settings struct {
	Mode         string  `yaml:"mode"`
	Density      float64 `yaml:"density"`
	TimePosition float64 `yaml:"time_position"`
	Animate      bool    `yaml:"animate"`
	Zoom         float64 `yaml:"zoom"`
}

// LoadSettings reads the saved settings. A nil store or a first run
// yields def.
func LoadSettings(s Store, def Settings) (Settings, error) {
	if s == nil || !s.ObjectPropExists(settingsObject, settingsProperty) {
		return def, nil
	}
	data, err := s.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		return def, fmt.Errorf("viewer: loading settings: %w", err)
	}
	out := def
	if err := yaml.Unmarshal(data, &out); err != nil {
		return def, fmt.Errorf("viewer: parsing settings: %w", err)
	}
	return out, nil
}

// SaveSettings writes st. A nil store is a no-op.
func SaveSettings(s Store, st Settings) error {
	if s == nil {
		return nil
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("viewer: encoding settings: %w", err)
	}
	if err := s.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("viewer: saving settings: %w", err)
	}
	return nil
}
