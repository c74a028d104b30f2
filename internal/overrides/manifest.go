package overrides

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes a batch of overrides authored by hand:
//
//	portables:
//	  - name: MyTool
//	    path: E:\tools\mytool.exe
//	    publisher: Me
//	custom_paths:
//	  Bar Tool: D:\Custom\bar2.exe
//
// custom_paths is keyed by display name; ids are derived when applied.
type Manifest struct {
	Portables   []ManifestPortable `yaml:"portables"`
	CustomPaths map[string]string  `yaml:"custom_paths"`
}

// ManifestPortable is one registration in a Manifest.
type ManifestPortable struct {
	Name      string `yaml:"name"`
	Path      string `yaml:"path"`
	Publisher string `yaml:"publisher"`
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return Manifest{}, nil
		}
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	for i, p := range m.Portables {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Path) == "" {
			return Manifest{}, fmt.Errorf("%w: manifest portables[%d] needs name and path", ErrInvalidPortable, i)
		}
	}
	for name, path := range m.CustomPaths {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(path) == "" {
			return Manifest{}, fmt.Errorf("manifest custom_paths: empty name or path for %q", name)
		}
	}
	return m, nil
}
