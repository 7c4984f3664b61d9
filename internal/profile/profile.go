// Package profile implements the Per-Application Profile Switcher (spec.md
// §4.5): observing the frontmost application and swapping the active rule
// set's source config path accordingly.
package profile

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Profile is a named configuration file bound to one or more application
// identifiers for automatic switching, per spec.md §3 "{name, bundle_ids[],
// config_path, is_default}".
type Profile struct {
	Name       string   `toml:"name"`
	BundleIDs  []string `toml:"bundle_ids"`
	ConfigPath string   `toml:"config_path"`
	IsDefault  bool     `toml:"is_default"`
}

// document is the on-disk shape of a profiles file: a bare array of tables,
// the same TOML convention internal/rules uses for modes/global_mappings.
type document struct {
	Profiles []Profile `toml:"profiles"`
}

// LoadFile reads a `[[profiles]]` TOML document from path. A missing file is
// not an error: it means no per-application switching is configured, so
// LoadFile returns a nil slice rather than failing daemon startup over an
// optional feature.
func LoadFile(path string) ([]Profile, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var doc document
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("parse profiles file %s: %w", path, err)
	}
	for i := range doc.Profiles {
		if doc.Profiles[i].Name == "" {
			return nil, fmt.Errorf("profiles file %s: entry %d missing name", path, i)
		}
	}
	return doc.Profiles, nil
}

// Resolve picks the profile matching frontmostID against BundleIDs, falling
// back to the default profile, then to the currently active one, exactly per
// spec.md §4.5.
func Resolve(profiles []Profile, frontmostID string, current *Profile) *Profile {
	for i := range profiles {
		for _, id := range profiles[i].BundleIDs {
			if id == frontmostID {
				return &profiles[i]
			}
		}
	}
	for i := range profiles {
		if profiles[i].IsDefault {
			return &profiles[i]
		}
	}
	return current
}
