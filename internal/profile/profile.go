// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile defines conference submission profiles: the required
// BibTeX fields per entry type for a target venue. Built-in profiles are
// embedded; user profiles can be merged over them from a YAML file.
package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed profiles.yaml
var builtinYAML []byte

// ErrUnknownProfile is returned by Set.Get for a conference name with no
// profile. Validation is never silently skipped on an unknown name.
var ErrUnknownProfile = errors.New("unknown conference profile")

// Profile holds the required field names per entry type for one
// conference. Profiles are immutable after load.
type Profile struct {
	// Name is the canonical conference name as defined in the profile
	// source, regardless of how the lookup was spelled.
	Name string

	required map[string][]string
}

// Required returns the required field names for an entry type. Entry
// types the profile does not cover have no requirements.
func (p Profile) Required(entryType string) []string {
	return p.required[strings.ToLower(entryType)]
}

// Types returns the entry types the profile covers, sorted.
func (p Profile) Types() []string {
	entryTypes := make([]string, 0, len(p.required))
	for t := range p.required {
		entryTypes = append(entryTypes, t)
	}
	sort.Strings(entryTypes)
	return entryTypes
}

// Set is an immutable collection of named conference profiles.
type Set struct {
	profiles map[string]Profile // lowercased name -> profile
}

// Load parses the built-in profiles and, when extraPath is non-empty,
// merges a user YAML file of the same shape over them. User profiles may
// add conferences or replace a built-in wholesale by name. A user file
// that cannot be read or parsed is a configuration error.
func Load(extraPath string) (*Set, error) {
	set := &Set{profiles: make(map[string]Profile)}

	if err := set.merge(builtinYAML); err != nil {
		return nil, fmt.Errorf("parsing built-in profiles: %w", err)
	}

	if extraPath != "" {
		data, err := os.ReadFile(extraPath)
		if err != nil {
			return nil, fmt.Errorf("reading profiles file: %w", err)
		}
		if err := set.merge(data); err != nil {
			return nil, fmt.Errorf("parsing profiles file %s: %w", extraPath, err)
		}
	}

	return set, nil
}

// merge parses one YAML document of profiles into the set, replacing any
// existing profile with the same name.
func (s *Set) merge(data []byte) error {
	var raw map[string]map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for name, byType := range raw {
		required := make(map[string][]string, len(byType))
		for entryType, fields := range byType {
			required[strings.ToLower(entryType)] = fields
		}
		s.profiles[strings.ToLower(name)] = Profile{Name: name, required: required}
	}
	return nil
}

// Get returns the profile for a conference name. Matching is
// case-insensitive; the returned profile carries the canonical spelling.
func (s *Set) Get(name string) (Profile, error) {
	p, ok := s.profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (available: %s)",
			ErrUnknownProfile, name, strings.Join(s.Names(), ", "))
	}
	return p, nil
}

// Names returns the canonical profile names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for _, p := range s.profiles {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
