// Package steering carries the steering-document contract that gets embedded
// into session records at creation time.
//
// Steering documents themselves (templates, rendering) are an external
// collaborator's concern. Stagehand only snapshots the contract, meaning
// where the manifest lives and which versions it supports, so every session
// records the steering state it was started under.
package steering

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultManifestName is the conventional manifest location under the
// workspace data directory.
const DefaultManifestName = "steering.yaml"

// Contract is the immutable steering snapshot embedded into a session.
type Contract struct {
	ManifestPath  string        `json:"manifest_path"`
	Compatibility Compatibility `json:"compatibility"`
}

// Compatibility lists the steering versions a session may run under.
// An empty list means unconstrained.
type Compatibility struct {
	Supported []string `json:"supported"`
}

// Supports reports whether the contract admits the given version.
func (c *Contract) Supports(version string) bool {
	if len(c.Compatibility.Supported) == 0 {
		return true
	}
	return slices.Contains(c.Compatibility.Supported, version)
}

// Source produces the current steering contract.
type Source interface {
	Contract() (*Contract, error)
}

// manifestFile is the on-disk YAML shape of a steering manifest.
type manifestFile struct {
	Manifest      string `yaml:"manifest"`
	Compatibility struct {
		Supported []string `yaml:"supported"`
	} `yaml:"compatibility"`
}

// FileSource reads the contract from a YAML manifest on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource reading from the given manifest path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Contract reads and parses the manifest. A missing manifest yields a
// zero-value contract rather than an error: sessions can start without
// steering configured. A manifest that exists but does not parse is an
// error.
func (s *FileSource) Contract() (*Contract, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Contract{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading steering manifest: %w", err)
	}

	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing steering manifest %s: %w", s.path, err)
	}

	return &Contract{
		ManifestPath:  mf.Manifest,
		Compatibility: Compatibility{Supported: mf.Compatibility.Supported},
	}, nil
}

// Path returns the manifest location this source reads from.
func (s *FileSource) Path() string {
	return s.path
}

// StaticSource returns a fixed contract. Useful for tests and for callers
// that resolved the contract elsewhere.
type StaticSource struct {
	contract Contract
}

// NewStaticSource creates a StaticSource serving the given contract.
func NewStaticSource(c Contract) *StaticSource {
	return &StaticSource{contract: c}
}

// Contract returns a copy of the fixed contract.
func (s *StaticSource) Contract() (*Contract, error) {
	c := s.contract
	c.Compatibility.Supported = slices.Clone(s.contract.Compatibility.Supported)
	return &c, nil
}
