// Package identity provides the stable machine identity used to stamp lock
// ownership. The identity is created once per machine, persisted in a
// user-scoped location, and reused by every stagehand process on that
// machine. Consumers receive it through the Provider interface so the lock
// manager never reaches for a hidden global.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MachineFileName is the name of the persisted identity file.
const MachineFileName = "machine.json"

// Machine identifies the current machine across processes and restarts.
type Machine struct {
	ID        string    `json:"id"`
	Hostname  string    `json:"hostname"`
	CreatedAt time.Time `json:"createdAt"`
}

// Provider supplies the current machine identity. Implementations must be
// safe for concurrent use.
type Provider interface {
	// Identity returns the machine identity, creating and persisting it on
	// first use.
	Identity() (*Machine, error)
}

// DefaultPath returns the default location of the identity file, honoring
// XDG_CONFIG_HOME and falling back to ~/.config/stagehand/machine.json.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stagehand", MachineFileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "stagehand", MachineFileName), nil
}

// FileProvider loads the machine identity from a JSON file, creating it on
// first use. The loaded identity is cached for the lifetime of the process.
type FileProvider struct {
	path string

	mu     sync.Mutex
	cached *Machine
}

// NewFileProvider creates a FileProvider persisting to the given path.
// An empty path selects [DefaultPath] lazily on first use.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Identity returns the cached identity, loading or creating the persisted
// file as needed. A file that exists but cannot be decoded is regenerated in
// place: identity is bootstrap data, not coordination state, so corruption
// here must never wedge the machine.
func (p *FileProvider) Identity() (*Machine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil {
		return p.cached, nil
	}

	if p.path == "" {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		p.path = path
	}

	if m := readMachineFile(p.path); m != nil {
		p.cached = m
		return m, nil
	}

	m, err := createMachine()
	if err != nil {
		return nil, err
	}
	if err := writeMachineFile(p.path, m); err != nil {
		return nil, err
	}

	p.cached = m
	return m, nil
}

// Path returns the identity file location. Empty until first use when the
// provider was constructed with an empty path.
func (p *FileProvider) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// readMachineFile returns the decoded identity, or nil if the file is
// missing, unreadable, or invalid.
func readMachineFile(path string) *Machine {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var m Machine
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	if m.ID == "" || m.Hostname == "" {
		return nil
	}
	return &m
}

// writeMachineFile persists the identity with owner-only permissions.
func writeMachineFile(path string, m *Machine) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal machine identity: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write machine identity: %w", err)
	}
	return nil
}

// createMachine builds a fresh identity for this machine.
func createMachine() (*Machine, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to determine hostname: %w", err)
	}

	return &Machine{
		ID:        uuid.NewString(),
		Hostname:  hostname,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// StaticProvider returns a fixed identity. Useful for tests and for tools
// that impersonate a specific machine deliberately.
type StaticProvider struct {
	Machine Machine
}

// NewStaticProvider creates a StaticProvider with the given id and hostname.
func NewStaticProvider(id, hostname string) *StaticProvider {
	return &StaticProvider{
		Machine: Machine{
			ID:        id,
			Hostname:  hostname,
			CreatedAt: time.Now().UTC(),
		},
	}
}

// Identity returns the fixed identity.
func (p *StaticProvider) Identity() (*Machine, error) {
	m := p.Machine
	return &m, nil
}
