package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFileProvider_CreatesIdentityOnFirstUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stagehand", MachineFileName)
	p := NewFileProvider(path)

	m, err := p.Identity()
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}

	if m.ID == "" {
		t.Error("identity has empty ID")
	}
	if m.Hostname == "" {
		t.Error("identity has empty Hostname")
	}
	if m.CreatedAt.IsZero() {
		t.Error("identity has zero CreatedAt")
	}

	// The file must exist and decode to the same identity.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("identity file not written: %v", err)
	}
	var onDisk Machine
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("identity file is not valid JSON: %v", err)
	}
	if onDisk.ID != m.ID {
		t.Errorf("on-disk ID = %q, want %q", onDisk.ID, m.ID)
	}
}

func TestFileProvider_ReusesPersistedIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), MachineFileName)

	first, err := NewFileProvider(path).Identity()
	if err != nil {
		t.Fatalf("first Identity failed: %v", err)
	}

	// A fresh provider simulates a new process on the same machine.
	second, err := NewFileProvider(path).Identity()
	if err != nil {
		t.Fatalf("second Identity failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("identity not stable across processes: %q != %q", first.ID, second.ID)
	}
}

func TestFileProvider_CachesInProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), MachineFileName)
	p := NewFileProvider(path)

	first, err := p.Identity()
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}

	// Deleting the file must not matter once cached.
	os.Remove(path)

	second, err := p.Identity()
	if err != nil {
		t.Fatalf("cached Identity failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("cached identity changed: %q != %q", first.ID, second.ID)
	}
}

func TestFileProvider_RegeneratesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MachineFileName)

	if err := os.WriteFile(path, []byte("not valid json{"), 0600); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	m, err := NewFileProvider(path).Identity()
	if err != nil {
		t.Fatalf("Identity failed on corrupt file: %v", err)
	}
	if m.ID == "" {
		t.Error("regenerated identity has empty ID")
	}

	// The corrupt file must have been replaced with a valid one.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read regenerated file: %v", err)
	}
	var onDisk Machine
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("regenerated file is not valid JSON: %v", err)
	}
}

func TestFileProvider_RejectsIncompleteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MachineFileName)

	// Valid JSON but missing required fields: treated like corruption.
	if err := os.WriteFile(path, []byte(`{"id": ""}`), 0600); err != nil {
		t.Fatalf("failed to write incomplete file: %v", err)
	}

	m, err := NewFileProvider(path).Identity()
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	if m.ID == "" {
		t.Error("identity not regenerated from incomplete file")
	}
}

func TestFileProvider_ConcurrentAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), MachineFileName)
	p := NewFileProvider(path)

	const goroutines = 10
	ids := make([]string, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m, err := p.Identity()
			if err != nil {
				t.Errorf("concurrent Identity failed: %v", err)
				return
			}
			ids[n] = m.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("goroutine %d saw identity %q, want %q", i, ids[i], ids[0])
		}
	}
}

func TestDefaultPath_HonorsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath failed: %v", err)
	}

	want := filepath.Join("/custom/config", "stagehand", MachineFileName)
	if path != want {
		t.Errorf("DefaultPath = %q, want %q", path, want)
	}
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider("machine-1", "host-a")

	m, err := p.Identity()
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	if m.ID != "machine-1" || m.Hostname != "host-a" {
		t.Errorf("identity = %q/%q, want machine-1/host-a", m.ID, m.Hostname)
	}

	// Mutating the returned value must not affect the provider.
	m.ID = "mutated"
	again, _ := p.Identity()
	if again.ID != "machine-1" {
		t.Error("StaticProvider returned shared mutable state")
	}
}
