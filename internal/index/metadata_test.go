package index

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMetadataAbsent(t *testing.T) {
	m := loadMetadata(filepath.Join(t.TempDir(), "nope"), "/some/root")
	if m.Root != "/some/root" {
		t.Errorf("expected root carried through, got %q", m.Root)
	}
	if len(m.Files) != 0 {
		t.Errorf("expected empty file map, got %v", m.Files)
	}
}

func TestMetadataRoundtrip(t *testing.T) {
	dir := t.TempDir()

	m := &metadata{
		Root: "/some/root",
		Files: map[string]fileMeta{
			"a.py": {SHA256: Fingerprint("alpha"), IndexedAt: "2026-08-23T00:00:00Z"},
		},
	}
	if err := m.save(dir); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got := loadMetadata(dir, "/other/root")
	if got.Root != "/some/root" {
		t.Errorf("expected persisted root, got %q", got.Root)
	}
	fm, ok := got.Files["a.py"]
	if !ok {
		t.Fatalf("a.py missing from %v", got.Files)
	}
	if fm.SHA256 != Fingerprint("alpha") || fm.IndexedAt != "2026-08-23T00:00:00Z" {
		t.Errorf("unexpected file meta %+v", fm)
	}
}

func TestLoadMetadataCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, metadataFile), []byte("{broken"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m := loadMetadata(dir, "/some/root")
	if len(m.Files) != 0 {
		t.Errorf("corrupt metadata should load empty, got %v", m.Files)
	}
	if m.Files == nil {
		t.Error("file map must be usable, not nil")
	}
}
