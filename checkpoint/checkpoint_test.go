package checkpoint

import (
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileDefaultsEmpty(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if f.PageDone("pinnacle", 1) {
		t.Fatalf("fresh checkpoint must not report pages done")
	}
	if f.Imported("pinnacle") != 0 {
		t.Fatalf("fresh checkpoint must report zero imported")
	}
}

func TestMarkDone_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	f, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := f.MarkDone("pinnacle", 1, 12); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := f.MarkDone("pinnacle", 2, 8); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := f.MarkDone("hale", 1, 5); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	// Simulate a restart.
	g, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !g.PageDone("pinnacle", 1) || !g.PageDone("pinnacle", 2) {
		t.Fatalf("completed pages lost on reload")
	}
	if g.PageDone("pinnacle", 3) {
		t.Fatalf("page 3 must not be done")
	}
	if g.Imported("pinnacle") != 20 {
		t.Fatalf("expected cumulative 20 imported, got %d", g.Imported("pinnacle"))
	}
	if g.Imported("hale") != 5 {
		t.Fatalf("sections must be independent, got %d", g.Imported("hale"))
	}
}

func TestMarkDone_IdempotentResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	f, _ := Load(path)
	f.MarkDone("inventory", 1, 10)

	// Re-running page 1 is skipped by the caller; marking it again must
	// not duplicate the page entry.
	f.MarkDone("inventory", 1, 0)

	g, _ := Load(path)
	if n := len(g.Sections["inventory"].CompletedPages); n != 1 {
		t.Fatalf("expected 1 completed page entry, got %d", n)
	}
	if g.Imported("inventory") != 10 {
		t.Fatalf("imported count changed on resume: %d", g.Imported("inventory"))
	}
}
