package json

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cybershikshax/shiksha-cli/internal/domain/progress"
	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
)

func TestLocalStorageSetGetPersist(t *testing.T) {
	dir := t.TempDir()

	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if _, ok, _ := s.GetItem("missing"); ok {
		t.Fatal("expected missing key")
	}
	if err := s.SetItem("greeting", "namaste"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	reopened, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, err := reopened.GetItem("greeting")
	if err != nil || !ok || v != "namaste" {
		t.Fatalf("GetItem = %q, %v, %v", v, ok, err)
	}
}

func TestLocalStorageRemoveItem(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	_ = s.SetItem("a", "1")

	if err := s.RemoveItem("a"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if err := s.RemoveItem("a"); err != nil {
		t.Fatalf("RemoveItem on absent key: %v", err)
	}
	if _, ok, _ := s.GetItem("a"); ok {
		t.Fatal("removed key should be gone")
	}

	reopened, err := NewLocalStorage(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok, _ := reopened.GetItem("a"); ok {
		t.Fatal("removal should be persisted")
	}
}

func TestLocalStorageCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, consts.LocalStorageFile)
	if err := os.WriteFile(path, []byte("{corrupt"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if _, ok, _ := s.GetItem(consts.ProgressStorageKey); ok {
		t.Fatal("expected empty storage")
	}

	if err := s.SetItem("k", "v"); err != nil {
		t.Fatalf("SetItem over corrupt file: %v", err)
	}
}

func TestLocalStorageBacksProgressStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	store := progress.Open(s, progress.DefaultCurriculum())
	if err := store.MarkComplete("College", "Forensics"); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}

	raw, ok, _ := s.GetItem(consts.ProgressStorageKey)
	if !ok || raw != `{"College-Forensics":100}` {
		t.Fatalf("unexpected persisted value %q (present=%v)", raw, ok)
	}

	again, _ := NewLocalStorage(dir)
	if got := progress.Open(again, progress.DefaultCurriculum()).Percent("College", "Forensics"); got != 100 {
		t.Fatalf("expected progress to survive reopen, got %d", got)
	}
}

func TestNewLocalStorageRequiresDir(t *testing.T) {
	if _, err := NewLocalStorage(""); err == nil {
		t.Fatal("expected error for empty data directory")
	}
}
