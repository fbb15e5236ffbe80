package security

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveWithinValidPath(t *testing.T) {
	base := t.TempDir()

	resolved, err := ResolveWithin(base, "a", "b", "..", "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(base, "a", "c"); resolved != want {
		t.Fatalf("expected %s, got %s", want, resolved)
	}
}

func TestResolveWithinBlocksEscape(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name  string
		elems []string
	}{
		{"parent", []string{".."}},
		{"escape with path", []string{"..", "..", "etc", "passwd"}},
		{"relative escape", []string{"a", "..", "..", "etc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveWithin(base, tt.elems...)
			if !errors.Is(err, ErrPathEscape) {
				t.Fatalf("expected ErrPathEscape, got %v", err)
			}
		})
	}
}

func TestResolveWithinEmptyBase(t *testing.T) {
	if _, err := ResolveWithin("", "file.json"); err == nil {
		t.Fatal("expected error for empty base directory")
	}
}

func TestValidateSegment(t *testing.T) {
	tests := []struct {
		name    string
		segment string
		wantErr bool
	}{
		{"report file", "report-1700000000000.json", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"slash", "a/b.json", true},
		{"backslash", `a\b.json`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSegment(tt.segment)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSegment(%q) error = %v, wantErr %v", tt.segment, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSegment) {
				t.Fatalf("expected ErrInvalidSegment, got %v", err)
			}
		})
	}
}

func TestFileWithin(t *testing.T) {
	base := t.TempDir()

	path, err := FileWithin(base, "local-storage.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(path, base) {
		t.Fatalf("expected %s to stay within %s", path, base)
	}

	if _, err := FileWithin(base, "../outside.json"); err == nil {
		t.Fatal("expected error for traversal name")
	}
}
