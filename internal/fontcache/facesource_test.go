package fontcache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirFaceSourceResolveStyledFile(t *testing.T) {
	dir := t.TempDir()
	mustTouch(t, filepath.Join(dir, "Mono.ttf"))
	mustTouch(t, filepath.Join(dir, "Mono-Bold.ttf"))

	src := DirFaceSource{Dir: dir}

	paths, err := src.Resolve("Mono", true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "Mono-Bold.ttf" {
		t.Errorf("expected Mono-Bold.ttf, got %v", paths)
	}
}

func TestDirFaceSourceFallsBackToBareFamily(t *testing.T) {
	dir := t.TempDir()
	mustTouch(t, filepath.Join(dir, "Mono.ttf"))

	src := DirFaceSource{Dir: dir}

	paths, err := src.Resolve("Mono", true, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "Mono.ttf" {
		t.Errorf("expected fallback to Mono.ttf, got %v", paths)
	}
}

func TestDirFaceSourceNoMatch(t *testing.T) {
	dir := t.TempDir()
	src := DirFaceSource{Dir: dir}

	if _, err := src.Resolve("Nope", false, false); err == nil {
		t.Error("expected error when no font file matches")
	}
}

func mustTouch(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	f.Close()
}
