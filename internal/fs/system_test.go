package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/justyntemme/shellnav/internal/location"
)

func mustLocation(t testing.TB, path string) location.Location {
	t.Helper()
	loc, err := location.Parse(path)
	if err != nil {
		t.Fatalf("location.Parse(%q): %v", path, err)
	}
	return loc
}

func makeTree(t testing.TB, root string, dirs, files []string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.Mkdir(filepath.Join(root, d), 0755); err != nil {
			t.Fatalf("failed to create dir %s: %v", d, err)
		}
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(root, f), []byte("test content"), 0644); err != nil {
			t.Fatalf("failed to create file %s: %v", f, err)
		}
	}
}

func TestEnumerate(t *testing.T) {
	tmpDir := t.TempDir()
	makeTree(t, tmpDir, []string{"dir1", "dir2", ".hidden_dir"}, []string{"file1.txt", "file2.go", ".hidden_file"})

	nestedFile := filepath.Join(tmpDir, "dir1", "nested.txt")
	if err := os.WriteFile(nestedFile, []byte("nested"), 0644); err != nil {
		t.Fatalf("failed to create nested file: %v", err)
	}

	s := NewSystem()
	entries, err := s.Enumerate(context.Background(), mustLocation(t, tmpDir), Options{})
	if err != nil {
		t.Fatalf("Enumerate returned error: %v", err)
	}

	// Hidden items are excluded by default; folders sort first.
	expected := []string{"dir1", "dir2", "file1.txt", "file2.go"}
	if len(entries) != len(expected) {
		t.Fatalf("expected %d entries, got %d", len(expected), len(entries))
	}
	for i, name := range expected {
		if entries[i].Name != name {
			t.Errorf("entry %d: expected %q, got %q", i, name, entries[i].Name)
		}
	}
	if !entries[0].IsDir || entries[2].IsDir {
		t.Error("expected folders before files")
	}
}

func TestEnumerate_ShowHidden(t *testing.T) {
	tmpDir := t.TempDir()
	makeTree(t, tmpDir, []string{".hidden_dir"}, []string{"visible.txt", ".hidden_file"})

	s := NewSystem()
	entries, err := s.Enumerate(context.Background(), mustLocation(t, tmpDir), Options{ShowHidden: true})
	if err != nil {
		t.Fatalf("Enumerate returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	hidden := 0
	for _, e := range entries {
		if e.Hidden {
			hidden++
		}
	}
	if hidden != 2 {
		t.Errorf("expected 2 hidden entries, got %d", hidden)
	}
}

func TestEnumerate_Filter(t *testing.T) {
	tmpDir := t.TempDir()
	makeTree(t, tmpDir, []string{"sub"}, []string{"a.go", "b.GO", "c.txt"})

	testCases := []struct {
		filter        string
		caseSensitive bool
		expected      int
	}{
		{"", false, 4},
		{"*.go", false, 3},
		{"*.go", true, 2},
		{"ext:txt", false, 2},
		{"nomatch", false, 1},
	}

	s := NewSystem()
	for _, tc := range testCases {
		entries, err := s.Enumerate(context.Background(), mustLocation(t, tmpDir), Options{
			Filter:              tc.filter,
			FilterCaseSensitive: tc.caseSensitive,
		})
		if err != nil {
			t.Fatalf("filter %q: unexpected error: %v", tc.filter, err)
		}
		if len(entries) != tc.expected {
			t.Errorf("filter %q (case=%v): expected %d entries, got %d", tc.filter, tc.caseSensitive, tc.expected, len(entries))
		}
	}
}

func TestEnumerate_NonExistent(t *testing.T) {
	s := NewSystem()
	_, err := s.Enumerate(context.Background(), mustLocation(t, "/nonexistent/path/that/does/not/exist"), Options{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEnumerate_NotFolder(t *testing.T) {
	tmpDir := t.TempDir()
	makeTree(t, tmpDir, nil, []string{"file.txt"})

	s := NewSystem()
	_, err := s.Enumerate(context.Background(), mustLocation(t, filepath.Join(tmpDir, "file.txt")), Options{})
	if !errors.Is(err, ErrNotFolder) {
		t.Errorf("expected ErrNotFolder, got %v", err)
	}
}

func TestEnumerate_AccessDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	tmpDir := t.TempDir()
	locked := filepath.Join(tmpDir, "locked")
	if err := os.Mkdir(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	s := NewSystem()
	_, err := s.Enumerate(context.Background(), mustLocation(t, locked), Options{})
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestEnumerate_Cancelled(t *testing.T) {
	tmpDir := t.TempDir()
	makeTree(t, tmpDir, nil, []string{"file.txt"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSystem()
	_, err := s.Enumerate(ctx, mustLocation(t, tmpDir), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEnumerate_Root(t *testing.T) {
	s := NewSystem()
	s.drives = func() []Drive {
		return []Drive{{Name: "/", Path: "/"}, {Name: "Home", Path: "/home"}, {Name: "bad", Path: "relative"}}
	}

	entries, err := s.Enumerate(context.Background(), location.Root, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 drives, got %d", len(entries))
	}
	if entries[1].Path != "/home" || !entries[1].IsDir {
		t.Errorf("unexpected drive entry: %+v", entries[1])
	}
}

func TestEnumerate_SymlinkHandling(t *testing.T) {
	tmpDir := t.TempDir()
	makeTree(t, tmpDir, []string{"realdir"}, []string{"realfile.txt"})

	if err := os.Symlink(filepath.Join(tmpDir, "realdir"), filepath.Join(tmpDir, "linkdir")); err != nil {
		t.Skipf("cannot create symlinks: %v", err)
	}
	if err := os.Symlink(filepath.Join(tmpDir, "realfile.txt"), filepath.Join(tmpDir, "linkfile.txt")); err != nil {
		t.Fatal(err)
	}

	s := NewSystem()
	entries, err := s.Enumerate(context.Background(), mustLocation(t, tmpDir), Options{})
	if err != nil {
		t.Fatalf("Enumerate returned error: %v", err)
	}

	entryMap := make(map[string]Entry)
	for _, e := range entries {
		entryMap[e.Name] = e
	}
	if e, ok := entryMap["linkdir"]; !ok || !e.IsDir {
		t.Error("symlink to directory should appear as directory")
	}
	if e, ok := entryMap["linkfile.txt"]; !ok || e.IsDir {
		t.Error("symlink to file should appear as file")
	}
}

func TestEntry_Fields(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	content := []byte("hello world")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatal(err)
	}

	s := NewSystem()
	entries, err := s.Enumerate(context.Background(), mustLocation(t, tmpDir), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Name != "test.txt" {
		t.Errorf("expected Name='test.txt', got %q", e.Name)
	}
	if e.Path != mustLocation(t, testFile) {
		t.Errorf("expected Path=%q, got %q", testFile, e.Path)
	}
	if e.Size != int64(len(content)) {
		t.Errorf("expected Size=%d, got %d", len(content), e.Size)
	}
	if time.Since(e.ModTime) > time.Minute {
		t.Errorf("ModTime seems too old: %v", e.ModTime)
	}
}

func BenchmarkEnumerate(b *testing.B) {
	tmpDir := b.TempDir()
	for i := 0; i < 100; i++ {
		name := filepath.Join(tmpDir, "file"+string(rune('0'+i%10))+string(rune('0'+i/10%10))+".txt")
		os.WriteFile(name, []byte("content"), 0644)
	}

	s := NewSystem()
	loc := mustLocation(b, tmpDir)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Enumerate(context.Background(), loc, Options{})
	}
}
