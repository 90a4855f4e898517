package fsutil

import (
	"io"
	"testing"
)

func TestMemoryFileSystemReadFile(t *testing.T) {
	fs := NewMemoryFileSystem()
	if err := fs.WriteFile("data/a.txt", []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := fs.ReadFile("data/a.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("ReadFile = %q, want %q", got, "hello")
	}

	if _, err := fs.ReadFile("data/missing.txt"); err == nil {
		t.Error("expected error reading missing file")
	}
}

func TestMemoryFileSystemOpen(t *testing.T) {
	fs := NewMemoryFileSystem()
	if err := fs.WriteFile("a.csv", []byte("x,y\n1,2\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := fs.Open("a.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "x,y\n1,2\n" {
		t.Errorf("read %q", data)
	}
}

func TestMemoryFileSystemReadDir(t *testing.T) {
	fs := NewMemoryFileSystem()
	files := []string{
		"root/Annotations/000002.xml",
		"root/Annotations/000001.xml",
		"root/Annotations/notes.txt",
		"root/JPEGImages/000001.jpg",
	}
	for _, name := range files {
		if err := fs.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile(%s) failed: %v", name, err)
		}
	}

	entries, err := fs.ReadDir("root/Annotations")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	want := []string{"000001.xml", "000002.xml", "notes.txt"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, name := range want {
		if entries[i].Name() != name {
			t.Errorf("entry %d = %s, want %s (sorted order)", i, entries[i].Name(), name)
		}
	}

	top, err := fs.ReadDir("root")
	if err != nil {
		t.Fatalf("ReadDir(root) failed: %v", err)
	}
	if len(top) != 2 || !top[0].IsDir() {
		t.Errorf("expected two subdirectory entries under root, got %v", top)
	}

	if _, err := fs.ReadDir("nope"); err == nil {
		t.Error("expected error listing missing directory")
	}
}

func TestMemoryFileSystemExists(t *testing.T) {
	fs := NewMemoryFileSystem()
	if err := fs.WriteFile("dir/sub/file.txt", nil, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	for _, name := range []string{"dir", "dir/sub", "dir/sub/file.txt"} {
		if !fs.Exists(name) {
			t.Errorf("Exists(%s) = false, want true", name)
		}
	}
	if fs.Exists("dir/other") {
		t.Error("Exists(dir/other) = true, want false")
	}
}
