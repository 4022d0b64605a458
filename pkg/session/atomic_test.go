package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Creates New File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "board.json")

		if err := WriteFileAtomic(path, []byte(`{"version":"1.2"}`), 0644); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back failed: %v", err)
		}
		if string(got) != `{"version":"1.2"}` {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("Overwrites Existing File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "board.json")
		if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := WriteFileAtomic(path, []byte("new"), 0644); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
		got, _ := os.ReadFile(path)
		if string(got) != "new" {
			t.Errorf("content = %q, want new", got)
		}
	})

	t.Run("Leaves No Temp Files", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "board.json")
		if err := WriteFileAtomic(path, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), TempFilePrefix) {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("Fails If Directory Missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope", "board.json")
		if err := WriteFileAtomic(path, []byte("x"), 0644); err == nil {
			t.Error("write into missing directory succeeded")
		}
	})
}
