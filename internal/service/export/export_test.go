package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFilenamesCarryTimestamp(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	if got := DataFilename(at); got != "handwriting-data-1700000000123.json" {
		t.Errorf("DataFilename = %q", got)
	}
	if got := ImageFilename(at); got != "handwriting-image-1700000000123.png" {
		t.Errorf("ImageFilename = %q", got)
	}
}

func TestWriterCreatesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	w := NewWriter(dir)
	w.now = func() time.Time { return time.UnixMilli(42) }

	path, err := w.WriteJSON([]byte("[]"))
	if err != nil {
		t.Fatalf("write json: %v", err)
	}
	if filepath.Base(path) != "handwriting-data-42.json" {
		t.Errorf("path = %s", path)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "[]" {
		t.Errorf("content = %q", b)
	}

	path, err = w.WritePNG([]byte{0x89})
	if err != nil {
		t.Fatalf("write png: %v", err)
	}
	if filepath.Base(path) != "handwriting-image-42.png" {
		t.Errorf("path = %s", path)
	}
}

func TestCleanerRemovesOnlyOldExports(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	files := map[string]time.Time{
		"handwriting-data-1.json":  old,
		"handwriting-image-1.png":  old,
		"handwriting-data-2.json":  now,
		"notes.txt":                old,
		"handwriting-data-3.jsonl": old,
	}
	for name, mod := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(p, mod, mod); err != nil {
			t.Fatal(err)
		}
	}

	core, logs := observer.New(zapcore.InfoLevel)
	c := NewCleaner(zap.New(core).Sugar(), dir, time.Hour)
	if removed := c.Clean(now); removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if got := logs.FilterMessage("Старые экспорты удалены").Len(); got != 1 {
		t.Errorf("cleanup log entries = %d, all: %v", got, logs.All())
	}
	for _, keep := range []string{"handwriting-data-2.json", "notes.txt", "handwriting-data-3.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Errorf("%s was removed: %v", keep, err)
		}
	}
}

func TestCleanerDisabled(t *testing.T) {
	c := NewCleaner(zap.NewNop().Sugar(), t.TempDir(), 0)
	if c.Clean(time.Now()) != 0 {
		t.Error("disabled cleaner removed files")
	}
}
