package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DataPrefix  = "handwriting-data-"
	ImagePrefix = "handwriting-image-"

	ContentTypeJSON = "application/json"
	ContentTypePNG  = "image/png"
)

// DataFilename возвращает имя JSON-экспорта с меткой времени создания в миллисекундах Unix.
func DataFilename(at time.Time) string { return fmt.Sprintf("%s%d.json", DataPrefix, at.UnixMilli()) }

// ImageFilename возвращает имя PNG-экспорта с меткой времени создания.
func ImageFilename(at time.Time) string { return fmt.Sprintf("%s%d.png", ImagePrefix, at.UnixMilli()) }

// Writer пишет файлы экспорта в каталог.
type Writer struct {
	dir string
	now func() time.Time
}

func NewWriter(dir string) *Writer { return &Writer{dir: dir, now: time.Now} }

// WriteJSON сохраняет данные предложения и возвращает путь к файлу.
func (w *Writer) WriteJSON(data []byte) (string, error) {
	return w.write(DataFilename(w.now()), data)
}

// WritePNG сохраняет изображение и возвращает путь к файлу.
func (w *Writer) WritePNG(data []byte) (string, error) {
	return w.write(ImageFilename(w.now()), data)
}

func (w *Writer) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", name, err)
	}
	return path, nil
}
