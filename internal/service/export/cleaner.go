package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Cleaner удаляет старые файлы экспорта по TTL.
type Cleaner struct {
	logger *zap.SugaredLogger
	dir    string
	ttl    time.Duration
}

func NewCleaner(logger *zap.SugaredLogger, dir string, ttl time.Duration) *Cleaner {
	return &Cleaner{logger: logger, dir: dir, ttl: ttl}
}

// Clean удаляет файлы экспорта старше ttl. Возвращает число удалённых файлов.
// Чужие файлы в каталоге не трогает.
func (c *Cleaner) Clean(now time.Time) int {
	if c.ttl <= 0 || c.dir == "" {
		return 0
	}
	deadline := now.Add(-c.ttl)

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warnw("Не удалось прочитать директорию экспорта для очистки", "dir", c.dir, "error", err)
		}
		return 0
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !isExport(e.Name()) {
			continue
		}
		fi, statErr := e.Info()
		if statErr != nil {
			c.logger.Warnw("Не удалось получить информацию о файле экспорта", "name", e.Name(), "error", statErr)
			continue
		}
		if fi.ModTime().Before(deadline) {
			full := filepath.Join(c.dir, e.Name())
			if err := os.Remove(full); err != nil {
				c.logger.Warnw("Не удалось удалить старый экспорт", "path", full, "error", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		c.logger.Infow("Старые экспорты удалены", "dir", c.dir, "removed", removed)
	}
	return removed
}

// Run чистит каталог каждые interval до отмены контекста.
func (c *Cleaner) Run(ctx context.Context, interval time.Duration) {
	if c.ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = c.ttl
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			c.Clean(now)
		}
	}
}

func isExport(name string) bool {
	switch {
	case strings.HasPrefix(name, DataPrefix) && strings.HasSuffix(name, ".json"):
		return true
	case strings.HasPrefix(name, ImagePrefix) && strings.HasSuffix(name, ".png"):
		return true
	}
	return false
}
