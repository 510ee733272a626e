package raster

import (
	"image"
	"sync"
)

// Strip — упорядоченный список миниатюр в порядке финализации символов.
type Strip struct {
	mu     sync.Mutex
	images []image.Image
}

func NewStrip() *Strip { return &Strip{} }

// Append добавляет миниатюру и возвращает её позицию.
func (s *Strip) Append(img image.Image) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, img)
	return len(s.images) - 1
}

func (s *Strip) Reset() {
	s.mu.Lock()
	s.images = nil
	s.mu.Unlock()
}

func (s *Strip) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// Images возвращает копию списка.
func (s *Strip) Images() []image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]image.Image, len(s.images))
	copy(out, s.images)
	return out
}
