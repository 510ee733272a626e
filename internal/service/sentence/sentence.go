package sentence

import (
	"StrokeRecorder/internal/model"
	"encoding/json"
	"sync"
)

// Sentence — потокобезопасный упорядоченный список финализированных символов.
// Порядок вставки совпадает с порядком финализации.
type Sentence struct {
	mu    sync.Mutex
	chars []model.Character
}

func New() *Sentence { return &Sentence{} }

// Append добавляет символ и назначает ему индекс, равный текущей длине.
func (s *Sentence) Append(c model.Character) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Index = len(s.chars)
	s.chars = append(s.chars, c)
	return c.Index
}

// Reset очищает предложение целиком.
func (s *Sentence) Reset() {
	s.mu.Lock()
	s.chars = nil
	s.mu.Unlock()
}

func (s *Sentence) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chars)
}

// Characters возвращает копию списка символов.
func (s *Sentence) Characters() []model.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Character, len(s.chars))
	copy(out, s.chars)
	return out
}

// Serialize возвращает JSON-массив символов с отступом в два пробела.
// Пустое предложение сериализуется как [].
func (s *Sentence) Serialize() ([]byte, error) {
	chars := s.Characters()
	return json.MarshalIndent(chars, "", "  ")
}

// Parse разбирает экспорт обратно в список символов.
func Parse(data []byte) ([]model.Character, error) {
	var chars []model.Character
	if err := json.Unmarshal(data, &chars); err != nil {
		return nil, err
	}
	return chars, nil
}
