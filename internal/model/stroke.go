package model

import (
	"encoding/json"
	"fmt"
)

// Point — одна точка штриха. T — миллисекунды от начала штриха, X/Y — координаты поверхности.
type Point struct {
	T float64
	X float64
	Y float64
}

// Stroke — непрерывный жест от нажатия до отпускания.
// StartTime/EndTime — абсолютные миллисекунды таймбейза сессии.
// Index выставляется при финализации символа (позиция штриха в символе).
type Stroke struct {
	Index     int
	StartTime float64
	EndTime   float64
	Points    []Point
}

// Duration возвращает длительность штриха в миллисекундах.
func (s Stroke) Duration() float64 { return s.EndTime - s.StartTime }

// Clone возвращает копию штриха с собственным срезом точек.
func (s Stroke) Clone() Stroke {
	out := s
	out.Points = append([]Point(nil), s.Points...)
	return out
}

// strokeJSON — колоночная форма штриха в экспорте.
type strokeJSON struct {
	StrokeIndex int       `json:"strokeIndex"`
	StartTime   float64   `json:"startTime"`
	EndTime     float64   `json:"endTime"`
	T           []float64 `json:"t"`
	X           []float64 `json:"x"`
	Y           []float64 `json:"y"`
}

// MarshalJSON раскладывает точки по колонкам t/x/y.
func (s Stroke) MarshalJSON() ([]byte, error) {
	out := strokeJSON{
		StrokeIndex: s.Index,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		T:           make([]float64, len(s.Points)),
		X:           make([]float64, len(s.Points)),
		Y:           make([]float64, len(s.Points)),
	}
	for i, p := range s.Points {
		out.T[i] = p.T
		out.X[i] = p.X
		out.Y[i] = p.Y
	}
	return json.Marshal(out)
}

// UnmarshalJSON собирает точки из колонок. Колонки разной длины — ошибка.
func (s *Stroke) UnmarshalJSON(b []byte) error {
	var in strokeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if len(in.T) != len(in.X) || len(in.X) != len(in.Y) {
		return fmt.Errorf("stroke %d: column length mismatch t=%d x=%d y=%d", in.StrokeIndex, len(in.T), len(in.X), len(in.Y))
	}
	s.Index = in.StrokeIndex
	s.StartTime = in.StartTime
	s.EndTime = in.EndTime
	s.Points = make([]Point, len(in.T))
	for i := range in.T {
		s.Points[i] = Point{T: in.T[i], X: in.X[i], Y: in.Y[i]}
	}
	return nil
}
