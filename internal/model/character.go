package model

// Character — финализированный символ: один или несколько штрихов,
// сгруппированных по таймауту бездействия.
type Character struct {
	Index        int      `json:"characterIndex"`
	StartTime    float64  `json:"characterStartTime"`
	FinalizeTime float64  `json:"characterFinalizeTime"`
	Strokes      []Stroke `json:"strokes"`
}

// PointCount возвращает суммарное число точек во всех штрихах.
func (c Character) PointCount() int {
	n := 0
	for _, s := range c.Strokes {
		n += len(s.Points)
	}
	return n
}
