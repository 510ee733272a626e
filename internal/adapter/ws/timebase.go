package ws

// Timebase переводит метки времени устройства в таймбейз сессии.
// Смещение фиксируется по первому событию с меткой и дальше не меняется,
// поэтому интервалы между выборками устройства сохраняются точно.
// Используется только из горутины чтения соединения.
type Timebase struct {
	offset float64
	set    bool
}

// Align возвращает время события в мс таймбейза сессии.
// deviceT == nil — событие без метки, берётся now.
func (tb *Timebase) Align(deviceT *float64, now float64) float64 {
	if deviceT == nil {
		return now
	}
	if !tb.set {
		tb.offset = now - *deviceT
		tb.set = true
	}
	return *deviceT + tb.offset
}
