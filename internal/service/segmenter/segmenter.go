package segmenter

import (
	"StrokeRecorder/internal/clock"
	"StrokeRecorder/internal/model"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout — таймаут бездействия по умолчанию.
const DefaultTimeout = time.Second

// ErrInvalidTimeout возвращается при попытке задать неположительный таймаут.
var ErrInvalidTimeout = errors.New("segmenter: timeout must be positive")

// State — логическое состояние сегментатора.
type State int

const (
	StateIdle         State = iota // штрихов текущего символа нет
	StateAccumulating              // есть принятые штрихи, таймер взведён
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	default:
		return "unknown"
	}
}

// FinalizeFunc получает готовый символ. Вызывается под внутренней блокировкой
// сегментатора, поэтому не должна обращаться к нему обратно.
type FinalizeFunc func(model.Character)

// Segmenter группирует штрихи в символы по таймауту бездействия.
// Таймер срабатывает в своей горутине, поэтому все переходы сериализуются мьютексом.
type Segmenter struct {
	clock      clock.Clock
	onFinalize FinalizeFunc
	logger     *zap.SugaredLogger

	mu        sync.Mutex
	timeout   time.Duration
	strokes   []model.Stroke
	startTime float64
	timer     clock.Timer
	gen       int64 // поколение таймера; устаревшие срабатывания отбрасываются
	drawing   bool  // перо опущено
	deferred  bool  // таймер истёк во время рисования
}

func New(c clock.Clock, timeout time.Duration, onFinalize FinalizeFunc, logger *zap.SugaredLogger) *Segmenter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Segmenter{clock: c, timeout: timeout, onFinalize: onFinalize, logger: logger}
}

// StrokeStarted отмечает нажатие пера.
func (s *Segmenter) StrokeStarted() {
	s.mu.Lock()
	s.drawing = true
	s.mu.Unlock()
}

// StrokeFinished принимает результат Recorder.End. Отброшенный штрих (ok == false)
// не взводит и не сбрасывает таймер.
func (s *Segmenter) StrokeFinished(st model.Stroke, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawing = false

	if !ok {
		if s.deferred {
			s.deferred = false
			s.finalizeLocked()
		}
		return
	}

	if len(s.strokes) == 0 {
		s.startTime = st.StartTime
	}
	s.strokes = append(s.strokes, st)
	s.deferred = false
	s.armLocked()
}

// Reset отменяет таймер и выбрасывает незавершённый символ без финализации.
func (s *Segmenter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.gen++
	s.strokes = nil
	s.startTime = 0
	s.drawing = false
	s.deferred = false
}

// SetTimeout меняет таймаут. Уже взведённый таймер сохраняет прежнюю длительность.
func (s *Segmenter) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidTimeout
	}
	s.mu.Lock()
	s.timeout = d
	s.mu.Unlock()
	return nil
}

// Nudge сдвигает таймаут на delta одной операцией под блокировкой.
// Уменьшение возможно, только пока текущее значение больше floor.
// Возвращает итоговый таймаут; при ошибке таймаут не меняется.
func (s *Segmenter) Nudge(delta, floor time.Duration) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if delta < 0 && s.timeout <= floor {
		return s.timeout, nil
	}
	next := s.timeout + delta
	if next <= 0 {
		return s.timeout, ErrInvalidTimeout
	}
	s.timeout = next
	return next, nil
}

func (s *Segmenter) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

func (s *Segmenter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.strokes) == 0 {
		return StateIdle
	}
	return StateAccumulating
}

// Pending возвращает число накопленных штрихов текущего символа.
func (s *Segmenter) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.strokes)
}

func (s *Segmenter) armLocked() {
	s.stopLocked()
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.timeout, func() { s.fire(gen) })
}

func (s *Segmenter) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Segmenter) fire(gen int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debugw("Stale inactivity timer ignored", "gen", gen, "current", s.gen)
		return
	}
	s.timer = nil
	if len(s.strokes) == 0 {
		return
	}
	if s.drawing {
		s.deferred = true
		return
	}
	s.finalizeLocked()
}

func (s *Segmenter) finalizeLocked() {
	if len(s.strokes) == 0 {
		return
	}
	c := model.Character{
		StartTime:    s.startTime,
		FinalizeTime: s.clock.Now(),
		Strokes:      s.strokes,
	}
	for i := range c.Strokes {
		c.Strokes[i].Index = i
	}
	s.strokes = nil
	s.startTime = 0
	s.stopLocked()
	s.gen++

	s.logger.Debugw("Character finalized", "strokes", len(c.Strokes), "startTime", c.StartTime, "finalizeTime", c.FinalizeTime)
	if s.onFinalize != nil {
		s.onFinalize(c)
	}
}
