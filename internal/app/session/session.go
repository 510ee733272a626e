package session

import (
	"StrokeRecorder/internal/clock"
	"StrokeRecorder/internal/model"
	"StrokeRecorder/internal/service/raster"
	"StrokeRecorder/internal/service/segmenter"
	"StrokeRecorder/internal/service/sentence"
	"StrokeRecorder/internal/service/stroke"
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNothingToExport — экспорт запрошен, а финализированных символов нет.
var ErrNothingToExport = errors.New("session: nothing to export")

// EmptyExportNotice — текст уведомления пользователю при пустом экспорте.
const EmptyExportNotice = "There is nothing to save yet."

// Presenter — слой отображения: живой штрих, полоса миниатюр, уведомления.
// Методы не должны блокироваться.
type Presenter interface {
	StrokeRendered(s model.Stroke)
	ThumbnailAppended(index int, thumb image.Image)
	SurfaceCleared()
	Notice(msg string)
}

// Cue — звуковой сигнал завершения символа (fire-and-forget).
type Cue interface {
	Play()
}

type Options struct {
	ID        string
	Clock     clock.Clock
	Timeout   time.Duration
	Renderer  raster.Renderer
	Columns   int
	Presenter Presenter
	Cue       Cue
	Logger    *zap.SugaredLogger
}

// Session — один сеанс захвата: поверхность, текущий символ и накопленное предложение.
// События указателя сериализуются мьютексом сессии; таймер сегментатора
// приходит в своей горутине и берёт только блокировку сегментатора.
type Session struct {
	id        string
	clock     clock.Clock
	renderer  raster.Renderer
	columns   int
	presenter Presenter
	cue       Cue
	logger    *zap.SugaredLogger

	mu       sync.Mutex
	recorder *stroke.Recorder
	seg      *segmenter.Segmenter
	sentence *sentence.Sentence
	strip    *raster.Strip
}

func New(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem()
	}
	if opts.Columns <= 0 {
		opts.Columns = raster.DefaultColumns
	}
	if opts.Renderer == (raster.Renderer{}) {
		opts.Renderer = raster.NewRenderer()
	}
	if opts.Presenter == nil {
		opts.Presenter = nopPresenter{}
	}
	if opts.Cue == nil {
		opts.Cue = nopCue{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	s := &Session{
		id:        opts.ID,
		clock:     opts.Clock,
		renderer:  opts.Renderer,
		columns:   opts.Columns,
		presenter: opts.Presenter,
		cue:       opts.Cue,
		logger:    opts.Logger.With("session", opts.ID),
		recorder:  stroke.NewRecorder(),
		sentence:  sentence.New(),
		strip:     raster.NewStrip(),
	}
	s.seg = segmenter.New(opts.Clock, opts.Timeout, s.finalized, s.logger)
	return s
}

func (s *Session) ID() string { return s.id }

// Now возвращает текущее время таймбейза сессии, мс.
func (s *Session) Now() float64 { return s.clock.Now() }

// PointerDown начинает штрих. Второй одновременный указатель игнорируется.
func (s *Session) PointerDown(x, y, at float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.recorder.Begin(x, y, at); err != nil {
		s.logger.Debugw("Pointer down ignored", "error", err)
		return
	}
	s.seg.StrokeStarted()
}

// PointerMove добавляет точку к открытому штриху. Без штриха — no-op.
func (s *Session) PointerMove(x, y, at float64) {
	s.mu.Lock()
	s.recorder.Extend(x, y, at)
	s.mu.Unlock()
}

// PointerUp закрывает штрих и передаёт его сегментатору. Без штриха — no-op.
func (s *Session) PointerUp(at float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recorder.Open() {
		return
	}
	st, ok := s.recorder.End(at)
	if !ok {
		s.logger.Debugw("Degenerate stroke discarded")
	}
	s.seg.StrokeFinished(st, ok)
	if ok {
		s.presenter.StrokeRendered(st)
	}
}

// Reset очищает незавершённый символ, предложение и миниатюры, отменяет таймер.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder.Abort()
	s.seg.Reset()
	s.sentence.Reset()
	s.strip.Reset()
	s.presenter.SurfaceCleared()
	s.logger.Infow("Session reset")
}

// Close останавливает таймер без финализации.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder.Abort()
	s.seg.Reset()
}

// SetTimeout меняет таймаут бездействия; действует со следующего взвода таймера.
func (s *Session) SetTimeout(d time.Duration) error {
	if err := s.seg.SetTimeout(d); err != nil {
		return err
	}
	s.logger.Infow("Inactivity timeout changed", "timeout", d.String())
	return nil
}

func (s *Session) Timeout() time.Duration { return s.seg.Timeout() }

// NudgeTimeout сдвигает таймаут на delta. Уменьшение возможно, только пока
// текущее значение больше floor.
func (s *Session) NudgeTimeout(delta, floor time.Duration) (time.Duration, error) {
	d, err := s.seg.Nudge(delta, floor)
	if err != nil {
		return d, err
	}
	s.logger.Infow("Inactivity timeout changed", "timeout", d.String())
	return d, nil
}

func (s *Session) State() segmenter.State { return s.seg.State() }

// Len возвращает число финализированных символов.
func (s *Session) Len() int { return s.sentence.Len() }

func (s *Session) Characters() []model.Character { return s.sentence.Characters() }

// ExportJSON сериализует предложение. Пустое предложение — ErrNothingToExport.
func (s *Session) ExportJSON() ([]byte, error) {
	if s.sentence.Len() == 0 {
		return nil, ErrNothingToExport
	}
	return s.sentence.Serialize()
}

// ExportPNG собирает миниатюры в сетку и кодирует в PNG.
func (s *Session) ExportPNG() ([]byte, error) {
	thumbs := s.strip.Images()
	if len(thumbs) == 0 {
		return nil, ErrNothingToExport
	}
	grid, err := raster.Grid(thumbs, s.columns)
	if err != nil {
		return nil, fmt.Errorf("session: composite: %w", err)
	}
	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, grid); err != nil {
		return nil, fmt.Errorf("session: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// finalized вызывается сегментатором под его блокировкой; s.mu здесь не берём.
func (s *Session) finalized(c model.Character) {
	idx := s.sentence.Append(c)

	thumb, err := s.renderer.Thumbnail(c.Strokes)
	if err != nil {
		// миниатюр должно быть ровно столько же, сколько символов
		s.logger.Errorw("Thumbnail rendering failed", "index", idx, "error", err)
		size := max(1, s.renderer.ThumbnailSize)
		thumb = image.NewRGBA(image.Rect(0, 0, size, size))
	}
	s.strip.Append(thumb)

	s.cue.Play()
	s.presenter.SurfaceCleared()
	s.presenter.ThumbnailAppended(idx, thumb)
	s.logger.Infow("Character finalized", "index", idx, "strokes", len(c.Strokes), "points", c.PointCount())
}

type nopPresenter struct{}

func (nopPresenter) StrokeRendered(model.Stroke)        {}
func (nopPresenter) ThumbnailAppended(int, image.Image) {}
func (nopPresenter) SurfaceCleared()                    {}
func (nopPresenter) Notice(string)                      {}

type nopCue struct{}

func (nopCue) Play() {}
