package notify

import (
	"StrokeRecorder/internal/service/player"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultFrequencyHz = 880
	DefaultDuration    = 80 * time.Millisecond
)

// Config параметры звукового сигнала завершения символа.
type Config struct {
	Enabled     bool
	SoundPath   string // wav|mp3; пусто — синтезированный тон
	FrequencyHz float64
	Duration    time.Duration
}

// SoundNotifier проигрывает короткий сигнал после финализации символа.
// Play не блокирует; если аудиовывод недоступен, сигнал отключается навсегда.
type SoundNotifier struct {
	logger *zap.SugaredLogger
	ply    player.Player
	cfg    Config

	enabled     atomic.Bool
	unavailable atomic.Bool
	running     atomic.Bool
	played      atomic.Int64
}

func NewSoundNotifier(logger *zap.SugaredLogger, ply player.Player, cfg Config) *SoundNotifier {
	if cfg.FrequencyHz <= 0 {
		cfg.FrequencyHz = DefaultFrequencyHz
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if p := strings.TrimSpace(cfg.SoundPath); p != "" {
		cfg.SoundPath = resolve(p)
	}
	n := &SoundNotifier{logger: logger, ply: ply, cfg: cfg}
	n.enabled.Store(cfg.Enabled)
	return n
}

// resolve ищет файл сначала рядом с бинарём, потом от рабочей директории.
func resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	if exe, err := os.Executable(); err == nil {
		cand := filepath.Join(filepath.Dir(exe), p)
		if _, statErr := os.Stat(cand); statErr == nil {
			return cand
		}
	}
	return filepath.FromSlash(p)
}

// Play запускает сигнал в фоне. Если предыдущий ещё звучит — пропускаем.
func (n *SoundNotifier) Play() {
	if !n.Enabled() {
		return
	}
	if !n.running.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer n.running.Store(false)
		if err := n.play(); err != nil {
			n.handleErr(err)
			return
		}
		n.played.Add(1)
	}()
}

func (n *SoundNotifier) play() error {
	if n.cfg.SoundPath != "" {
		err := n.playFile(n.cfg.SoundPath)
		if err == nil || errors.Is(err, player.ErrUnavailable) {
			return err
		}
		n.logger.Warnw("Не удалось проиграть файл сигнала, используем тон", "path", n.cfg.SoundPath, "error", err)
	}
	return n.ply.Tone(n.cfg.FrequencyHz, n.cfg.Duration)
}

func (n *SoundNotifier) playFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		ext = "mp3"
	}
	return n.ply.Play(ext, f)
}

func (n *SoundNotifier) handleErr(err error) {
	if errors.Is(err, player.ErrUnavailable) {
		if n.unavailable.CompareAndSwap(false, true) {
			n.logger.Warnw("Аудиовывод недоступен, сигнал завершения отключён", "error", err)
		}
		return
	}
	n.logger.Warnw("Ошибка воспроизведения сигнала", "error", err)
}

// SetEnabled включает или выключает сигнал.
func (n *SoundNotifier) SetEnabled(v bool) { n.enabled.Store(v) }

// Enabled сообщает, будет ли сигнал звучать.
func (n *SoundNotifier) Enabled() bool { return n.enabled.Load() && !n.unavailable.Load() }

// Available сообщает, есть ли аудиовывод.
func (n *SoundNotifier) Available() bool { return !n.unavailable.Load() }

// Played возвращает число успешно проигранных сигналов.
func (n *SoundNotifier) Played() int64 { return n.played.Load() }
