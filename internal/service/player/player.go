package player

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// SampleRate — частота, на которой инициализируется динамик. Файлы пересэмплируются под неё.
const SampleRate beep.SampleRate = 44100

// SquareAmplitude — амплитуда синтезируемого меандра (громкость сигнала 0.3).
const SquareAmplitude = 0.3

// dbBase — основание для effects.Volume, при котором Volume задаётся в децибелах.
var dbBase = math.Pow(10, 1.0/20)

// ErrUnavailable — аудиовывод недоступен (не удалось открыть устройство).
var ErrUnavailable = errors.New("player: audio output unavailable")

// Player воспроизводит аудио и блокируется до конца воспроизведения.
type Player interface {
	Play(format string, r io.ReadCloser) error
	Tone(freqHz float64, d time.Duration) error
}

// Default реализует Player поверх beep/speaker. Динамик инициализируется один раз.
type Default struct {
	volumeDB float64

	initOnce sync.Once
	initErr  error
}

// New создаёт плеер без изменения громкости (0 dB).
func New() *Default { return &Default{} }

// NewWithVolume создаёт плеер с предустановленной громкостью в dB (отрицательные — тише).
func NewWithVolume(db float64) *Default { return &Default{volumeDB: db} }

func (d *Default) Play(format string, r io.ReadCloser) error {
	var (
		streamer beep.StreamSeekCloser
		f        beep.Format
		err      error
	)
	switch format {
	case "wav", "WAV":
		streamer, f, err = wav.Decode(r)
	case "mp3", "MP3":
		streamer, f, err = mp3.Decode(r)
	default:
		return errors.New("unsupported format for direct playback; use mp3 or wav")
	}
	if err != nil {
		return err
	}
	defer streamer.Close()

	if err := d.init(); err != nil {
		return err
	}
	d.play(beep.Resample(4, f.SampleRate, SampleRate, streamer))
	return nil
}

// Tone проигрывает меандр частоты freqHz длительностью dur.
func (d *Default) Tone(freqHz float64, dur time.Duration) error {
	if freqHz <= 0 || dur <= 0 {
		return fmt.Errorf("player: invalid tone %.1fHz for %s", freqHz, dur)
	}
	if err := d.init(); err != nil {
		return err
	}
	d.play(beep.Take(SampleRate.N(dur), square(freqHz, SampleRate)))
	return nil
}

func (d *Default) init() error {
	d.initOnce.Do(func() {
		if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
			d.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	})
	return d.initErr
}

func (d *Default) play(s beep.Streamer) {
	vol := &effects.Volume{
		Streamer: s,
		Base:     dbBase,
		Volume:   d.volumeDB,
		Silent:   false,
	}
	done := make(chan struct{})
	speaker.Play(beep.Seq(vol, beep.Callback(func() { close(done) })))
	<-done
}

// square возвращает бесконечный меандр с амплитудой SquareAmplitude.
func square(freqHz float64, sr beep.SampleRate) beep.Streamer {
	step := freqHz / float64(sr)
	phase := 0.0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := SquareAmplitude
			if phase >= 0.5 {
				v = -SquareAmplitude
			}
			samples[i][0], samples[i][1] = v, v
			phase += step
			if phase >= 1 {
				phase--
			}
		}
		return len(samples), true
	})
}
