package player

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestSquareWaveShape(t *testing.T) {
	// 4 сэмпла на период: два положительных, два отрицательных
	s := square(11025, SampleRate)
	buf := make([][2]float64, 8)
	n, ok := s.Stream(buf)
	if !ok || n != 8 {
		t.Fatalf("Stream = %d, %v", n, ok)
	}
	want := []float64{0.3, 0.3, -0.3, -0.3, 0.3, 0.3, -0.3, -0.3}
	for i, w := range want {
		if buf[i][0] != w || buf[i][1] != w {
			t.Errorf("sample %d = %v, want %v", i, buf[i], w)
		}
	}
}

func TestPlayRejectsUnknownFormat(t *testing.T) {
	err := New().Play("ogg", io.NopCloser(strings.NewReader("")))
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("err = %v", err)
	}
}

func TestToneRejectsInvalidArgs(t *testing.T) {
	if err := New().Tone(0, time.Second); err == nil {
		t.Error("expected error for zero frequency")
	}
	if err := New().Tone(880, 0); err == nil {
		t.Error("expected error for zero duration")
	}
}
