package stroke

import (
	"errors"
	"testing"
)

func TestRecorderRelativeTimes(t *testing.T) {
	r := NewRecorder()
	if err := r.Begin(10, 20, 1000); err != nil {
		t.Fatalf("begin: %v", err)
	}
	r.Extend(11, 21, 1016)
	r.Extend(12, 22, 1033)
	s, ok := r.End(1040)
	if !ok {
		t.Fatal("expected stroke to be kept")
	}
	if s.StartTime != 1000 || s.EndTime != 1040 {
		t.Errorf("times = %v..%v, want 1000..1040", s.StartTime, s.EndTime)
	}
	wantT := []float64{0, 16, 33}
	if len(s.Points) != len(wantT) {
		t.Fatalf("points = %d, want %d", len(s.Points), len(wantT))
	}
	for i, p := range s.Points {
		if p.T != wantT[i] {
			t.Errorf("point %d t = %v, want %v", i, p.T, wantT[i])
		}
	}
	if s.Points[2].X != 12 || s.Points[2].Y != 22 {
		t.Errorf("last point = %+v", s.Points[2])
	}
	if r.Open() {
		t.Error("recorder still open after End")
	}
}

func TestRecorderDiscardsDegenerate(t *testing.T) {
	r := NewRecorder()
	_ = r.Begin(5, 5, 0)
	if _, ok := r.End(30); ok {
		t.Error("single-point stroke must be discarded")
	}
	if r.Open() {
		t.Error("discarded stroke left recorder open")
	}
}

func TestRecorderNoOpenStroke(t *testing.T) {
	r := NewRecorder()
	r.Extend(1, 1, 10)
	if _, ok := r.End(20); ok {
		t.Error("End without Begin must report nothing")
	}
}

func TestRecorderSecondBeginIgnored(t *testing.T) {
	r := NewRecorder()
	_ = r.Begin(1, 1, 0)
	r.Extend(2, 2, 5)
	if err := r.Begin(50, 50, 6); !errors.Is(err, ErrStrokeOpen) {
		t.Fatalf("second Begin err = %v, want ErrStrokeOpen", err)
	}
	s, ok := r.End(10)
	if !ok {
		t.Fatal("original stroke lost")
	}
	if s.Points[0].X != 1 || len(s.Points) != 2 {
		t.Errorf("original stroke overwritten: %+v", s.Points)
	}
}

func TestRecorderClampsOutOfOrderSamples(t *testing.T) {
	r := NewRecorder()
	_ = r.Begin(0, 0, 100)
	r.Extend(1, 0, 120)
	r.Extend(2, 0, 110)
	s, _ := r.End(90)
	if s.Points[2].T != 20 {
		t.Errorf("out-of-order t = %v, want clamped 20", s.Points[2].T)
	}
	if s.EndTime != 100 {
		t.Errorf("EndTime = %v, want clamped to StartTime 100", s.EndTime)
	}
}

func TestRecorderAbort(t *testing.T) {
	r := NewRecorder()
	_ = r.Begin(0, 0, 0)
	r.Extend(1, 1, 1)
	r.Abort()
	if _, ok := r.End(2); ok {
		t.Error("aborted stroke must not be returned")
	}
}
