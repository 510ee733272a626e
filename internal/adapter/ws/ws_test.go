package ws

import (
	"StrokeRecorder/internal/app/session"
	"StrokeRecorder/internal/clock"
	"StrokeRecorder/internal/service/export"
	"image"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type countingCue struct{ n atomic.Int64 }

func (c *countingCue) Play() { c.n.Add(1) }

type harness struct {
	conn    *websocket.Conn
	handler *Handler
	clock   *clock.Manual
	reg     *session.Registry
	cue     *countingCue
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{clock: clock.NewManual(0), reg: session.NewRegistry(), cue: &countingCue{}, dir: t.TempDir()}
	handler := NewHandler(Options{
		Registry: h.reg,
		NewSession: func(id string, p session.Presenter, cue session.Cue) *session.Session {
			return session.New(session.Options{ID: id, Clock: h.clock, Timeout: time.Second, Presenter: p, Cue: cue})
		},
		Cue:          h.cue,
		Saver:        export.NewWriter(h.dir),
		SoundEnabled: true,
		TimeoutStep:  50 * time.Millisecond,
		MinTimeout:   100 * time.Millisecond,
	})
	h.handler = handler
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	h.conn = conn
	return h
}

func (h *harness) send(t *testing.T, m Inbound) {
	t.Helper()
	if err := h.conn.WriteJSON(m); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func (h *harness) read(t *testing.T) Outbound {
	t.Helper()
	_ = h.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var m Outbound
	if err := h.conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func (h *harness) expect(t *testing.T, typ string) Outbound {
	t.Helper()
	m := h.read(t)
	if m.Type != typ {
		t.Fatalf("got %q message %+v, want %q", m.Type, m, typ)
	}
	return m
}

func ms(v float64) *float64 { return &v }

func (h *harness) stroke(t *testing.T, t0 float64) {
	t.Helper()
	h.send(t, Inbound{Type: TypeDown, X: 10, Y: 10, T: ms(t0)})
	h.send(t, Inbound{Type: TypeMove, X: 30, Y: 40, T: ms(t0 + 10)})
	h.send(t, Inbound{Type: TypeMove, X: 50, Y: 20, T: ms(t0 + 20)})
	h.send(t, Inbound{Type: TypeUp, T: ms(t0 + 20)})
}

func TestHandlerCaptureAndSave(t *testing.T) {
	h := newHarness(t)

	hello := h.expect(t, TypeHello)
	if hello.Session == "" || hello.TimeoutMs != 1000 || hello.Sound == nil || !*hello.Sound {
		t.Fatalf("hello = %+v", hello)
	}
	if _, ok := h.reg.Get(hello.Session); !ok {
		t.Fatal("session not registered")
	}

	h.stroke(t, 5000)
	st := h.expect(t, TypeStroke).Stroke
	if st == nil || st.StartTime != 0 || st.EndTime != 20 || len(st.Points) != 3 || st.Points[2].T != 20 {
		t.Fatalf("stroke = %+v", st)
	}

	// таймер взведён до отправки stroke
	h.clock.Advance(time.Second)
	h.expect(t, TypeClear)
	thumb := h.expect(t, TypeThumbnail)
	if thumb.Index == nil || *thumb.Index != 0 || !strings.HasPrefix(thumb.Data, "data:image/png;base64,") {
		t.Fatalf("thumbnail = %+v", thumb)
	}
	if h.cue.n.Load() != 1 {
		t.Errorf("cue played %d times", h.cue.n.Load())
	}

	h.send(t, Inbound{Type: TypeSaveJSON})
	saved := h.expect(t, TypeSaved)
	if filepath.Dir(saved.Path) != h.dir || !strings.HasPrefix(filepath.Base(saved.Path), export.DataPrefix) {
		t.Fatalf("saved path = %q", saved.Path)
	}
	if _, err := os.Stat(saved.Path); err != nil {
		t.Fatalf("saved file: %v", err)
	}

	h.send(t, Inbound{Type: TypeSavePNG})
	saved = h.expect(t, TypeSaved)
	if !strings.HasSuffix(saved.Path, ".png") {
		t.Errorf("png path = %q", saved.Path)
	}
}

func TestHandlerCommands(t *testing.T) {
	h := newHarness(t)
	h.expect(t, TypeHello)

	h.send(t, Inbound{Type: TypeSaveJSON})
	if n := h.expect(t, TypeNotice); n.Message != session.EmptyExportNotice {
		t.Errorf("notice = %q", n.Message)
	}

	h.send(t, Inbound{Type: TypeTimeoutDown})
	if m := h.expect(t, TypeTimeout); m.TimeoutMs != 950 {
		t.Errorf("timeout_down -> %d", m.TimeoutMs)
	}
	h.send(t, Inbound{Type: TypeTimeout, Value: ms(300)})
	if m := h.expect(t, TypeTimeout); m.TimeoutMs != 300 {
		t.Errorf("timeout -> %d", m.TimeoutMs)
	}
	h.send(t, Inbound{Type: TypeTimeout, Value: ms(0)})
	h.expect(t, TypeNotice)

	h.send(t, Inbound{Type: "bogus"})
	h.send(t, Inbound{Type: TypeReset})
	h.expect(t, TypeClear)
	h.expect(t, TypeReset)
}

func TestHandlerSoundToggle(t *testing.T) {
	h := newHarness(t)
	h.expect(t, TypeHello)

	h.send(t, Inbound{Type: TypeSound, Value: ms(0)})
	h.stroke(t, 100)
	h.expect(t, TypeStroke)
	h.clock.Advance(time.Second)
	h.expect(t, TypeClear)
	h.expect(t, TypeThumbnail)
	if h.cue.n.Load() != 0 {
		t.Error("cue played while sound is off")
	}

	// включение звука подтверждается одним сигналом, повторное — нет
	for i := range 2 {
		h.send(t, Inbound{Type: TypeSound, Value: ms(1)})
		h.send(t, Inbound{Type: TypeTimeoutUp})
		h.expect(t, TypeTimeout)
		if got := h.cue.n.Load(); got != 1 {
			t.Errorf("after sound on #%d cue played %d times, want 1", i+1, got)
		}
	}
}

func TestHandlerRejectsNonIntegerTimeout(t *testing.T) {
	h := newHarness(t)
	h.expect(t, TypeHello)

	for _, v := range []float64{0.4, 1.5, 0, -20, 1e300} {
		h.send(t, Inbound{Type: TypeTimeout, Value: ms(v)})
		if n := h.expect(t, TypeNotice); !strings.Contains(n.Message, "timeout") {
			t.Errorf("value %v: notice %q", v, n.Message)
		}
	}
	// таймаут не изменился: 1000 + шаг
	h.send(t, Inbound{Type: TypeTimeoutUp})
	if m := h.expect(t, TypeTimeout); m.TimeoutMs != 1050 {
		t.Errorf("timeout after rejected values = %d, want 1050", m.TimeoutMs)
	}

	h.send(t, Inbound{Type: TypeTimeout, Value: ms(1)})
	if m := h.expect(t, TypeTimeout); m.TimeoutMs != 1 {
		t.Errorf("timeout 1 -> %d", m.TimeoutMs)
	}
}

func TestHandlerCloseDropsConnections(t *testing.T) {
	h := newHarness(t)
	h.expect(t, TypeHello)
	if h.handler.Active() != 1 {
		t.Fatalf("active = %d", h.handler.Active())
	}

	h.handler.Close()
	if h.reg.Len() != 0 || h.handler.Active() != 0 {
		t.Errorf("after Close: sessions=%d active=%d", h.reg.Len(), h.handler.Active())
	}
	_ = h.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := h.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestHandlerDisconnectRemovesSession(t *testing.T) {
	h := newHarness(t)
	h.expect(t, TypeHello)
	_ = h.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = h.conn.Close()

	deadline := time.Now().Add(3 * time.Second)
	for h.reg.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session still registered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTimebaseAlign(t *testing.T) {
	var tb Timebase
	if got := tb.Align(nil, 42); got != 42 {
		t.Errorf("unstamped = %v", got)
	}
	if got := tb.Align(ms(10_000), 500); got != 500 {
		t.Errorf("first stamped = %v", got)
	}
	// смещение не меняется при дрейфе часов сессии
	if got := tb.Align(ms(10_250), 9999); got != 750 {
		t.Errorf("second stamped = %v", got)
	}
}

func TestOutboxDropsOnOverflow(t *testing.T) {
	o := NewOutbox(nil, 1)
	o.SurfaceCleared()
	o.Notice("second")
	if o.Dropped() != 1 {
		t.Errorf("dropped = %d", o.Dropped())
	}
	o.Close()
	o.Close()
	o.ThumbnailAppended(0, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if o.Dropped() != 1 {
		t.Error("closed outbox counted a drop")
	}
}
