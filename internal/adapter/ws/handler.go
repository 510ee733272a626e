package ws

import (
	"StrokeRecorder/internal/app/session"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// maxTimeoutMs — предел, при котором таймаут ещё помещается в time.Duration.
const maxTimeoutMs = float64(math.MaxInt64 / int64(time.Millisecond))

// SessionFactory создаёт сессию для нового подключения.
type SessionFactory func(id string, p session.Presenter, cue session.Cue) *session.Session

// Saver сохраняет экспорт и возвращает путь к файлу.
type Saver interface {
	WriteJSON(data []byte) (string, error)
	WritePNG(data []byte) (string, error)
}

type Options struct {
	Registry     *session.Registry
	NewSession   SessionFactory
	Cue          session.Cue
	Saver        Saver
	SoundEnabled bool
	TimeoutStep  time.Duration
	MinTimeout   time.Duration
	OutboxSize   int
	Logger       *zap.SugaredLogger
}

// Handler принимает WebSocket-подключения поверхности захвата.
// Каждое подключение — отдельная сессия в реестре; при отключении сессия
// удаляется, незавершённый символ пропадает.
type Handler struct {
	opts     Options
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Registry == nil {
		opts.Registry = session.NewRegistry()
	}
	if opts.NewSession == nil {
		opts.NewSession = func(id string, p session.Presenter, cue session.Cue) *session.Session {
			return session.New(session.Options{ID: id, Presenter: p, Cue: cue, Logger: opts.Logger})
		}
	}
	return &Handler{
		opts:   opts,
		logger: opts.Logger,
		conns:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// поверхность обычно открывается с того же хоста, но локальные
			// страницы (file://) шлют Origin: null
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	if !h.track(conn) {
		return
	}
	defer h.untrack(conn)

	id := session.NewID()
	log := h.logger.With("session", id)
	out := NewOutbox(log, h.opts.OutboxSize)
	cue := &toggleCue{base: h.opts.Cue}
	cue.on.Store(h.opts.SoundEnabled)

	s := h.opts.NewSession(id, out, cue)
	h.opts.Registry.Add(s)
	defer h.opts.Registry.Remove(id)
	log.Infow("Surface connected", "remote", r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if err := out.Run(conn); err != nil {
			log.Warnw("WebSocket write failed", "error", err)
			_ = conn.Close()
		}
	}()
	out.Send(helloMsg(id, s.Timeout(), cue.on.Load()))

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	tb := &Timebase{}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnw("WebSocket read failed", "error", err)
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var m Inbound
		if err := json.Unmarshal(data, &m); err != nil {
			log.Debugw("Malformed message ignored", "error", err)
			continue
		}
		h.dispatch(s, out, cue, tb, m)
	}

	out.Close()
	<-writerDone
	log.Infow("Surface disconnected", "dropped", out.Dropped())
}

func (h *Handler) dispatch(s *session.Session, out *Outbox, cue *toggleCue, tb *Timebase, m Inbound) {
	switch m.Type {
	case TypeDown:
		s.PointerDown(m.X, m.Y, tb.Align(m.T, s.Now()))
	case TypeMove:
		s.PointerMove(m.X, m.Y, tb.Align(m.T, s.Now()))
	case TypeUp, TypeLeave:
		s.PointerUp(tb.Align(m.T, s.Now()))
	case TypeReset:
		s.Reset()
		out.Send(Outbound{Type: TypeReset})
	case TypeTimeout:
		if m.Value == nil {
			out.Send(noticeMsg("timeout value is missing"))
			return
		}
		v := *m.Value
		if v != math.Trunc(v) || v < 1 || v > maxTimeoutMs {
			out.Send(noticeMsg(fmt.Sprintf("timeout must be a whole number of milliseconds >= 1, got %v", v)))
			return
		}
		d := time.Duration(v) * time.Millisecond
		if err := s.SetTimeout(d); err != nil {
			out.Send(noticeMsg(err.Error()))
			return
		}
		out.Send(timeoutMsg(d))
	case TypeTimeoutUp, TypeTimeoutDown:
		delta := h.opts.TimeoutStep
		if m.Type == TypeTimeoutDown {
			delta = -delta
		}
		d, err := s.NudgeTimeout(delta, h.opts.MinTimeout)
		if err != nil {
			out.Send(noticeMsg(err.Error()))
			return
		}
		out.Send(timeoutMsg(d))
	case TypeSound:
		on := m.Value != nil && *m.Value != 0
		// включение подтверждается сигналом
		if was := cue.on.Swap(on); on && !was && cue.base != nil {
			cue.base.Play()
		}
	case TypeSaveJSON:
		h.save(s, out, s.ExportJSON, h.writeJSON)
	case TypeSavePNG:
		h.save(s, out, s.ExportPNG, h.writePNG)
	default:
		h.logger.Debugw("Unknown message type", "type", m.Type)
	}
}

func (h *Handler) save(s *session.Session, out *Outbox, export func() ([]byte, error), write func([]byte) (string, error)) {
	data, err := export()
	if errors.Is(err, session.ErrNothingToExport) {
		out.Notice(session.EmptyExportNotice)
		return
	}
	if err != nil {
		h.logger.Errorw("Export failed", "session", s.ID(), "error", err)
		out.Notice(fmt.Sprintf("export failed: %v", err))
		return
	}
	path, err := write(data)
	if err != nil {
		h.logger.Errorw("Saving export failed", "session", s.ID(), "error", err)
		out.Notice(fmt.Sprintf("saving failed: %v", err))
		return
	}
	h.logger.Infow("Export saved", "session", s.ID(), "path", path, "bytes", len(data))
	out.Send(savedMsg(path))
}

var errNoSaver = errors.New("saving to disk is disabled")

func (h *Handler) writeJSON(data []byte) (string, error) {
	if h.opts.Saver == nil {
		return "", errNoSaver
	}
	return h.opts.Saver.WriteJSON(data)
}

func (h *Handler) writePNG(data []byte) (string, error) {
	if h.opts.Saver == nil {
		return "", errNoSaver
	}
	return h.opts.Saver.WritePNG(data)
}

// Close закрывает все подключения и ждёт, пока их сессии будут удалены из реестра.
// Новые подключения после Close сразу закрываются. http.Server.Shutdown
// захваченные WebSocket-соединения не закрывает, поэтому Close вызывается после него.
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	deadline := time.Now().Add(writeWait)
	for conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), deadline)
		_ = conn.Close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// Active возвращает число открытых подключений.
func (h *Handler) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Handler) track(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Handler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	h.wg.Done()
}

// toggleCue — сигнал с выключателем на уровне подключения.
type toggleCue struct {
	base session.Cue
	on   atomic.Bool
}

func (c *toggleCue) Play() {
	if c.base != nil && c.on.Load() {
		c.base.Play()
	}
}
