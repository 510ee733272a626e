package events

import (
	"StrokeRecorder/internal/app/session"
	"StrokeRecorder/internal/service/export"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var _ EventServer = (*Server)(nil)

type Config struct {
	BindAddr string
	WSPath   string
}

// Server — HTTP-вход сервиса: WebSocket поверхности и маршруты управления сессиями.
type Server struct {
	cfg      Config
	registry *session.Registry
	srv      *http.Server
	logger   *zap.SugaredLogger
	running  atomic.Bool

	stopOnce sync.Once
	stopErr  error

	mu   sync.Mutex
	addr string
}

func NewServer(cfg Config, registry *session.Registry, surface http.Handler, logger *zap.SugaredLogger) *Server {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "127.0.0.1:8080"
	}
	if cfg.WSPath == "" {
		cfg.WSPath = "/ws"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{cfg: cfg, registry: registry, logger: logger, addr: cfg.BindAddr}

	mux := http.NewServeMux()
	mux.Handle(cfg.WSPath, surface)
	mux.HandleFunc("GET /sessions/{id}/export.json", s.handleExportJSON)
	mux.HandleFunc("GET /sessions/{id}/export.png", s.handleExportPNG)
	mux.HandleFunc("POST /sessions/{id}/reset", s.handleReset)
	mux.HandleFunc("PUT /sessions/{id}/timeout", s.handleTimeout)

	// WriteTimeout не задаём: WebSocket живёт дольше любого разумного лимита,
	// дедлайны записи выставляет сам адаптер.
	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler возвращает маршрутизатор сервера.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.BindAddr)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("events: listen %s: %w", s.cfg.BindAddr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		s.logger.Infow("Сервер захвата слушает", "addr", ln.Addr().String(), "ws", s.cfg.WSPath)
		if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) && err != nil {
			s.logger.Errorw("Сервер захвата остановлен с ошибкой", "error", err)
		} else {
			s.logger.Infow("Сервер захвата остановлен")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Stop(context.WithoutCancel(ctx))
	}()
	return nil
}

// Stop останавливает сервер один раз. Параллельные и повторные вызовы
// (в том числе от отмены контекста Start) ждут завершения той же остановки.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil
	}
	s.stopOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("capture server shutdown timeout"))
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnw("Ошибка graceful shutdown", "error", err, "cause", context.Cause(shutdownCtx))
			s.stopErr = s.srv.Close()
		}
	})
	return s.stopErr
}

func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("id")
	sess, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.serveExport(w, sess, sess.ExportJSON, export.ContentTypeJSON, export.DataFilename)
}

func (s *Server) handleExportPNG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.serveExport(w, sess, sess.ExportPNG, export.ContentTypePNG, export.ImageFilename)
}

func (s *Server) serveExport(w http.ResponseWriter, sess *session.Session, produce func() ([]byte, error), contentType string, filename func(time.Time) string) {
	data, err := produce()
	if errors.Is(err, session.ErrNothingToExport) {
		http.Error(w, session.EmptyExportNotice, http.StatusConflict)
		return
	}
	if err != nil {
		s.logger.Errorw("Ошибка экспорта", "session", sess.ID(), "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	name := filename(time.Now())
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warnw("Не удалось отправить экспорт клиенту", "session", sess.ID(), "error", err)
		return
	}
	s.logger.Infow("Экспорт выгружен", "session", sess.ID(), "file", name, "bytes", len(data))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Reset()
	w.WriteHeader(http.StatusNoContent)
}

type timeoutBody struct {
	TimeoutMs int64 `json:"timeoutMs"`
}

func (s *Server) handleTimeout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()

	var body timeoutBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil {
		http.Error(w, "invalid body; expected {\"timeoutMs\": n}", http.StatusBadRequest)
		return
	}
	if err := sess.SetTimeout(time.Duration(body.TimeoutMs) * time.Millisecond); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeJSON)
	_ = json.NewEncoder(w).Encode(timeoutBody{TimeoutMs: sess.Timeout().Milliseconds()})
}
