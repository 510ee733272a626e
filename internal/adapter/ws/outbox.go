package ws

import (
	"StrokeRecorder/internal/app/session"
	"StrokeRecorder/internal/model"
	"StrokeRecorder/internal/service/raster"
	"bytes"
	"encoding/base64"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultOutboxSize = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var _ session.Presenter = (*Outbox)(nil)

// Outbox — презентер сессии поверх WebSocket. Сообщения кладутся в буферизованный
// канал и пишутся одной горутиной; при переполнении сообщение отбрасывается,
// чтобы финализация символа никогда не ждала сеть.
type Outbox struct {
	logger *zap.SugaredLogger
	ch     chan Outbound
	done   chan struct{}
	once   sync.Once

	dropped atomic.Int64
}

func NewOutbox(logger *zap.SugaredLogger, size int) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Outbox{logger: logger, ch: make(chan Outbound, size), done: make(chan struct{})}
}

// Send ставит сообщение в очередь без блокировки.
func (o *Outbox) Send(m Outbound) {
	select {
	case <-o.done:
		return
	default:
	}
	select {
	case o.ch <- m:
	default:
		o.dropped.Add(1)
		o.logger.Warnw("Outbound queue full, message dropped", "type", m.Type)
	}
}

// Dropped — сколько сообщений потеряно из-за переполнения.
func (o *Outbox) Dropped() int64 { return o.dropped.Load() }

// Close останавливает Run. Повторный вызов безопасен.
func (o *Outbox) Close() { o.once.Do(func() { close(o.done) }) }

// Run пишет очередь в соединение до Close или ошибки записи.
// Единственный писатель в conn.
func (o *Outbox) Run(conn *websocket.Conn) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case m := <-o.ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				return err
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-o.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
	}
}

func (o *Outbox) StrokeRendered(s model.Stroke) {
	o.Send(Outbound{Type: TypeStroke, Stroke: &s})
}

func (o *Outbox) ThumbnailAppended(index int, thumb image.Image) {
	url, err := dataURL(thumb)
	if err != nil {
		o.logger.Errorw("Thumbnail encoding failed", "index", index, "error", err)
		return
	}
	o.Send(Outbound{Type: TypeThumbnail, Index: &index, Data: url})
}

func (o *Outbox) SurfaceCleared() { o.Send(Outbound{Type: TypeClear}) }

func (o *Outbox) Notice(msg string) { o.Send(noticeMsg(msg)) }

func dataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
