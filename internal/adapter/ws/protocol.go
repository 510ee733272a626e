package ws

import (
	"StrokeRecorder/internal/model"
	"time"
)

// Типы входящих сообщений.
const (
	TypeDown        = "down"
	TypeMove        = "move"
	TypeUp          = "up"
	TypeLeave       = "leave"
	TypeReset       = "reset"
	TypeTimeout     = "timeout"
	TypeTimeoutUp   = "timeout_up"
	TypeTimeoutDown = "timeout_down"
	TypeSound       = "sound"
	TypeSaveJSON    = "save_json"
	TypeSavePNG     = "save_png"
)

// Типы исходящих сообщений (timeout и reset совпадают с входящими).
const (
	TypeHello     = "hello"
	TypeStroke    = "stroke"
	TypeThumbnail = "thumbnail"
	TypeClear     = "clear"
	TypeNotice    = "notice"
	TypeSaved     = "saved"
)

// Inbound — событие от поверхности захвата.
// T — метка времени устройства в мс; nil — штамп ставится при получении.
type Inbound struct {
	Type  string   `json:"type"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	T     *float64 `json:"t,omitempty"`
	Value *float64 `json:"value,omitempty"`
}

// Outbound — сообщение клиенту. Заполняются только поля, относящиеся к Type.
type Outbound struct {
	Type      string        `json:"type"`
	Session   string        `json:"session,omitempty"`
	TimeoutMs int64         `json:"timeoutMs,omitempty"`
	Sound     *bool         `json:"sound,omitempty"`
	Stroke    *model.Stroke `json:"stroke,omitempty"`
	Index     *int          `json:"index,omitempty"`
	Data      string        `json:"data,omitempty"`
	Message   string        `json:"message,omitempty"`
	Path      string        `json:"path,omitempty"`
}

func helloMsg(id string, timeout time.Duration, sound bool) Outbound {
	return Outbound{Type: TypeHello, Session: id, TimeoutMs: timeout.Milliseconds(), Sound: &sound}
}

func timeoutMsg(d time.Duration) Outbound {
	return Outbound{Type: TypeTimeout, TimeoutMs: d.Milliseconds()}
}

func noticeMsg(text string) Outbound { return Outbound{Type: TypeNotice, Message: text} }

func savedMsg(path string) Outbound { return Outbound{Type: TypeSaved, Path: path} }
