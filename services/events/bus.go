package events

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"attendtrack_go/models"
)

// Event types published by the session/attendance core.
const (
	TypeSessionActivated   = "session.activated"
	TypeSessionClosed      = "session.closed"
	TypeAttendanceRecorded = "attendance.recorded"
)

// Event carries one core state change. Session is always set; Record and
// Student are set only for attendance events.
type Event struct {
	Type    string                   `json:"type"`
	At      time.Time                `json:"at"`
	Session *models.Session          `json:"session,omitempty"`
	Record  *models.AttendanceRecord `json:"record,omitempty"`
	Student *models.Student          `json:"student,omitempty"`
}

// Handler receives published events. Handlers run on their own goroutine
// and must not block on the publisher.
type Handler func(Event)

// Bus is an in-process publish/subscribe dispatcher. It replaces the ad-hoc
// global listener lists the dashboard used to hang off mutable state: the core
// publishes typed events and consumers (websocket hub, absence marker,
// notifications) subscribe explicitly.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]Handler)}
}

// Subscribe registers a handler for one or more event types.
func (b *Bus) Subscribe(handler Handler, types ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		b.subs[t] = append(b.subs[t], handler)
	}
}

// Publish delivers the event to every subscriber of its type.
// Delivery is asynchronous; a panicking handler is recovered and logged
// so one bad consumer cannot take down the core.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.subs[evt.Type]))
	copy(handlers, b.subs[evt.Type])
	b.mu.RUnlock()

	for _, h := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithFields(logrus.Fields{
						"event": evt.Type,
						"panic": r,
					}).Error("panic recovered in event handler")
				}
			}()
			h(evt)
		}(h)
	}
}
