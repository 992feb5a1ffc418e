package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// SSE event names.
const (
	eventConnected   = "connected"
	eventReload      = "reload"
	eventTransaction = "transaction"
)

const (
	// subscriberBuffer is how many events a slow client may fall behind
	// before events are dropped for it.
	subscriberBuffer = 16

	keepAliveInterval = 30 * time.Second
)

// serverEvent is one server-sent event. Data is encoded as JSON.
type serverEvent struct {
	Name string
	Data any
}

// ReloadEvent is sent after the journal was reloaded.
type ReloadEvent struct {
	Rejected int `json:"rejected"`
}

// TransactionEvent is sent after a transaction was recorded through the API.
type TransactionEvent struct {
	TransactionID int64 `json:"transaction_id"`
	Backdated     bool  `json:"backdated"`
}

func (e serverEvent) writeTo(w io.Writer) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, data)
	return err
}

// eventHub fans events out to every subscribed client. Publishing never
// blocks; a client whose buffer is full misses the event.
type eventHub struct {
	mu          sync.Mutex
	subscribers map[chan serverEvent]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subscribers: make(map[chan serverEvent]struct{})}
}

func (h *eventHub) subscribe() (<-chan serverEvent, func()) {
	ch := make(chan serverEvent, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		h.mu.Unlock()
	}
}

func (h *eventHub) publish(name string, data any) {
	event := serverEvent{Name: name, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			log.WithField("event", name).Debug("dropping event for slow client")
		}
	}
}

// handleEvents streams hub events to the client until it disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, unsubscribe := s.events.subscribe()
	defer unsubscribe()

	// Subscribed before this is sent, so nothing published afterwards is lost.
	if err := (serverEvent{Name: eventConnected, Data: struct{}{}}).writeTo(w); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case event := <-events:
			if err := event.writeTo(w); err != nil {
				log.WithError(err).WithField("event", event.Name).Warn("failed to write event")
				return
			}
		}
		flusher.Flush()
	}
}
