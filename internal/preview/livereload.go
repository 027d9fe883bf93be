package preview

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/notesite/internal/logfields"
)

const heartbeatInterval = 30 * time.Second

// LiveReloadHub fans rebuild notifications out to connected browsers
// over server-sent events. The theme's preview client listens for
// "reload" events and refreshes the page.
type LiveReloadHub struct {
	mu      sync.Mutex
	nextID  int
	clients map[int]*lrClient
	closed  bool
}

type lrClient struct {
	id   int
	ch   chan sseEvent
	done chan struct{}
}

type sseEvent struct {
	name string
	data string
}

// NewLiveReloadHub creates an empty hub.
func NewLiveReloadHub() *LiveReloadHub {
	return &LiveReloadHub{clients: map[int]*lrClient{}}
}

// ServeHTTP implements the SSE endpoint.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	client := &lrClient{id: h.nextID, ch: make(chan sseEvent, 8), done: make(chan struct{})}
	h.nextID++
	h.clients[client.id] = client
	h.mu.Unlock()
	defer h.removeClient(client.id)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		return
	}
	if err := bw.Flush(); err != nil {
		return
	}
	flusher.Flush()

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if !writeSSE(bw, flusher, sseEvent{}) {
				return
			}
		case ev := <-client.ch:
			if !writeSSE(bw, flusher, ev) {
				return
			}
		}
	}
}

// writeSSE emits one frame. An event without a name degrades to a
// comment line, used for heartbeats.
func writeSSE(bw *bufio.Writer, flusher http.Flusher, ev sseEvent) bool {
	var err error
	if ev.name == "" {
		_, err = bw.WriteString(": ping\n\n")
	} else {
		_, err = fmt.Fprintf(bw, "event: %s\ndata: %s\n\n", ev.name, sanitizeSSEData(ev.data))
	}
	if err != nil {
		slog.Debug("livereload write failed", logfields.Error(err))
		return false
	}
	if err := bw.Flush(); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

// sanitizeSSEData keeps payloads single-line so they cannot break the
// event framing.
func sanitizeSSEData(data string) string {
	return strings.ReplaceAll(strings.ReplaceAll(data, "\r", " "), "\n", " ")
}

// BroadcastReload tells every client to refresh.
func (h *LiveReloadHub) BroadcastReload(buildID string) {
	h.broadcast(sseEvent{name: "reload", data: buildID})
}

// BroadcastError surfaces a failed rebuild to connected clients.
func (h *LiveReloadHub) BroadcastError(msg string) {
	h.broadcast(sseEvent{name: "error", data: msg})
}

// broadcast delivers ev to all clients, dropping any whose buffers are
// full; a stalled browser must not block the rebuild loop.
func (h *LiveReloadHub) broadcast(ev sseEvent) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- ev:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("livereload broadcast",
		slog.String("event", ev.name),
		slog.Int("clients", len(snapshot)),
		slog.Int("dropped", dropped))
}

// ClientCount reports connected clients.
func (h *LiveReloadHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Shutdown disconnects all clients and rejects new ones.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
	}
}
