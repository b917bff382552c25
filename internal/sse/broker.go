// Package sse streams workspace changes to preview clients as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/starford/muse/internal/watch"
)

// Event is one message on the stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types sent by PublishFileEvent.
const (
	TypeFileCreated  = "file.created"
	TypeFileUpdated  = "file.updated"
	TypeFileDeleted  = "file.deleted"
	TypeFilesChanged = "files.changed"
)

var fileEventTypes = map[watch.Kind]string{
	watch.Created: TypeFileCreated,
	watch.Updated: TypeFileUpdated,
	watch.Deleted: TypeFileDeleted,
}

// FileData is the payload of the file.* events.
type FileData struct {
	Name string `json:"name"`
}

const (
	clientBuffer = 64
	// replayLimit frames are kept for clients reconnecting with Last-Event-ID.
	replayLimit = 32
)

type frame struct {
	id  uint64
	raw []byte
}

// Broker fans events out to connected clients. Delivery never blocks the
// publisher: a client whose buffer is full misses the frame.
type Broker struct {
	listMin   time.Duration
	heartbeat time.Duration

	mu       sync.Mutex
	clients  map[chan []byte]struct{}
	history  []frame
	nextID   uint64
	lastList time.Time
	closed   bool
}

// NewBroker returns a broker. files.changed is sent at most once per
// listThrottle; the stream handler writes a comment line every heartbeat to
// keep idle connections open (0 disables it).
func NewBroker(listThrottle, heartbeat time.Duration) *Broker {
	if listThrottle <= 0 {
		listThrottle = 2 * time.Second
	}
	return &Broker{
		listMin:   listThrottle,
		heartbeat: heartbeat,
		clients:   make(map[chan []byte]struct{}),
	}
}

// Close closes every client channel. Later calls do nothing.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.clients {
		close(ch)
	}
	b.clients = nil
}

// Subscribe adds a client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeSince(0)
}

// SubscribeSince adds a client and first queues the retained frames newer
// than lastID. lastID 0 replays nothing.
func (b *Broker) SubscribeSince(lastID uint64) chan []byte {
	ch := make(chan []byte, clientBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	if lastID > 0 {
		for _, f := range b.history {
			if f.id > lastID && len(ch) < cap(ch) {
				ch <- f.raw
			}
		}
	}
	b.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Publish sends event to all clients.
func (b *Broker) Publish(event Event) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send(event.Type, payload)
}

// PublishFileEvent forwards a watcher event, followed by a throttled
// files.changed when the file list moved. It matches the watcher callback
// signature.
func (b *Broker) PublishFileEvent(ev watch.Event) {
	typ, ok := fileEventTypes[ev.Kind]
	if !ok {
		return
	}
	payload, _ := json.Marshal(FileData{Name: ev.Name})

	b.mu.Lock()
	defer b.mu.Unlock()
	b.send(typ, payload)
	if ev.Kind == watch.Updated {
		return
	}
	if now := time.Now(); now.Sub(b.lastList) >= b.listMin {
		b.lastList = now
		b.send(TypeFilesChanged, []byte("{}"))
	}
}

// send numbers, records and fans out one frame. Callers hold mu.
func (b *Broker) send(typ string, payload []byte) {
	if b.closed {
		return
	}
	b.nextID++
	f := frame{
		id:  b.nextID,
		raw: []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", b.nextID, typ, payload)),
	}
	b.history = append(b.history, f)
	if len(b.history) > replayLimit {
		b.history = b.history[len(b.history)-replayLimit:]
	}
	for ch := range b.clients {
		select {
		case ch <- f.raw:
		default:
		}
	}
}

// ServeHTTP is the stream endpoint (GET /api/events). A Last-Event-ID
// header resumes from the retained frames.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)
	ch := b.SubscribeSince(lastID)
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
