// Package sse implements a Server-Sent Events broker that tells clients when
// vault documents and the book catalog change.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeDocumentCreated = "document.created"
	TypeDocumentUpdated = "document.updated"
	TypeDocumentDeleted = "document.deleted"
	TypeBookInserted    = "book.inserted"
	TypeLibraryUpdated  = "library.updated"
)

const (
	clientBuffer = 64
	keepAlive    = 30 * time.Second
	retryMillis  = 3000
)

// Event represents an SSE event to broadcast. Path scopes the event to a
// document; events without a path reach every client.
type Event struct {
	Type string `json:"type"`
	Path string `json:"-"`
	Data any    `json:"data"`
}

// DocumentEvent is the payload of document.* events.
type DocumentEvent struct {
	Path string `json:"path"`
}

// BookEvent is the payload of book.inserted events.
type BookEvent struct {
	Path  string `json:"path"`
	ISBN  string `json:"isbn"`
	Title string `json:"title,omitempty"`
}

// client is a subscriber. prefix limits path-scoped events to documents
// under it; "" receives everything.
type client struct {
	ch     chan []byte
	prefix string
}

func (c *client) wants(e Event) bool {
	return e.Path == "" || c.prefix == "" || strings.HasPrefix(e.Path, c.prefix)
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the client set and the library throttle
// state; public methods talk to it over channels. library.updated is sent at
// most once per throttle window, and a change that lands inside the window
// is announced when the window closes.
type Broker struct {
	libraryMin time.Duration

	subscribeCh   chan *client
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given library.updated throttle.
func NewBroker(libraryThrottle time.Duration) *Broker {
	if libraryThrottle <= 0 {
		libraryThrottle = 2 * time.Second
	}

	b := &Broker{
		libraryMin:    libraryThrottle,
		subscribeCh:   make(chan *client),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]*client)
	var (
		lastLibrary time.Time
		trailing    *time.Timer
		trailingC   <-chan time.Time
	)

	broadcast := func(e Event) {
		msg, err := encode(e)
		if err != nil {
			return
		}
		for _, c := range clients {
			if !c.wants(e) {
				continue
			}
			select {
			case c.ch <- msg:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	libraryChanged := func() {
		if trailingC != nil {
			return
		}
		if wait := b.libraryMin - time.Since(lastLibrary); wait > 0 {
			trailing = time.NewTimer(wait)
			trailingC = trailing.C
			return
		}
		lastLibrary = time.Now()
		broadcast(Event{Type: TypeLibraryUpdated, Data: struct{}{}})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case c := <-b.subscribeCh:
			clients[c.ch] = c

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case e := <-b.publishCh:
			broadcast(e)
			if e.Type != TypeLibraryUpdated && strings.HasPrefix(e.Type, "document.") {
				libraryChanged()
			}

		case <-trailingC:
			trailing, trailingC = nil, nil
			lastLibrary = time.Now()
			broadcast(Event{Type: TypeLibraryUpdated, Data: struct{}{}})

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

func encode(e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "id: %s\nevent: %s\ndata: %s\n\n", uuid.NewString(), e.Type, payload), nil
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client that receives every event.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribePrefix("")
}

// SubscribePrefix adds a client that only receives document and book events
// for paths under prefix. library.updated is always delivered.
func (b *Broker) SubscribePrefix(prefix string) chan []byte {
	c := &client{ch: make(chan []byte, clientBuffer), prefix: prefix}
	if b.closed.Load() {
		close(c.ch)
		return c.ch
	}
	select {
	case b.subscribeCh <- c:
	case <-b.stopped:
		close(c.ch)
	}
	return c.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all interested clients.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- e:
	case <-b.stopped:
	}
}

// PublishDocumentEvent publishes a document change and schedules a
// library.updated event. kind is "created", "updated" or "deleted"; other
// kinds are ignored.
func (b *Broker) PublishDocumentEvent(kind, path string) {
	var typ string
	switch kind {
	case "created":
		typ = TypeDocumentCreated
	case "updated":
		typ = TypeDocumentUpdated
	case "deleted":
		typ = TypeDocumentDeleted
	default:
		return
	}
	b.Publish(Event{Type: typ, Path: path, Data: DocumentEvent{Path: path}})
}

// PublishBookInserted announces a book written into a document.
func (b *Broker) PublishBookInserted(path, isbn, title string) {
	b.Publish(Event{Type: TypeBookInserted, Path: path, Data: BookEvent{Path: path, ISBN: isbn, Title: title}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The optional
// "path" query parameter limits document and book events to a folder or
// document prefix.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ch := b.SubscribePrefix(r.URL.Query().Get("path"))
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
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
