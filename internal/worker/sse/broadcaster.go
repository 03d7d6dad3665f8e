// Package sse streams monitoring events to connected UI clients over
// Server-Sent Events. The desktop frontend subscribes once and receives tick
// verdicts, nudges, and session lifecycle changes as they happen.
package sse

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// WriteTimeout bounds writes to a single client so a stale connection cannot
// stall a broadcast.
const WriteTimeout = 2 * time.Second

// Event types pushed to clients.
const (
	EventConnected        = "connected"
	EventTick             = "tick"
	EventNudge            = "nudge"
	EventSessionStarted   = "session_started"
	EventSessionCompleted = "session_completed"
)

// Event is the envelope for every SSE message.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Client is one connected SSE subscriber.
type Client struct {
	Writer  http.ResponseWriter
	Flusher http.Flusher
	Done    chan struct{}
	ID      string
}

// Broadcaster fans events out to all connected clients.
type Broadcaster struct {
	clients map[string]*Client
	mu      sync.RWMutex
	nextID  int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*Client),
	}
}

// AddClient registers a new subscriber connection.
func (b *Broadcaster) AddClient(w http.ResponseWriter) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	b.mu.Lock()
	b.nextID++
	id := fmt.Sprintf("client-%d", b.nextID)
	client := &Client{
		ID:      id,
		Writer:  w,
		Flusher: flusher,
		Done:    make(chan struct{}),
	}
	b.clients[id] = client
	clientCount := len(b.clients)
	b.mu.Unlock()

	log.Debug().
		Str("clientId", id).
		Int("totalClients", clientCount).
		Msg("SSE client connected")

	return client, nil
}

// RemoveClient drops a subscriber connection.
func (b *Broadcaster) RemoveClient(client *Client) {
	b.mu.Lock()
	delete(b.clients, client.ID)
	clientCount := len(b.clients)
	b.mu.Unlock()

	close(client.Done)

	log.Debug().
		Str("clientId", client.ID).
		Int("totalClients", clientCount).
		Msg("SSE client disconnected")
}

// removeClientByID drops a client found dead during a broadcast.
func (b *Broadcaster) removeClientByID(id string) {
	b.mu.Lock()
	client, exists := b.clients[id]
	if exists {
		delete(b.clients, id)
	}
	clientCount := len(b.clients)
	b.mu.Unlock()

	if exists && client.Done != nil {
		select {
		case <-client.Done:
		default:
			close(client.Done)
		}
	}

	log.Debug().
		Str("clientId", id).
		Int("totalClients", clientCount).
		Msg("Dead SSE client removed")
}

// Broadcast sends an event to every connected client. Writes run concurrently
// with per-client timeouts so one slow client never delays the rest.
func (b *Broadcaster) Broadcast(event Event) {
	jsonData, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}

	message := fmt.Sprintf("data: %s\n\n", jsonData)

	b.mu.RLock()
	clients := make([]*Client, 0, len(b.clients))
	for _, client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	deadClientsCh := make(chan string, len(clients))
	var wg sync.WaitGroup

	for _, client := range clients {
		select {
		case <-client.Done:
			continue
		default:
			wg.Add(1)
			go func(c *Client) {
				defer wg.Done()
				b.writeToClient(c, message, deadClientsCh)
			}(client)
		}
	}

	wg.Wait()
	close(deadClientsCh)

	for clientID := range deadClientsCh {
		b.removeClientByID(clientID)
	}
}

// writeToClient writes one message to one client with a timeout.
func (b *Broadcaster) writeToClient(client *Client, message string, deadCh chan<- string) {
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, err := client.Writer.Write([]byte(message))
		if err != nil {
			log.Debug().
				Str("clientId", client.ID).
				Err(err).
				Msg("Failed to write to SSE client, marking for removal")
			deadCh <- client.ID
			return
		}
		client.Flusher.Flush()
	}()

	select {
	case <-done:
	case <-time.After(WriteTimeout):
		log.Warn().
			Str("clientId", client.ID).
			Dur("timeout", WriteTimeout).
			Msg("SSE write timed out, marking client for removal")
		deadCh <- client.ID
	case <-client.Done:
		// Client disconnected during write
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// HandleSSE upgrades an HTTP request into an SSE subscription and blocks
// until the client disconnects.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client, err := b.AddClient(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer b.RemoveClient(client)

	fmt.Fprintf(w, "data: {\"type\":\"%s\",\"clientId\":\"%s\"}\n\n", EventConnected, client.ID)
	client.Flusher.Flush()

	<-r.Context().Done()
}
