// Package events pushes board changes to connected websocket clients, either
// within one process or across instances through Redis.
package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"collab/internal/models"
)

// BoardUpdated is sent after any persisted change to a board.
const BoardUpdated = "board.updated"

// Event is the message format for board subscribers.
type Event struct {
	Type    string              `json:"type"`
	BoardID int64               `json:"boardId"`
	Board   *models.KanbanBoard `json:"board,omitempty"`
}

// Publisher delivers events to board subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Hub maintains the set of active clients per board and broadcasts events to them.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
}

// NewHub creates a new hub instance. Run must be started before use.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		broadcast:  make(chan Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Register adds a client to the hub. Once the hub has stopped the client's
// send channel is closed immediately.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues ev for the subscribers of its board.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	select {
	case h.broadcast <- ev:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for _, set := range h.clients {
			for c := range set {
				close(c.send)
			}
		}
		h.clients = map[int64]map[*Client]struct{}{}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			set, ok := h.clients[c.boardID]
			if !ok {
				set = map[*Client]struct{}{}
				h.clients[c.boardID] = set
			}
			set[c] = struct{}{}
			h.logger.Debug("client subscribed", slog.Int64("board", c.boardID), slog.Int64("user", c.userID))
		case c := <-h.unregister:
			h.drop(c)
		case ev := <-h.broadcast:
			set := h.clients[ev.BoardID]
			if len(set) == 0 {
				continue
			}
			msg, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("marshal event", slog.String("error", err.Error()))
				continue
			}
			for c := range set {
				select {
				case c.send <- msg:
				default:
					// Send buffer full; assume the client is gone.
					h.logger.Warn("client send buffer full, dropping", slog.Int64("board", c.boardID), slog.Int64("user", c.userID))
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	set, ok := h.clients[c.boardID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.boardID)
	}
}
