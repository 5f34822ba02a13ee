package kanban

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"collab/internal/models"
)

// HTTPTransport sends moves to the collab HTTP API.
type HTTPTransport struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPTransport builds a transport with a bounded request timeout.
func NewHTTPTransport(baseURL, token string) *HTTPTransport {
	return &HTTPTransport{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send issues move as a JSON request and decodes the returned board.
func (t *HTTPTransport) Send(ctx context.Context, move Move) (models.KanbanBoard, error) {
	payload, err := json.Marshal(move.Body)
	if err != nil {
		return models.KanbanBoard{}, fmt.Errorf("encode move: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, move.Method, t.BaseURL+move.Path, bytes.NewReader(payload))
	if err != nil {
		return models.KanbanBoard{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.KanbanBoard{}, fmt.Errorf("%s %s: %w", move.Method, move.Path, err)
	}
	defer resp.Body.Close()

	var body struct {
		Board *models.KanbanBoard `json:"board"`
		Error string              `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && resp.StatusCode < 400 {
		return models.KanbanBoard{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := body.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return models.KanbanBoard{}, fmt.Errorf("%s %s: %d %s", move.Method, move.Path, resp.StatusCode, msg)
	}
	if body.Board == nil {
		return models.KanbanBoard{}, fmt.Errorf("%s %s: response carries no board", move.Method, move.Path)
	}
	return *body.Board, nil
}
