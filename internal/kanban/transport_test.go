package kanban

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab/internal/models"
)

func TestHTTPTransport_Send(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/organizations/acme/projects/web/kanban_boards/sprint/columns/10/tasks/1", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"board": models.KanbanBoard{ID: 7, Version: 5}})
	}))
	defer srv.Close()

	move, ok := Plan(testRef, sampleBoard(), card("10", 0, "20", 1))
	require.True(t, ok)

	board, err := NewHTTPTransport(srv.URL+"/", "secret").Send(context.Background(), move)
	require.NoError(t, err)
	assert.Equal(t, int64(5), board.Version)
	assert.Equal(t, float64(1), gotBody["order"])
	assert.Equal(t, float64(20), gotBody["columnId"])
}

func TestHTTPTransport_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"column: not found"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(srv.URL, "").Send(context.Background(), Move{Method: http.MethodPut, Path: "/x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404 column: not found")
}

func TestHTTPTransport_MissingBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(srv.URL, "").Send(context.Background(), Move{Method: http.MethodPut, Path: "/x"})
	assert.ErrorContains(t, err, "no board")
}
