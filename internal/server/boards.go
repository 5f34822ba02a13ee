package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"collab/internal/events"
	"collab/internal/models"
)

const boardKey = "board"

// handleListBoards returns the boards of the project.
func (s *Server) handleListBoards(c *gin.Context) {
	project := c.MustGet(projectKey).(models.Project)
	boards, err := s.store.ListBoards(c.Request.Context(), project.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"boards": boards})
}

// handleCreateBoard creates a board seeded with the default columns.
func (s *Server) handleCreateBoard(c *gin.Context) {
	project := c.MustGet(projectKey).(models.Project)
	var req nameRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	board, err := s.store.CreateBoard(c.Request.Context(), project.ID, req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"board": board})
}

// loadBoard resolves :boardSlug inside the loaded project.
func (s *Server) loadBoard(c *gin.Context) {
	project := c.MustGet(projectKey).(models.Project)
	board, err := s.store.GetBoard(c.Request.Context(), project.ID, c.Param("boardSlug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Set(boardKey, board)
	c.Next()
}

// handleShowBoard returns the board with its columns and tasks in order.
func (s *Server) handleShowBoard(c *gin.Context) {
	project := c.MustGet(projectKey).(models.Project)
	board := c.MustGet(boardKey).(models.KanbanBoard)
	respondSuccess(c, http.StatusOK, gin.H{"project": project, "board": board})
}

// respondBoard reloads the board after a mutation, notifies subscribers and
// returns the persisted state so clients can reconcile optimistic changes.
func (s *Server) respondBoard(c *gin.Context, status int) {
	boardID := c.MustGet(boardKey).(models.KanbanBoard).ID
	board, err := s.store.LoadBoard(c.Request.Context(), boardID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.publisher != nil {
		ev := events.Event{Type: events.BoardUpdated, BoardID: board.ID, Board: &board}
		if err := s.publisher.Publish(c.Request.Context(), ev); err != nil {
			s.logger.Warn("publish board event", slog.Int64("board", board.ID), slog.String("error", err.Error()))
		}
	}
	respondSuccess(c, status, gin.H{"board": board})
}

// handleBoardSocket upgrades the connection and streams board events.
func (s *Server) handleBoardSocket(c *gin.Context) {
	if s.hub == nil {
		s.respondError(c, http.StatusNotImplemented, errors.New("realtime updates are disabled"))
		return
	}
	board := c.MustGet(boardKey).(models.KanbanBoard)

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	events.NewClient(s.hub, conn, board.ID, currentUserID(c)).Serve()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
