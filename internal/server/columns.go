package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"collab/internal/models"
	"collab/internal/storage/sqlite"
)

type columnRequest struct {
	Name  *string `json:"name" form:"name"`
	Order *int64  `json:"order" form:"order"`
}

// handleCreateColumn appends a column to the board.
func (s *Server) handleCreateColumn(c *gin.Context) {
	board := c.MustGet(boardKey).(models.KanbanBoard)
	var req nameRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := s.store.CreateColumn(c.Request.Context(), board.ID, req.Name); err != nil {
		s.fail(c, err)
		return
	}
	s.respondBoard(c, http.StatusCreated)
}

// handleUpdateColumn renames a column or moves it to a new order.
func (s *Server) handleUpdateColumn(c *gin.Context) {
	board := c.MustGet(boardKey).(models.KanbanBoard)
	columnID, ok := parseID(c, "columnId")
	if !ok {
		return
	}

	var req columnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == nil && req.Order == nil {
		s.respondError(c, http.StatusBadRequest, errors.New("name or order is required"))
		return
	}
	if req.Order != nil && *req.Order < 0 {
		s.respondError(c, http.StatusBadRequest, errors.New("order must not be negative"))
		return
	}

	changes := sqlite.ColumnChanges{Name: req.Name, Order: req.Order}
	if err := s.store.UpdateColumn(c.Request.Context(), board.ID, columnID, changes); err != nil {
		s.fail(c, err)
		return
	}
	s.respondBoard(c, http.StatusOK)
}

// handleDeleteColumn removes a column and its tasks.
func (s *Server) handleDeleteColumn(c *gin.Context) {
	board := c.MustGet(boardKey).(models.KanbanBoard)
	columnID, ok := parseID(c, "columnId")
	if !ok {
		return
	}
	if err := s.store.DeleteColumn(c.Request.Context(), board.ID, columnID); err != nil {
		s.fail(c, err)
		return
	}
	s.respondBoard(c, http.StatusOK)
}
