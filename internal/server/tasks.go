package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"collab/internal/models"
	"collab/internal/storage/sqlite"
)

// flexID accepts an identifier sent either as a JSON number or a string.
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(data, `"`)
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid identifier %s", data)
	}
	*f = flexID(id)
	return nil
}

type createTaskRequest struct {
	Title       string `json:"title" form:"title" binding:"required"`
	Description string `json:"description" form:"description"`
}

type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Order       *int64  `json:"order"`
	ColumnID    *flexID `json:"columnId"`
}

// handleCreateTask appends a task to the column.
func (s *Server) handleCreateTask(c *gin.Context) {
	board := c.MustGet(boardKey).(models.KanbanBoard)
	columnID, ok := parseID(c, "columnId")
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := s.store.CreateTask(c.Request.Context(), board.ID, columnID, req.Title, req.Description); err != nil {
		s.fail(c, err)
		return
	}
	s.respondBoard(c, http.StatusCreated)
}

// handleUpdateTask edits a task and moves it when order or columnId is given.
func (s *Server) handleUpdateTask(c *gin.Context) {
	board := c.MustGet(boardKey).(models.KanbanBoard)
	columnID, ok := parseID(c, "columnId")
	if !ok {
		return
	}
	taskID, ok := parseID(c, "taskId")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Order != nil && *req.Order < 0 {
		s.respondError(c, http.StatusBadRequest, errors.New("order must not be negative"))
		return
	}

	changes := sqlite.TaskChanges{
		Title:       req.Title,
		Description: req.Description,
		Order:       req.Order,
	}
	if req.ColumnID != nil {
		target := int64(*req.ColumnID)
		changes.ColumnID = &target
	}
	if err := s.store.UpdateTask(c.Request.Context(), board.ID, columnID, taskID, changes); err != nil {
		s.fail(c, err)
		return
	}
	s.respondBoard(c, http.StatusOK)
}

// handleDeleteTask removes a task from the column.
func (s *Server) handleDeleteTask(c *gin.Context) {
	board := c.MustGet(boardKey).(models.KanbanBoard)
	columnID, ok := parseID(c, "columnId")
	if !ok {
		return
	}
	taskID, ok := parseID(c, "taskId")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), board.ID, columnID, taskID); err != nil {
		s.fail(c, err)
		return
	}
	s.respondBoard(c, http.StatusOK)
}
