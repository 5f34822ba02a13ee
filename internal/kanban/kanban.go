// Package kanban turns drag-and-drop results on a board into the single
// partial-update request that persists them, and keeps an optimistic local copy
// of the board consistent with what the server stores.
package kanban

import (
	"fmt"
	"net/url"
	"sort"

	"collab/internal/models"
)

// DragKind tells whether a whole column or a single card was dragged.
type DragKind string

const (
	KindColumn DragKind = "column"
	KindCard   DragKind = "card"
)

// Location is a position inside a droppable list. For cards the droppable id
// is the column id; for columns it is a fixed board-level id.
type Location struct {
	DroppableID string `json:"droppableId"`
	Index       int    `json:"index"`
}

// DragResult describes a finished drag. Destination is nil when the item was
// dropped outside any list.
type DragResult struct {
	DraggableID string    `json:"draggableId"`
	Kind        DragKind  `json:"type"`
	Source      Location  `json:"source"`
	Destination *Location `json:"destination"`
}

// Ref addresses a board inside its organization and project.
type Ref struct {
	Organization string
	Project      string
	Board        string
}

// Path returns the board's base route.
func (r Ref) Path() string {
	return fmt.Sprintf("/organizations/%s/projects/%s/kanban_boards/%s",
		url.PathEscape(r.Organization), url.PathEscape(r.Project), url.PathEscape(r.Board))
}

// ColumnPath returns the route of a column.
func (r Ref) ColumnPath(columnID int64) string {
	return fmt.Sprintf("%s/columns/%d", r.Path(), columnID)
}

// TaskPath returns the route of a task inside a column.
func (r Ref) TaskPath(columnID, taskID int64) string {
	return fmt.Sprintf("%s/tasks/%d", r.ColumnPath(columnID), taskID)
}

// SortColumns returns a deep copy of columns sorted by order, with the tasks
// of every column sorted the same way. Ties keep their input order.
func SortColumns(columns []models.KanbanColumn) []models.KanbanColumn {
	out := make([]models.KanbanColumn, len(columns))
	for i, c := range columns {
		c.Tasks = append([]models.KanbanTask(nil), c.Tasks...)
		sort.SliceStable(c.Tasks, func(a, b int) bool { return c.Tasks[a].Order < c.Tasks[b].Order })
		out[i] = c
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Order < out[b].Order })
	return out
}

// cloneBoard copies b deeply and sorts its columns and tasks.
func cloneBoard(b models.KanbanBoard) models.KanbanBoard {
	b.Columns = SortColumns(b.Columns)
	return b
}
