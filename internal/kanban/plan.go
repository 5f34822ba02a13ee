package kanban

import (
	"net/http"
	"strconv"

	"collab/internal/models"
)

// MoveBody is the JSON payload of a reorder request.
type MoveBody struct {
	Order    int64  `json:"order"`
	ColumnID *int64 `json:"columnId,omitempty"`
}

// Move is the one partial update a drag produces.
type Move struct {
	Method string
	Path   string
	Body   MoveBody
}

// Plan computes the request persisting result on board. It returns false when
// the drag is a no-op: dropped outside a list, dropped where it started, or
// referring to columns or indexes the board does not have.
//
// The target order is the order of the item currently sitting at the
// destination index; dropping past the end of a list targets one past its last
// order.
func Plan(ref Ref, board models.KanbanBoard, result DragResult) (Move, bool) {
	dst := result.Destination
	if dst == nil {
		return Move{}, false
	}
	if dst.DroppableID == result.Source.DroppableID && dst.Index == result.Source.Index {
		return Move{}, false
	}

	columns := SortColumns(board.Columns)

	switch result.Kind {
	case KindColumn:
		if !inRange(result.Source.Index, len(columns)) || dst.Index < 0 {
			return Move{}, false
		}
		moved := columns[result.Source.Index]
		return Move{
			Method: http.MethodPut,
			Path:   ref.ColumnPath(moved.ID),
			Body:   MoveBody{Order: orderAt(columnOrders(columns), dst.Index)},
		}, true

	case KindCard:
		source, ok := findColumn(columns, result.Source.DroppableID)
		if !ok {
			return Move{}, false
		}
		target, ok := findColumn(columns, dst.DroppableID)
		if !ok {
			return Move{}, false
		}
		if !inRange(result.Source.Index, len(source.Tasks)) || dst.Index < 0 {
			return Move{}, false
		}
		task := source.Tasks[result.Source.Index]
		move := Move{
			Method: http.MethodPatch,
			Path:   ref.TaskPath(source.ID, task.ID),
			Body:   MoveBody{Order: orderAt(taskOrders(target.Tasks), dst.Index)},
		}
		if target.ID != source.ID {
			id := target.ID
			move.Body.ColumnID = &id
		}
		return move, true
	}
	return Move{}, false
}

// Apply returns board as it looks once result has been persisted, without
// touching the input. Affected lists are renumbered densely from zero, which
// is also what the server does. A no-op drag returns a sorted copy.
func Apply(board models.KanbanBoard, result DragResult) models.KanbanBoard {
	out := cloneBoard(board)
	if _, ok := Plan(Ref{}, board, result); !ok {
		return out
	}
	dst := result.Destination

	switch result.Kind {
	case KindColumn:
		moved := out.Columns[result.Source.Index]
		rest := append(append([]models.KanbanColumn(nil), out.Columns[:result.Source.Index]...), out.Columns[result.Source.Index+1:]...)
		out.Columns = insertAt(rest, moved, dst.Index)
		for i := range out.Columns {
			out.Columns[i].Order = int64(i)
		}

	case KindCard:
		si := columnIndex(out.Columns, result.Source.DroppableID)
		di := columnIndex(out.Columns, dst.DroppableID)
		src := out.Columns[si].Tasks
		task := src[result.Source.Index]
		out.Columns[si].Tasks = append(append([]models.KanbanTask(nil), src[:result.Source.Index]...), src[result.Source.Index+1:]...)
		task.ColumnID = out.Columns[di].ID
		out.Columns[di].Tasks = insertAt(out.Columns[di].Tasks, task, dst.Index)
		renumberTasks(out.Columns[si].Tasks)
		renumberTasks(out.Columns[di].Tasks)
	}
	return out
}

func insertAt[T any](list []T, item T, index int) []T {
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}
	out := make([]T, 0, len(list)+1)
	out = append(out, list[:index]...)
	out = append(out, item)
	return append(out, list[index:]...)
}

func renumberTasks(tasks []models.KanbanTask) {
	for i := range tasks {
		tasks[i].Order = int64(i)
	}
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}

// orderAt returns the order found at index, or one past the last order when
// index points past the end.
func orderAt(orders []int64, index int) int64 {
	if index < len(orders) {
		return orders[index]
	}
	if len(orders) == 0 {
		return 0
	}
	return orders[len(orders)-1] + 1
}

func columnOrders(columns []models.KanbanColumn) []int64 {
	out := make([]int64, len(columns))
	for i, c := range columns {
		out[i] = c.Order
	}
	return out
}

func taskOrders(tasks []models.KanbanTask) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.Order
	}
	return out
}

func findColumn(columns []models.KanbanColumn, droppableID string) (models.KanbanColumn, bool) {
	i := columnIndex(columns, droppableID)
	if i < 0 {
		return models.KanbanColumn{}, false
	}
	return columns[i], true
}

func columnIndex(columns []models.KanbanColumn, droppableID string) int {
	id, err := strconv.ParseInt(droppableID, 10, 64)
	if err != nil {
		return -1
	}
	for i, c := range columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}
