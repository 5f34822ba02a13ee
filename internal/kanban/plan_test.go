package kanban

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab/internal/models"
)

var testRef = Ref{Organization: "acme", Project: "web", Board: "sprint"}

// sampleBoard has columns 10, 20, 30 holding tasks 1-3, 4-5 and none.
func sampleBoard() models.KanbanBoard {
	return models.KanbanBoard{
		ID:      7,
		Version: 4,
		Columns: []models.KanbanColumn{
			{ID: 10, Name: "To do", Order: 0, Tasks: []models.KanbanTask{
				{ID: 1, ColumnID: 10, Title: "a", Order: 0},
				{ID: 2, ColumnID: 10, Title: "b", Order: 1},
				{ID: 3, ColumnID: 10, Title: "c", Order: 2},
			}},
			{ID: 20, Name: "Doing", Order: 1, Tasks: []models.KanbanTask{
				{ID: 4, ColumnID: 20, Title: "x", Order: 0},
				{ID: 5, ColumnID: 20, Title: "y", Order: 1},
			}},
			{ID: 30, Name: "Done", Order: 2, Tasks: []models.KanbanTask{}},
		},
	}
}

func card(from string, fromIndex int, to string, toIndex int) DragResult {
	return DragResult{
		Kind:        KindCard,
		Source:      Location{DroppableID: from, Index: fromIndex},
		Destination: &Location{DroppableID: to, Index: toIndex},
	}
}

func column(fromIndex, toIndex int) DragResult {
	return DragResult{
		Kind:        KindColumn,
		Source:      Location{DroppableID: "board", Index: fromIndex},
		Destination: &Location{DroppableID: "board", Index: toIndex},
	}
}

func titles(c models.KanbanColumn) []string {
	out := make([]string, len(c.Tasks))
	for i, t := range c.Tasks {
		out[i] = t.Title
	}
	return out
}

func TestPlan_NoOps(t *testing.T) {
	board := sampleBoard()
	tests := []struct {
		name   string
		result DragResult
	}{
		{"dropped outside", DragResult{Kind: KindCard, Source: Location{DroppableID: "10", Index: 0}}},
		{"same place", card("10", 1, "10", 1)},
		{"same column place", column(2, 2)},
		{"unknown column", card("99", 0, "10", 0)},
		{"unknown destination", card("10", 0, "99", 0)},
		{"source index out of range", card("20", 5, "10", 0)},
		{"negative destination", card("10", 0, "20", -1)},
		{"unknown kind", DragResult{Kind: "row", Source: Location{Index: 0}, Destination: &Location{Index: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Plan(testRef, board, tt.result)
			assert.False(t, ok)
			assert.Equal(t, SortColumns(board.Columns), Apply(board, tt.result).Columns)
		})
	}
}

func TestPlan_Column(t *testing.T) {
	move, ok := Plan(testRef, sampleBoard(), column(0, 2))
	require.True(t, ok)
	assert.Equal(t, http.MethodPut, move.Method)
	assert.Equal(t, "/organizations/acme/projects/web/kanban_boards/sprint/columns/10", move.Path)
	assert.Equal(t, int64(2), move.Body.Order)
	assert.Nil(t, move.Body.ColumnID)
}

func TestPlan_CardSameColumn(t *testing.T) {
	move, ok := Plan(testRef, sampleBoard(), card("10", 0, "10", 2))
	require.True(t, ok)
	assert.Equal(t, http.MethodPatch, move.Method)
	assert.Equal(t, "/organizations/acme/projects/web/kanban_boards/sprint/columns/10/tasks/1", move.Path)
	assert.Equal(t, int64(2), move.Body.Order)
	assert.Nil(t, move.Body.ColumnID, "same-column moves carry no columnId")
}

func TestPlan_CardAcrossColumnsUsesDestinationOrder(t *testing.T) {
	board := sampleBoard()
	// Give the destination column orders that differ from the source column.
	board.Columns[1].Tasks[0].Order = 5
	board.Columns[1].Tasks[1].Order = 9

	move, ok := Plan(testRef, board, card("10", 2, "20", 1))
	require.True(t, ok)
	assert.Equal(t, "/organizations/acme/projects/web/kanban_boards/sprint/columns/10/tasks/3", move.Path)
	assert.Equal(t, int64(9), move.Body.Order)
	require.NotNil(t, move.Body.ColumnID)
	assert.Equal(t, int64(20), *move.Body.ColumnID)
}

func TestPlan_PastEnd(t *testing.T) {
	move, ok := Plan(testRef, sampleBoard(), card("10", 0, "20", 2))
	require.True(t, ok)
	assert.Equal(t, int64(2), move.Body.Order)

	move, ok = Plan(testRef, sampleBoard(), card("10", 0, "30", 0))
	require.True(t, ok)
	assert.Equal(t, int64(0), move.Body.Order, "empty column starts at zero")
}

func TestPlan_SortsBeforeIndexing(t *testing.T) {
	board := sampleBoard()
	board.Columns[0], board.Columns[2] = board.Columns[2], board.Columns[0]

	move, ok := Plan(testRef, board, column(0, 1))
	require.True(t, ok)
	assert.Equal(t, testRef.ColumnPath(10), move.Path, "index 0 is the column with the lowest order")
}

func TestApply_Column(t *testing.T) {
	board := sampleBoard()
	out := Apply(board, column(0, 2))

	ids := []int64{}
	for i, c := range out.Columns {
		ids = append(ids, c.ID)
		assert.Equal(t, int64(i), c.Order)
	}
	assert.Equal(t, []int64{20, 30, 10}, ids)
	assert.Equal(t, int64(10), board.Columns[0].ID, "input untouched")
}

func TestApply_CardAcrossColumns(t *testing.T) {
	board := sampleBoard()
	out := Apply(board, card("10", 0, "20", 1))

	assert.Equal(t, []string{"b", "c"}, titles(out.Columns[0]))
	assert.Equal(t, []string{"x", "a", "y"}, titles(out.Columns[1]))
	for _, c := range out.Columns {
		for i, task := range c.Tasks {
			assert.Equal(t, int64(i), task.Order)
			assert.Equal(t, c.ID, task.ColumnID)
		}
	}
	assert.Len(t, board.Columns[0].Tasks, 3, "input untouched")
}

func TestApply_CardSameColumn(t *testing.T) {
	out := Apply(sampleBoard(), card("10", 2, "10", 0))
	assert.Equal(t, []string{"c", "a", "b"}, titles(out.Columns[0]))
}

func TestRef_Paths(t *testing.T) {
	ref := Ref{Organization: "a b", Project: "p", Board: "b"}
	assert.Equal(t, "/organizations/a%20b/projects/p/kanban_boards/b", ref.Path())
	assert.Equal(t, ref.Path()+"/columns/3/tasks/"+strconv.Itoa(8), ref.TaskPath(3, 8))
}
