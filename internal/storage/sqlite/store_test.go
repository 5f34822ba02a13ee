package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type fixture struct {
	user    models.User
	org     models.Organization
	project models.Project
	board   models.KanbanBoard
}

func newFixture(t *testing.T, store *Store) fixture {
	t.Helper()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, uuid.NewString()+"@example.com", "Ada Lovelace", "hash")
	require.NoError(t, err)
	org, err := store.CreateOrganization(ctx, user.ID, "Acme")
	require.NoError(t, err)
	project, err := store.CreateProject(ctx, org.ID, "Website")
	require.NoError(t, err)
	board, err := store.CreateBoard(ctx, project.ID, "Sprint 1")
	require.NoError(t, err)
	return fixture{user: user, org: org, project: project, board: board}
}

func addTasks(t *testing.T, store *Store, boardID, columnID int64, titles ...string) []models.KanbanTask {
	t.Helper()
	tasks := make([]models.KanbanTask, 0, len(titles))
	for _, title := range titles {
		task, err := store.CreateTask(context.Background(), boardID, columnID, title, "")
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	return tasks
}

func columnNames(b models.KanbanBoard) []string {
	out := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		out[i] = c.Name
	}
	return out
}

func taskTitles(c models.KanbanColumn) []string {
	out := make([]string, len(c.Tasks))
	for i, t := range c.Tasks {
		out[i] = t.Title
	}
	return out
}

func assertDense(t *testing.T, b models.KanbanBoard) {
	t.Helper()
	for i, c := range b.Columns {
		assert.Equal(t, int64(i), c.Order, "column %q", c.Name)
		for j, task := range c.Tasks {
			assert.Equal(t, int64(j), task.Order, "task %q", task.Title)
			assert.Equal(t, c.ID, task.ColumnID)
		}
	}
}

func TestPlaceAt(t *testing.T) {
	tests := []struct {
		name   string
		ids    []int64
		id     int64
		target int64
		want   []int64
	}{
		{"forward", []int64{1, 2, 3, 4}, 1, 2, []int64{2, 3, 1, 4}},
		{"backward", []int64{1, 2, 3, 4}, 4, 0, []int64{4, 1, 2, 3}},
		{"clamped past end", []int64{1, 2, 3}, 1, 10, []int64{2, 3, 1}},
		{"negative clamps to start", []int64{1, 2, 3}, 3, -5, []int64{3, 1, 2}},
		{"new id", []int64{1, 2}, 9, 1, []int64{1, 9, 2}},
		{"empty", nil, 9, 3, []int64{9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]int64(nil), tt.ids...)
			assert.Equal(t, tt.want, placeAt(in, tt.id, tt.target))
			assert.Equal(t, tt.ids, in, "input must not be modified")
		})
	}
}

func TestCreateBoard_SeedsDefaultColumns(t *testing.T) {
	store := openTestStore(t)
	f := newFixture(t, store)

	assert.Equal(t, DefaultColumns, columnNames(f.board))
	assert.Equal(t, "sprint-1", f.board.Slug)
	assertDense(t, f.board)

	again, err := store.CreateBoard(context.Background(), f.project.ID, "Sprint 1")
	require.NoError(t, err)
	assert.NotEqual(t, f.board.Slug, again.Slug)
}

func TestUpdateColumn_Reorders(t *testing.T) {
	store := openTestStore(t)
	f := newFixture(t, store)
	ctx := context.Background()

	done := f.board.Columns[2]
	order := int64(0)
	require.NoError(t, store.UpdateColumn(ctx, f.board.ID, done.ID, ColumnChanges{Order: &order}))

	board, err := store.LoadBoard(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Done", "To do", "In progress"}, columnNames(board))
	assertDense(t, board)
	assert.Greater(t, board.Version, f.board.Version)
}

func TestUpdateColumn_Rename(t *testing.T) {
	store := openTestStore(t)
	f := newFixture(t, store)
	ctx := context.Background()

	name := "Backlog"
	require.NoError(t, store.UpdateColumn(ctx, f.board.ID, f.board.Columns[0].ID, ColumnChanges{Name: &name}))
	board, err := store.LoadBoard(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backlog", board.Columns[0].Name)

	blank := "  "
	err = store.UpdateColumn(ctx, f.board.ID, f.board.Columns[0].ID, ColumnChanges{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUpdateTask_SameColumn(t *testing.T) {
	store := openTestStore(t)
	f := newFixture(t, store)
	ctx := context.Background()
	col := f.board.Columns[0]
	tasks := addTasks(t, store, f.board.ID, col.ID, "a", "b", "c", "d")

	order := int64(2)
	require.NoError(t, store.UpdateTask(ctx, f.board.ID, col.ID, tasks[0].ID, TaskChanges{Order: &order}))

	board, err := store.LoadBoard(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a", "d"}, taskTitles(board.Columns[0]))
	assertDense(t, board)
}

func TestUpdateTask_AcrossColumns(t *testing.T) {
	store := openTestStore(t)
	f := newFixture(t, store)
	ctx := context.Background()
	todo, doing := f.board.Columns[0], f.board.Columns[1]
	src := addTasks(t, store, f.board.ID, todo.ID, "a", "b", "c")
	addTasks(t, store, f.board.ID, doing.ID, "x", "y")

	order := int64(1)
	target := doing.ID
	require.NoError(t, store.UpdateTask(ctx, f.board.ID, todo.ID, src[1].ID, TaskChanges{Order: &order, ColumnID: &target}))

	board, err := store.LoadBoard(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, taskTitles(board.Columns[0]))
	assert.Equal(t, []string{"x", "b", "y"}, taskTitles(board.Columns[1]))
	assertDense(t, board)
}

func TestUpdateTask_AcrossColumnsWithoutOrderAppends(t *testing.T) {
	store := openTestStore(t)
	f := newFixture(t, store)
	ctx := context.Background()
	todo, done := f.board.Columns[0], f.board.Columns[2]
	src := addTasks(t, store, f.board.ID, todo.ID, "a")
	addTasks(t, store, f.board.ID, done.ID, "x", "y")

	target := done.ID
	require.NoError(t, store.UpdateTask(ctx, f.board.ID, todo.ID, src[0].ID, TaskChanges{ColumnID: &target}))

	board, err := store.LoadBoard(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Empty(t, board.Columns[0].Tasks)
	assert.Equal(t, []string{"x", "y", "a"}, taskTitles(board.Columns[2]))
	assertDense(t, board)
}

func TestUpdateTask_EditFields(t *testing.T) {
	store := openTestStore(t)
	f := newFixture(t, store)
	ctx := context.Background()
	col := f.board.Columns[0]
	task := addTasks(t, store, f.board.ID, col.ID, "draft")[0]

	title, desc := "final", "ship it"
	require.NoError(t, store.UpdateTask(ctx, f.board.ID, col.ID, task.ID, TaskChanges{Title: &title, Description: &desc}))

	board, err := store.LoadBoard(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", board.Columns[0].Tasks[0].Title)
	assert.Equal(t, "ship it", board.Columns[0].Tasks[0].Description)
}

func TestUpdateTask_RejectsOtherBoards(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	a := newFixture(t, store)
	b := newFixture(t, store)
	task := addTasks(t, store, a.board.ID, a.board.Columns[0].ID, "a")[0]

	order := int64(0)
	err := store.UpdateTask(ctx, b.board.ID, a.board.Columns[0].ID, task.ID, TaskChanges{Order: &order})
	assert.ErrorIs(t, err, ErrNotFound)

	foreign := b.board.Columns[0].ID
	err = store.UpdateTask(ctx, a.board.ID, a.board.Columns[0].ID, task.ID, TaskChanges{ColumnID: &foreign})
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.UpdateTask(ctx, a.board.ID, a.board.Columns[1].ID, task.ID, TaskChanges{Order: &order})
	assert.ErrorIs(t, err, ErrNotFound, "task is not in the claimed column")
}

func TestDeleteColumnAndTask_CloseGaps(t *testing.T) {
	store := openTestStore(t)
	f := newFixture(t, store)
	ctx := context.Background()
	col := f.board.Columns[0]
	tasks := addTasks(t, store, f.board.ID, col.ID, "a", "b", "c")

	require.NoError(t, store.DeleteTask(ctx, f.board.ID, col.ID, tasks[1].ID))
	assert.ErrorIs(t, store.DeleteTask(ctx, f.board.ID, col.ID, tasks[1].ID), ErrNotFound)
	require.NoError(t, store.DeleteColumn(ctx, f.board.ID, f.board.Columns[1].ID))

	board, err := store.LoadBoard(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"To do", "Done"}, columnNames(board))
	assert.Equal(t, []string{"a", "c"}, taskTitles(board.Columns[0]))
	assertDense(t, board)
}

func TestCreateColumn_Appends(t *testing.T) {
	store := openTestStore(t)
	f := newFixture(t, store)

	col, err := store.CreateColumn(context.Background(), f.board.ID, "Review")
	require.NoError(t, err)
	assert.Equal(t, int64(3), col.Order)

	_, err = store.CreateColumn(context.Background(), f.board.ID, "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestOrganizations_AreScopedToMembers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	f := newFixture(t, store)
	other, err := store.CreateUser(ctx, "other@example.com", "Other", "hash")
	require.NoError(t, err)

	_, err = store.GetOrganizationForUser(ctx, other.ID, f.org.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
	orgs, err := store.ListOrganizations(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, orgs)

	member, err := store.AddMember(ctx, f.org.ID, other.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, member.Role)
	assert.Equal(t, "other@example.com", member.Email)
	_, err = store.AddMember(ctx, f.org.ID, other.ID, "")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = store.AddMember(ctx, f.org.ID, f.user.ID, "admin")
	assert.ErrorIs(t, err, ErrInvalid)

	members, err := store.ListMembers(ctx, f.org.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, f.user.ID, members[0].UserID)
	assert.Equal(t, models.RoleOwner, members[0].Role)
	assert.Equal(t, other.ID, members[1].UserID)

	_, err = store.GetMember(ctx, f.org.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := store.GetOrganizationForUser(ctx, other.ID, f.org.Slug)
	require.NoError(t, err)
	assert.Equal(t, f.org.ID, got.ID)
}

func TestCreateProject_UniqueSlugs(t *testing.T) {
	store := openTestStore(t)
	f := newFixture(t, store)

	again, err := store.CreateProject(context.Background(), f.org.ID, "Website")
	require.NoError(t, err)
	assert.Equal(t, "website", f.project.Slug)
	assert.NotEqual(t, f.project.Slug, again.Slug)
	assert.Contains(t, again.Slug, "website-")

	projects, err := store.ListProjects(context.Background(), f.org.ID)
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestUsers_EmailUniqueness(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ada, err := store.CreateUser(ctx, "ada@example.com", "Ada", "hash")
	require.NoError(t, err)
	bob, err := store.CreateUser(ctx, "bob@example.com", "Bob", "hash")
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "ADA@example.com", "Imposter", "hash")
	assert.ErrorIs(t, err, ErrConflict)

	taken, err := store.EmailTaken(ctx, "ada@example.com", bob.ID)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = store.EmailTaken(ctx, "ada@example.com", ada.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	bob.Email = "ada@example.com"
	_, err = store.UpdateUser(ctx, bob)
	assert.ErrorIs(t, err, ErrConflict)

	bob.Email = "robert@example.com"
	bob.PasswordHash = ""
	updated, err := store.UpdateUser(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "robert@example.com", updated.Email)
	assert.Equal(t, "hash", updated.PasswordHash)

	require.NoError(t, store.DeleteUser(ctx, bob.ID))
	_, err = store.GetUser(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
