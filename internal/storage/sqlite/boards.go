package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"collab/internal/models"
	"collab/internal/util"
)

// DefaultColumns seeds every new board.
var DefaultColumns = []string{"To do", "In progress", "Done"}

// ColumnChanges lists the column fields a partial update may carry.
type ColumnChanges struct {
	Name  *string
	Order *int64
}

// TaskChanges lists the task fields a partial update may carry. ColumnID moves
// the task to another column of the same board.
type TaskChanges struct {
	Title       *string
	Description *string
	Order       *int64
	ColumnID    *int64
}

const boardColumns = `id, project_id, slug, name, version, updated_at`

// CreateBoard creates a board with the default columns.
func (s *Store) CreateBoard(ctx context.Context, projectID int64, name string) (models.KanbanBoard, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.KanbanBoard{}, fmt.Errorf("board name must not be empty: %w", ErrInvalid)
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO kanban_boards(project_id, slug, name) VALUES(?, ?, ?)`, projectID, util.Slugify(name), name)
		if err != nil && isUniqueViolation(err) {
			res, err = tx.ExecContext(ctx, `INSERT INTO kanban_boards(project_id, slug, name) VALUES(?, ?, ?)`, projectID, util.UniqueSlug(name), name)
		}
		if err != nil {
			return fmt.Errorf("insert board: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("board id: %w", err)
		}
		for i, col := range DefaultColumns {
			if _, err := tx.ExecContext(ctx, `INSERT INTO kanban_columns(board_id, name, sort_order) VALUES(?, ?, ?)`, id, col, i); err != nil {
				return fmt.Errorf("insert column: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return models.KanbanBoard{}, err
	}
	return s.LoadBoard(ctx, id)
}

// ListBoards returns the boards of a project without their columns.
func (s *Store) ListBoards(ctx context.Context, projectID int64) ([]models.KanbanBoard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+boardColumns+` FROM kanban_boards WHERE project_id = ? ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	boards := []models.KanbanBoard{}
	for rows.Next() {
		var b models.KanbanBoard
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.Slug, &b.Name, &b.Version, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// GetBoard resolves a board slug inside a project and loads its columns and tasks.
func (s *Store) GetBoard(ctx context.Context, projectID int64, slug string) (models.KanbanBoard, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM kanban_boards WHERE project_id = ? AND slug = ?`, projectID, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.KanbanBoard{}, fmt.Errorf("board: %w", ErrNotFound)
	}
	if err != nil {
		return models.KanbanBoard{}, fmt.Errorf("get board: %w", err)
	}
	return s.LoadBoard(ctx, id)
}

// LoadBoard reads a board with columns and tasks sorted by their order.
func (s *Store) LoadBoard(ctx context.Context, id int64) (models.KanbanBoard, error) {
	var b models.KanbanBoard
	err := s.db.QueryRowContext(ctx, `SELECT `+boardColumns+` FROM kanban_boards WHERE id = ?`, id).
		Scan(&b.ID, &b.ProjectID, &b.Slug, &b.Name, &b.Version, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.KanbanBoard{}, fmt.Errorf("board: %w", ErrNotFound)
	}
	if err != nil {
		return models.KanbanBoard{}, fmt.Errorf("load board: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, board_id, name, sort_order FROM kanban_columns
        WHERE board_id = ? ORDER BY sort_order, id`, id)
	if err != nil {
		return models.KanbanBoard{}, fmt.Errorf("list columns: %w", err)
	}
	b.Columns = []models.KanbanColumn{}
	index := map[int64]int{}
	for rows.Next() {
		c := models.KanbanColumn{Tasks: []models.KanbanTask{}}
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Name, &c.Order); err != nil {
			rows.Close()
			return models.KanbanBoard{}, fmt.Errorf("scan column: %w", err)
		}
		index[c.ID] = len(b.Columns)
		b.Columns = append(b.Columns, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return models.KanbanBoard{}, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT t.id, t.column_id, t.title, t.description, t.sort_order, t.created_at, t.updated_at
        FROM kanban_tasks t JOIN kanban_columns c ON c.id = t.column_id
        WHERE c.board_id = ? ORDER BY t.column_id, t.sort_order, t.id`, id)
	if err != nil {
		return models.KanbanBoard{}, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t models.KanbanTask
		if err := rows.Scan(&t.ID, &t.ColumnID, &t.Title, &t.Description, &t.Order, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return models.KanbanBoard{}, fmt.Errorf("scan task: %w", err)
		}
		i := index[t.ColumnID]
		b.Columns[i].Tasks = append(b.Columns[i].Tasks, t)
	}
	return b, rows.Err()
}

// columnBoard returns the board columnID belongs to, requiring it to be boardID.
func columnBoard(ctx context.Context, q queryer, boardID, columnID int64) error {
	var owner int64
	err := q.QueryRowContext(ctx, `SELECT board_id FROM kanban_columns WHERE id = ?`, columnID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != boardID) {
		return fmt.Errorf("column: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get column: %w", err)
	}
	return nil
}

// CreateColumn appends a column to the board.
func (s *Store) CreateColumn(ctx context.Context, boardID int64, name string) (models.KanbanColumn, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.KanbanColumn{}, fmt.Errorf("column name must not be empty: %w", ErrInvalid)
	}

	col := models.KanbanColumn{BoardID: boardID, Name: name, Tasks: []models.KanbanTask{}}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM kanban_columns WHERE board_id = ?`, boardID).Scan(&col.Order); err != nil {
			return fmt.Errorf("select order: %w", err)
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO kanban_columns(board_id, name, sort_order) VALUES(?, ?, ?)`, boardID, name, col.Order)
		if err != nil {
			return fmt.Errorf("insert column: %w", err)
		}
		if col.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("column id: %w", err)
		}
		return bumpBoard(ctx, tx, boardID)
	})
	if err != nil {
		return models.KanbanColumn{}, err
	}
	return col, nil
}

// UpdateColumn renames and/or moves a column. A new order shifts the columns
// between the old and new position by one.
func (s *Store) UpdateColumn(ctx context.Context, boardID, columnID int64, changes ColumnChanges) error {
	if changes.Name != nil && strings.TrimSpace(*changes.Name) == "" {
		return fmt.Errorf("column name must not be empty: %w", ErrInvalid)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := columnBoard(ctx, tx, boardID, columnID); err != nil {
			return err
		}
		if changes.Name != nil {
			if _, err := tx.ExecContext(ctx, `UPDATE kanban_columns SET name = ? WHERE id = ?`, strings.TrimSpace(*changes.Name), columnID); err != nil {
				return fmt.Errorf("rename column: %w", err)
			}
		}
		if changes.Order != nil {
			if err := moveColumn(ctx, tx, boardID, columnID, *changes.Order); err != nil {
				return err
			}
		}
		return bumpBoard(ctx, tx, boardID)
	})
}

// DeleteColumn removes a column with its tasks and closes the gap it leaves.
func (s *Store) DeleteColumn(ctx context.Context, boardID, columnID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := columnBoard(ctx, tx, boardID, columnID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM kanban_columns WHERE id = ?`, columnID); err != nil {
			return fmt.Errorf("delete column: %w", err)
		}
		ids, err := columnIDs(ctx, tx, boardID)
		if err != nil {
			return err
		}
		if err := writeColumnOrder(ctx, tx, ids); err != nil {
			return err
		}
		return bumpBoard(ctx, tx, boardID)
	})
}

// CreateTask appends a task to the end of a column.
func (s *Store) CreateTask(ctx context.Context, boardID, columnID int64, title, description string) (models.KanbanTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.KanbanTask{}, fmt.Errorf("task title must not be empty: %w", ErrInvalid)
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := columnBoard(ctx, tx, boardID, columnID); err != nil {
			return err
		}
		var order int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM kanban_tasks WHERE column_id = ?`, columnID).Scan(&order); err != nil {
			return fmt.Errorf("select order: %w", err)
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO kanban_tasks(column_id, title, description, sort_order) VALUES(?, ?, ?, ?)`,
			columnID, title, strings.TrimSpace(description), order)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("task id: %w", err)
		}
		return bumpBoard(ctx, tx, boardID)
	})
	if err != nil {
		return models.KanbanTask{}, err
	}
	return s.getTask(ctx, s.db, columnID, id)
}

func (s *Store) getTask(ctx context.Context, q queryer, columnID, id int64) (models.KanbanTask, error) {
	var t models.KanbanTask
	err := q.QueryRowContext(ctx, `SELECT id, column_id, title, description, sort_order, created_at, updated_at
        FROM kanban_tasks WHERE id = ? AND column_id = ?`, id, columnID).
		Scan(&t.ID, &t.ColumnID, &t.Title, &t.Description, &t.Order, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.KanbanTask{}, fmt.Errorf("task: %w", ErrNotFound)
	}
	if err != nil {
		return models.KanbanTask{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask edits a task and optionally moves it. columnID is the column the
// caller believes the task is in; changes.ColumnID, when set, must be a column
// of the same board. Without an explicit order a cross-column move appends.
func (s *Store) UpdateTask(ctx context.Context, boardID, columnID, taskID int64, changes TaskChanges) error {
	if changes.Title != nil && strings.TrimSpace(*changes.Title) == "" {
		return fmt.Errorf("task title must not be empty: %w", ErrInvalid)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := columnBoard(ctx, tx, boardID, columnID); err != nil {
			return err
		}
		current, err := s.getTask(ctx, tx, columnID, taskID)
		if err != nil {
			return err
		}

		if changes.Title != nil || changes.Description != nil {
			title, description := current.Title, current.Description
			if changes.Title != nil {
				title = strings.TrimSpace(*changes.Title)
			}
			if changes.Description != nil {
				description = strings.TrimSpace(*changes.Description)
			}
			_, err := tx.ExecContext(ctx, `UPDATE kanban_tasks SET title = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				title, description, taskID)
			if err != nil {
				return fmt.Errorf("update task: %w", err)
			}
		}

		target := columnID
		if changes.ColumnID != nil && *changes.ColumnID != columnID {
			target = *changes.ColumnID
			if err := columnBoard(ctx, tx, boardID, target); err != nil {
				return err
			}
		}
		if changes.Order != nil || target != columnID {
			order := current.Order
			if changes.Order != nil {
				order = *changes.Order
			} else {
				ids, err := taskIDs(ctx, tx, target)
				if err != nil {
					return err
				}
				order = int64(len(ids))
			}
			if err := moveTask(ctx, tx, taskID, columnID, target, order); err != nil {
				return err
			}
		}
		return bumpBoard(ctx, tx, boardID)
	})
}

// DeleteTask removes a task and closes the gap in its column.
func (s *Store) DeleteTask(ctx context.Context, boardID, columnID, taskID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := columnBoard(ctx, tx, boardID, columnID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM kanban_tasks WHERE id = ? AND column_id = ?`, taskID, columnID)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("task: %w", ErrNotFound)
		}
		ids, err := taskIDs(ctx, tx, columnID)
		if err != nil {
			return err
		}
		if err := writeTaskOrder(ctx, tx, columnID, ids); err != nil {
			return err
		}
		return bumpBoard(ctx, tx, boardID)
	})
}
