package sqlite

import (
	"context"
	"fmt"
)

// placeAt removes id from ids (if present) and reinserts it at index target,
// clamped to the bounds of the remaining list. The input slice is not modified.
//
// Orders are kept dense, so an order value received from a client is also the
// index the item should end up at.
func placeAt(ids []int64, id int64, target int64) []int64 {
	rest := make([]int64, 0, len(ids)+1)
	for _, v := range ids {
		if v != id {
			rest = append(rest, v)
		}
	}
	if target < 0 {
		target = 0
	}
	if target > int64(len(rest)) {
		target = int64(len(rest))
	}
	out := make([]int64, 0, len(rest)+1)
	out = append(out, rest[:target]...)
	out = append(out, id)
	return append(out, rest[target:]...)
}

// without returns ids minus id, preserving order.
func without(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func columnIDs(ctx context.Context, q queryer, boardID int64) ([]int64, error) {
	return collectIDs(ctx, q, `SELECT id FROM kanban_columns WHERE board_id = ? ORDER BY sort_order, id`, boardID)
}

func taskIDs(ctx context.Context, q queryer, columnID int64) ([]int64, error) {
	return collectIDs(ctx, q, `SELECT id FROM kanban_tasks WHERE column_id = ? ORDER BY sort_order, id`, columnID)
}

func collectIDs(ctx context.Context, q queryer, query string, arg int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// writeColumnOrder renumbers the given columns 0..n-1 in slice order.
func writeColumnOrder(ctx context.Context, q queryer, ids []int64) error {
	for i, id := range ids {
		if _, err := q.ExecContext(ctx, `UPDATE kanban_columns SET sort_order = ? WHERE id = ? AND sort_order <> ?`, i, id, i); err != nil {
			return fmt.Errorf("reorder column %d: %w", id, err)
		}
	}
	return nil
}

// writeTaskOrder places the given tasks in columnID, renumbered 0..n-1 in slice order.
// Only rows whose column or order actually change are touched.
func writeTaskOrder(ctx context.Context, q queryer, columnID int64, ids []int64) error {
	for i, id := range ids {
		_, err := q.ExecContext(ctx, `UPDATE kanban_tasks SET column_id = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP
            WHERE id = ? AND (column_id <> ? OR sort_order <> ?)`, columnID, i, id, columnID, i)
		if err != nil {
			return fmt.Errorf("reorder task %d: %w", id, err)
		}
	}
	return nil
}

// moveColumn moves columnID to targetOrder among the columns of boardID.
func moveColumn(ctx context.Context, q queryer, boardID, columnID, targetOrder int64) error {
	ids, err := columnIDs(ctx, q, boardID)
	if err != nil {
		return err
	}
	return writeColumnOrder(ctx, q, placeAt(ids, columnID, targetOrder))
}

// moveTask moves taskID from column from to column to at targetOrder. Both
// columns stay densely ordered afterwards.
func moveTask(ctx context.Context, q queryer, taskID, from, to, targetOrder int64) error {
	if from == to {
		ids, err := taskIDs(ctx, q, from)
		if err != nil {
			return err
		}
		return writeTaskOrder(ctx, q, from, placeAt(ids, taskID, targetOrder))
	}

	src, err := taskIDs(ctx, q, from)
	if err != nil {
		return err
	}
	dst, err := taskIDs(ctx, q, to)
	if err != nil {
		return err
	}
	if err := writeTaskOrder(ctx, q, to, placeAt(dst, taskID, targetOrder)); err != nil {
		return err
	}
	return writeTaskOrder(ctx, q, from, without(src, taskID))
}

// bumpBoard records a change to boardID.
func bumpBoard(ctx context.Context, q queryer, boardID int64) error {
	_, err := q.ExecContext(ctx, `UPDATE kanban_boards SET version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, boardID)
	if err != nil {
		return fmt.Errorf("bump board: %w", err)
	}
	return nil
}
