package kanban

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"collab/internal/models"
)

// Transport delivers a Move to the server and returns the board as persisted.
type Transport interface {
	Send(ctx context.Context, move Move) (models.KanbanBoard, error)
}

// Session keeps one client's copy of a board. Drags are applied locally right
// away and then confirmed or rolled back once the server answers.
type Session struct {
	mu        sync.Mutex
	ref       Ref
	board     models.KanbanBoard
	gen       uint64
	pending   int
	transport Transport
	logger    *slog.Logger
}

// NewSession starts a session on a board fetched from the server.
func NewSession(ref Ref, board models.KanbanBoard, transport Transport, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		ref:       ref,
		board:     cloneBoard(board),
		transport: transport,
		logger:    logger,
	}
}

// Board returns a copy of the current local state.
func (s *Session) Board() models.KanbanBoard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBoard(s.board)
}

// Drag handles a finished drag. It reports whether a request was sent. On
// success the persisted board replaces the optimistic one; on failure the
// board is restored to its state before the drag unless something newer has
// replaced it meanwhile.
func (s *Session) Drag(ctx context.Context, result DragResult) (bool, error) {
	s.mu.Lock()
	snapshot := s.board
	move, ok := Plan(s.ref, snapshot, result)
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	s.board = Apply(snapshot, result)
	s.gen++
	s.pending++
	gen := s.gen
	s.mu.Unlock()

	persisted, err := s.transport.Send(ctx, move)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if err != nil {
		if s.gen == gen {
			s.board = snapshot
			s.gen++
		}
		s.logger.Warn("reorder rejected; rolled back", slog.String("path", move.Path), slog.String("error", err.Error()))
		return true, err
	}
	if persisted.Version >= s.board.Version {
		s.board = cloneBoard(persisted)
		s.gen++
	}
	return true, nil
}

// Remote applies a board pushed by the server. Boards older than the local
// state are ignored, and so are boards of the same version while a drag is in
// flight, since they predate it. The return value tells whether it was taken.
func (s *Session) Remote(board models.KanbanBoard) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if board.ID != s.board.ID || board.Version < s.board.Version {
		return false
	}
	if board.Version == s.board.Version && s.pending > 0 {
		return false
	}
	s.board = cloneBoard(board)
	s.gen++
	return true
}
