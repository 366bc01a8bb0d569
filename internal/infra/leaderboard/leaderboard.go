// Package leaderboard stores daily slot-game scores. The production
// implementation is a Redis sorted set; the engine only depends on the
// Board interface so it runs (and tests run) without Redis.
package leaderboard

import (
	"context"
	"sort"
	"sync"
)

// Entry is one ranked score.
type Entry struct {
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
}

// Board accumulates scores per user on a named board and reports the
// top entries.
type Board interface {
	Submit(ctx context.Context, board, userID string, score int) error
	Top(ctx context.Context, board string, n int) ([]Entry, error)
}

// Nop discards all scores. Used when no Redis endpoint is configured.
type Nop struct{}

func (Nop) Submit(context.Context, string, string, int) error { return nil }
func (Nop) Top(context.Context, string, int) ([]Entry, error) { return nil, nil }

// Memory is an in-process board for tests.
type Memory struct {
	mu     sync.Mutex
	boards map[string]map[string]int
}

// NewMemory creates an empty in-memory board.
func NewMemory() *Memory {
	return &Memory{boards: make(map[string]map[string]int)}
}

func (m *Memory) Submit(_ context.Context, board, userID string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.boards[board] == nil {
		m.boards[board] = make(map[string]int)
	}
	m.boards[board][userID] += score
	return nil
}

func (m *Memory) Top(_ context.Context, board string, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]Entry, 0, len(m.boards[board]))
	for user, score := range m.boards[board] {
		entries = append(entries, Entry{UserID: user, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}
