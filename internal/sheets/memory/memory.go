package memory

import (
	"context"
	"sync"

	ports "lendbook/internal/sheets"
)

// Store is an in-memory mirror sheet used by the memory backend and the
// test suites.
type Store struct {
	mu       sync.Mutex
	header   []string
	rows     [][]string
	replaces int
}

var (
	_ ports.RowWriter = (*Store)(nil)
	_ ports.RowReader = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// ReplaceRows swaps the stored grid for the given one.
func (s *Store) ReplaceRows(_ context.Context, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.header = append([]string(nil), header...)
	s.rows = make([][]string, 0, len(rows))
	for _, row := range rows {
		s.rows = append(s.rows, append([]string(nil), row...))
	}
	s.replaces++
	return nil
}

// ReadRows returns copies of the stored header and rows.
func (s *Store) ReadRows(_ context.Context) ([]string, [][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	header := append([]string(nil), s.header...)
	rows := make([][]string, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, append([]string(nil), row...))
	}
	return header, rows, nil
}

// ReplaceCount reports how many times the grid has been replaced.
func (s *Store) ReplaceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaces
}
