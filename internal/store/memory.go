package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/otcflow/signaldesk/internal/domain"
)

// MemoryLog is an in-process SignalLog for tests and dry runs.
type MemoryLog struct {
	mu     sync.Mutex
	header [][]string
	rows   []domain.Signal
}

// NewMemoryLog creates a log with the standard two header rows.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		header: [][]string{
			{"SIGNAL LOG"},
			{"date", "time", "asset", "direction", "outcome", "gale"},
		},
	}
}

func (l *MemoryLog) Snapshot(ctx context.Context) (*View, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := &View{
		Header: append([][]string(nil), l.header...),
		Rows:   make([]Row, len(l.rows)),
	}
	for i, s := range l.rows {
		v.Rows[i] = Row{Index: i, Signal: s}
	}
	return v, nil
}

func (l *MemoryLog) UpdateRow(ctx context.Context, index int, sig domain.Signal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.rows) {
		return fmt.Errorf("update row %d: out of range (have %d rows)", index, len(l.rows))
	}
	l.rows[index] = sig
	return nil
}

func (l *MemoryLog) AppendRows(ctx context.Context, sigs []domain.Signal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, sigs...)
	return nil
}

func (l *MemoryLog) Rewrite(ctx context.Context, header [][]string, rows []domain.Signal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.header = append([][]string(nil), header...)
	l.rows = append([]domain.Signal(nil), rows...)
	return nil
}
