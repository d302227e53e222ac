package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcflow/signaldesk/internal/domain"
)

func newMockLog(t *testing.T) (*Log, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLog(sqlx.NewDb(db, "sqlmock"), 5*time.Second), mock
}

func testSignal(date, tod string) domain.Signal {
	d, _ := time.Parse(domain.DateLayout, date)
	return domain.Signal{
		Date:      d,
		Time:      domain.MustTimeOfDay(tod),
		Asset:     "EURUSD-OTC",
		Direction: domain.DirectionCall,
		Outcome:   domain.OutcomeWin,
		Gale:      1,
	}
}

func TestSnapshot(t *testing.T) {
	l, mock := newMockLog(t)

	mock.ExpectQuery(`SELECT position, cells FROM signal_log_header`).
		WillReturnRows(sqlmock.NewRows([]string{"position", "cells"}).
			AddRow(0, `{"SIGNAL LOG"}`).
			AddRow(1, `{date,time,asset,direction,outcome,gale}`))

	mock.ExpectQuery(`SELECT position, trade_date, trade_time`).
		WillReturnRows(sqlmock.NewRows([]string{
			"position", "trade_date", "trade_time", "asset", "direction", "outcome", "gale",
		}).
			AddRow(7, "28/08/2026", "16:00:00", "EURUSD-OTC", "CALL", "WIN", 1).
			AddRow(9, "28/08/2026", "16:05:00", "GBPJPY", "PUT", "PENDING", 0))

	view, err := l.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, view.Header, 2)
	require.Len(t, view.Rows, 2)
	// Indices are dense log positions, not database sequence values.
	assert.Equal(t, 0, view.Rows[0].Index)
	assert.Equal(t, 1, view.Rows[1].Index)
	assert.Equal(t, "EURUSD-OTC", view.Rows[0].Signal.Asset)
	assert.Equal(t, domain.OutcomePending, view.Rows[1].Signal.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRow(t *testing.T) {
	l, mock := newMockLog(t)

	mock.ExpectExec(`UPDATE signal_log`).
		WithArgs("28/08/2026", "16:00:00", "EURUSD-OTC", "CALL", "WIN", 1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := l.UpdateRow(context.Background(), 3, testSignal("28/08/2026", "16:00:00"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRow_Missing(t *testing.T) {
	l, mock := newMockLog(t)

	mock.ExpectExec(`UPDATE signal_log`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := l.UpdateRow(context.Background(), 99, testSignal("28/08/2026", "16:00:00"))
	assert.ErrorContains(t, err, "no such row")
}

func TestAppendRows(t *testing.T) {
	l, mock := newMockLog(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO signal_log`).
		WithArgs("28/08/2026", "16:00:00", "EURUSD-OTC", "CALL", "WIN", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO signal_log`).
		WithArgs("28/08/2026", "16:05:00", "EURUSD-OTC", "CALL", "WIN", 1).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := l.AppendRows(context.Background(), []domain.Signal{
		testSignal("28/08/2026", "16:00:00"),
		testSignal("28/08/2026", "16:05:00"),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendRows_Empty(t *testing.T) {
	l, mock := newMockLog(t)
	require.NoError(t, l.AppendRows(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRewrite(t *testing.T) {
	l, mock := newMockLog(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM signal_log`).WillReturnResult(sqlmock.NewResult(0, 500))
	mock.ExpectExec(`DELETE FROM signal_log_header`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO signal_log_header`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO signal_log `).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := l.Rewrite(context.Background(),
		[][]string{{"SIGNAL LOG"}},
		[]domain.Signal{testSignal("28/08/2026", "16:00:00")})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
