// Package postgres persists the canonical signal log in PostgreSQL. Log order
// is the insertion order of the position column; the two sheet-style header
// rows live in their own table so a retention rewrite can keep them verbatim.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/otcflow/signaldesk/internal/domain"
	"github.com/otcflow/signaldesk/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS signal_log (
	position   BIGSERIAL PRIMARY KEY,
	trade_date TEXT NOT NULL,
	trade_time TEXT NOT NULL,
	asset      TEXT NOT NULL,
	direction  TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	gale       INT  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS signal_log_header (
	position INT PRIMARY KEY,
	cells    TEXT[] NOT NULL
);
`

// Log implements store.SignalLog on sqlx.
type Log struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewLog(db *sqlx.DB, timeout time.Duration) *Log {
	return &Log{db: db, timeout: timeout}
}

// EnsureSchema creates the log tables and seeds the default header rows when
// the header table is empty.
func (l *Log) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create signal log schema: %w", err)
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO signal_log_header (position, cells) VALUES
			(0, $1), (1, $2)
		 ON CONFLICT (position) DO NOTHING`,
		pq.Array([]string{"SIGNAL LOG"}),
		pq.Array([]string{"date", "time", "asset", "direction", "outcome", "gale"}))
	if err != nil {
		return fmt.Errorf("seed signal log header: %w", err)
	}
	return nil
}

type rowRecord struct {
	Position  int64  `db:"position"`
	TradeDate string `db:"trade_date"`
	TradeTime string `db:"trade_time"`
	Asset     string `db:"asset"`
	Direction string `db:"direction"`
	Outcome   string `db:"outcome"`
	Gale      int    `db:"gale"`
}

func (r rowRecord) signal() (domain.Signal, error) {
	return domain.SignalFromFields([]string{
		r.TradeDate, r.TradeTime, r.Asset, r.Direction, r.Outcome, fmt.Sprint(r.Gale),
	})
}

func (l *Log) Snapshot(ctx context.Context) (*store.View, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var headerRows []struct {
		Position int            `db:"position"`
		Cells    pq.StringArray `db:"cells"`
	}
	err := l.db.SelectContext(ctx, &headerRows,
		`SELECT position, cells FROM signal_log_header ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("read log header: %w", err)
	}

	var records []rowRecord
	err = l.db.SelectContext(ctx, &records,
		`SELECT position, trade_date, trade_time, asset, direction, outcome, gale
		 FROM signal_log ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("read log rows: %w", err)
	}

	view := &store.View{}
	for _, h := range headerRows {
		view.Header = append(view.Header, []string(h.Cells))
	}
	for i, rec := range records {
		sig, err := rec.signal()
		if err != nil {
			return nil, fmt.Errorf("row at position %d: %w", rec.Position, err)
		}
		view.Rows = append(view.Rows, store.Row{Index: i, Signal: sig})
	}
	return view, nil
}

func (l *Log) UpdateRow(ctx context.Context, index int, sig domain.Signal) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := l.db.ExecContext(ctx,
		`UPDATE signal_log
		 SET trade_date = $1, trade_time = $2, asset = $3, direction = $4, outcome = $5, gale = $6
		 WHERE position = (SELECT position FROM signal_log ORDER BY position OFFSET $7 LIMIT 1)`,
		sig.Date.Format(domain.DateLayout), sig.Time.String(), sig.Asset,
		string(sig.Direction), string(sig.Outcome), sig.Gale, index)
	if err != nil {
		return fmt.Errorf("update log row %d: %w", index, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update log row %d: %w", index, err)
	}
	if n == 0 {
		return fmt.Errorf("update log row %d: no such row", index)
	}
	return nil
}

func (l *Log) AppendRows(ctx context.Context, sigs []domain.Signal) error {
	if len(sigs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback()

	for _, sig := range sigs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO signal_log (trade_date, trade_time, asset, direction, outcome, gale)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			sig.Date.Format(domain.DateLayout), sig.Time.String(), sig.Asset,
			string(sig.Direction), string(sig.Outcome), sig.Gale)
		if err != nil {
			return fmt.Errorf("append log row %s: %w", sig.Time, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

func (l *Log) Rewrite(ctx context.Context, header [][]string, rows []domain.Signal) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rewrite tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM signal_log`); err != nil {
		return fmt.Errorf("clear log rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM signal_log_header`); err != nil {
		return fmt.Errorf("clear log header: %w", err)
	}
	for i, cells := range header {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO signal_log_header (position, cells) VALUES ($1, $2)`,
			i, pq.Array(cells))
		if err != nil {
			return fmt.Errorf("rewrite header row %d: %w", i, err)
		}
	}
	for _, sig := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO signal_log (trade_date, trade_time, asset, direction, outcome, gale)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			sig.Date.Format(domain.DateLayout), sig.Time.String(), sig.Asset,
			string(sig.Direction), string(sig.Outcome), sig.Gale)
		if err != nil {
			return fmt.Errorf("rewrite log row %s: %w", sig.Time, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rewrite tx: %w", err)
	}
	return nil
}
