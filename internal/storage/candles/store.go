// Package candles stores OHLCV history in sqlite for the feed, the
// backtest and the viewer.
package candles

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS candles (
	exchange  TEXT    NOT NULL,
	symbol    TEXT    NOT NULL,
	open_time INTEGER NOT NULL,
	open      TEXT    NOT NULL,
	high      TEXT    NOT NULL,
	low       TEXT    NOT NULL,
	close     TEXT    NOT NULL,
	volume    TEXT    NOT NULL,
	PRIMARY KEY (exchange, symbol, open_time)
);
`

// Store is a sqlite-backed candle store. Prices are stored as TEXT so
// decimals round-trip exactly; open_time is unix milliseconds.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database and ensures the schema exists.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open candle database %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create candles table")
	}

	return &Store{db: db}, nil
}

// Save upserts a batch of candles in one transaction. Re-fetched bars
// overwrite their previous values, so a partially-closed candle is healed
// on the next sync.
func (s *Store) Save(ctx context.Context, batch []domain.Candle) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin candle transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (exchange, symbol, open_time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(exchange, symbol, open_time) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume`)
	if err != nil {
		return errors.Wrap(err, "prepare candle upsert")
	}
	defer stmt.Close()

	for _, c := range batch {
		if _, err := stmt.ExecContext(ctx,
			c.Exchange, c.Symbol, c.OpenTime.UnixMilli(),
			c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(), c.Volume.String(),
		); err != nil {
			return errors.Wrapf(err, "upsert candle %s/%s@%s", c.Exchange, c.Symbol, c.OpenTime)
		}
	}

	return tx.Commit()
}

// LastOpenTime returns the newest stored bar time for (exchange, symbol).
// ok is false when nothing is stored yet.
func (s *Store) LastOpenTime(ctx context.Context, exchange, symbol string) (time.Time, bool, error) {
	var msec sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(open_time) FROM candles WHERE exchange = ? AND symbol = ?`,
		exchange, symbol,
	).Scan(&msec)
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, "query last open time for %s/%s", exchange, symbol)
	}
	if !msec.Valid {
		return time.Time{}, false, nil
	}

	return time.UnixMilli(msec.Int64), true, nil
}

// Candles returns the most recent limit bars for (exchange, symbol) in
// ascending open-time order. limit <= 0 returns everything.
func (s *Store) Candles(ctx context.Context, exchange, symbol string, limit int) ([]domain.Candle, error) {
	query := `SELECT open_time, open, high, low, close, volume
		FROM candles WHERE exchange = ? AND symbol = ?
		ORDER BY open_time DESC`
	args := []any{exchange, symbol}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query candles for %s/%s", exchange, symbol)
	}
	defer rows.Close()

	var result []domain.Candle
	for rows.Next() {
		var msec int64
		var open, high, low, closePrice, volume string
		if err := rows.Scan(&msec, &open, &high, &low, &closePrice, &volume); err != nil {
			return nil, errors.Wrap(err, "scan candle row")
		}

		candle := domain.Candle{
			Exchange: exchange,
			Symbol:   symbol,
			OpenTime: time.UnixMilli(msec),
		}
		if candle.Open, err = decimal.NewFromString(open); err != nil {
			return nil, errors.Wrapf(err, "parse open price %q", open)
		}
		if candle.High, err = decimal.NewFromString(high); err != nil {
			return nil, errors.Wrapf(err, "parse high price %q", high)
		}
		if candle.Low, err = decimal.NewFromString(low); err != nil {
			return nil, errors.Wrapf(err, "parse low price %q", low)
		}
		if candle.Close, err = decimal.NewFromString(closePrice); err != nil {
			return nil, errors.Wrapf(err, "parse close price %q", closePrice)
		}
		if candle.Volume, err = decimal.NewFromString(volume); err != nil {
			return nil, errors.Wrapf(err, "parse volume %q", volume)
		}
		result = append(result, candle)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate candle rows")
	}

	// reverse newest-first into ascending order.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
