package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"Kolgejt/internal/model"
)

// SQLiteBarCache persists daily bars to a SQLite database.
type SQLiteBarCache struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteBarCache opens (or creates) the SQLite database and runs migrations.
func NewSQLiteBarCache(dbPath string, logger *zap.Logger) (*SQLiteBarCache, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteBarCache{db: db, logger: logger, now: time.Now}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite bar cache opened", zap.String("path", dbPath))
	return c, nil
}

func (c *SQLiteBarCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_bars (
			symbol    TEXT    NOT NULL,
			timestamp INTEGER NOT NULL,
			open      REAL,
			high      REAL,
			low       REAL,
			close     REAL,
			volume    REAL,
			PRIMARY KEY (symbol, timestamp)
		)`,
		`CREATE TABLE IF NOT EXISTS fetch_log (
			symbol     TEXT PRIMARY KEY,
			fetched_at INTEGER NOT NULL,
			days       INTEGER NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (c *SQLiteBarCache) Get(ctx context.Context, symbol string, days int, maxAge time.Duration) ([]model.OHLCV, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fetchedAt int64
	var storedDays int
	err := c.db.QueryRowContext(ctx,
		`SELECT fetched_at, days FROM fetch_log WHERE symbol = ?`, symbol,
	).Scan(&fetchedAt, &storedDays)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if storedDays < days || c.now().Sub(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, false, nil
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT timestamp, open, high, low, close, volume FROM daily_bars
		 WHERE symbol = ? ORDER BY timestamp DESC LIMIT ?`, symbol, days)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var bars []model.OHLCV
	for rows.Next() {
		var ts int64
		var b model.OHLCV
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, false, err
		}
		b.Time = time.Unix(ts, 0).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(bars) == 0 {
		return nil, false, nil
	}
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, true, nil
}

func (c *SQLiteBarCache) Put(ctx context.Context, symbol string, days int, bars []model.OHLCV) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_bars WHERE symbol = ?`, symbol); err != nil {
		return err
	}
	for _, b := range bars {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO daily_bars
			(symbol, timestamp, open, high, low, close, volume)
			VALUES (?,?,?,?,?,?,?)`,
			symbol, b.Time.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO fetch_log (symbol, fetched_at, days) VALUES (?,?,?)
		ON CONFLICT(symbol) DO UPDATE SET fetched_at = excluded.fetched_at, days = excluded.days`,
		symbol, c.now().Unix(), days,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (c *SQLiteBarCache) Close() error {
	c.logger.Info("closing sqlite bar cache")
	return c.db.Close()
}
