package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const insertBatchSize = 500

// GameSplit is the persisted form of a Row.
type GameSplit struct {
	ID          uint    `gorm:"primaryKey"`
	PitcherName string  `gorm:"column:pitcher_name;index"`
	Season      int     `gorm:"column:season;index"`
	GamePk      int     `gorm:"column:game_pk"`
	GameDate    string  `gorm:"column:game_datetime_utc"`
	Park        string  `gorm:"column:park"`
	ParkCity    string  `gorm:"column:park_city"`
	ParkState   string  `gorm:"column:park_state"`
	GameERA     float64 `gorm:"column:game_era"`
}

// TableName implements gorm's tabler.
func (GameSplit) TableName() string { return "game_splits" }

// SQLiteWriter writes a table into the game_splits table of a SQLite file.
// Every write replaces the previous contents.
type SQLiteWriter struct {
	db *gorm.DB
}

// NewSQLiteWriter opens (or creates) the database at path and migrates it.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &SQLiteWriter{db: db}, nil
}

// migrate creates or updates game_splits, closing db when that fails.
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&GameSplit{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return fmt.Errorf("migrate game_splits: %w", err)
	}
	return nil
}

// Write replaces the game_splits rows in one transaction. Dropped columns
// are stored as zero values.
func (w *SQLiteWriter) Write(ctx context.Context, t *Table) error {
	records := make([]GameSplit, 0, len(t.Rows))
	for _, r := range t.Rows {
		records = append(records, toGameSplit(t, r))
	}

	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&GameSplit{}).Error; err != nil {
			return fmt.Errorf("clear game_splits: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert game_splits: %w", err)
		}
		return nil
	})
}

func toGameSplit(t *Table, r Row) GameSplit {
	var g GameSplit
	if t.Has(ColPitcherName) {
		g.PitcherName = r.PitcherName
	}
	if t.Has(ColSeason) {
		g.Season = r.Season
	}
	if t.Has(ColGamePk) {
		g.GamePk = r.GamePk
	}
	if t.Has(ColGameDate) {
		g.GameDate = r.GameDate
	}
	if t.Has(ColPark) {
		g.Park = r.Park
	}
	if t.Has(ColParkCity) {
		g.ParkCity = r.ParkCity
	}
	if t.Has(ColParkState) {
		g.ParkState = r.ParkState
	}
	if t.Has(ColGameERA) {
		g.GameERA = r.GameERA
	}
	return g
}

// DB exposes the underlying connection.
func (w *SQLiteWriter) DB() *gorm.DB { return w.db }

// Close closes the database.
func (w *SQLiteWriter) Close() error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
