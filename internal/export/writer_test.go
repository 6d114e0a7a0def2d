package export

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNewWriter(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(FormatCSV, filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatalf("NewWriter(csv) error = %v", err)
	}
	if _, ok := w.(*CSVWriter); !ok {
		t.Errorf("NewWriter(csv) = %T", w)
	}

	w, err = NewWriter(FormatSQLite, filepath.Join(dir, "out.db"))
	if err != nil {
		t.Fatalf("NewWriter(sqlite) error = %v", err)
	}
	if _, ok := w.(*SQLiteWriter); !ok {
		t.Errorf("NewWriter(sqlite) = %T", w)
	}
	_ = w.Close()

	if _, err := NewWriter("parquet", "x"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("NewWriter(parquet) error = %v, want ErrUnknownFormat", err)
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "splits.csv")
	table := Assemble(sampleRows())
	if err := table.DropColumns(ColSeason); err != nil {
		t.Fatal(err)
	}

	w := NewCSVWriter(path)
	if err := w.Write(context.Background(), table); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	got, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !reflect.DeepEqual(got, table.Records()) {
		t.Errorf("csv = %v, want %v", got, table.Records())
	}
	if got[1][0] != "Aaron Nola" {
		t.Errorf("first data row = %v", got[1])
	}
}

func TestCSVWriter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "splits.csv")

	if err := NewCSVWriter(path).Write(ctx, Assemble(nil)); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file written despite cancelled context")
	}
}

func TestSQLiteWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splits.db")
	w, err := NewSQLiteWriter(path)
	if err != nil {
		t.Fatalf("NewSQLiteWriter() error = %v", err)
	}
	defer w.Close()

	ctx := context.Background()
	if err := w.Write(ctx, Assemble(sampleRows())); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// A second run replaces the first.
	table := Assemble(sampleRows()[:2])
	if err := table.DropColumns(ColSeason); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(ctx, table); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	var stored []GameSplit
	if err := w.DB().Order("pitcher_name, game_datetime_utc").Find(&stored).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d rows, want 2", len(stored))
	}
	if stored[0].PitcherName != "Gerrit Cole" || stored[0].GamePk != 2 || stored[0].GameERA != 4.5 {
		t.Errorf("stored[0] = %+v", stored[0])
	}
	if stored[0].Season != 0 {
		t.Errorf("dropped season stored as %d, want 0", stored[0].Season)
	}
}

func TestSQLiteWriter_EmptyTable(t *testing.T) {
	w, err := NewSQLiteWriter(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteWriter() error = %v", err)
	}
	defer w.Close()

	if err := w.Write(context.Background(), Assemble(nil)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	var n int64
	w.DB().Model(&GameSplit{}).Count(&n)
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestMigrate_ClosesOnFailure(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "splits.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// A view of the same name blocks the table.
	if err := db.Exec("CREATE VIEW game_splits AS SELECT 1 AS id").Error; err != nil {
		t.Fatalf("create view: %v", err)
	}

	if err := migrate(db); err == nil {
		t.Fatal("migrate() error = nil, want failure")
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB(): %v", err)
	}
	if err := sqlDB.Ping(); err == nil {
		t.Error("database still open after a failed migration")
	}
}
