package database

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
)

type txRow struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func (txRow) TableName() string { return "tx_rows" }

func openTxDB(t *testing.T) Database {
	t.Helper()
	db, _ := openFileDB(t)
	if err := db.GORM().AutoMigrate(&txRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func countRows(t *testing.T, db Database) int64 {
	t.Helper()
	var n int64
	if err := db.Session(context.Background()).Model(&txRow{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestWithTransaction_Success(t *testing.T) {
	db := openTxDB(t)

	err := WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		return tx.Create(&txRow{Name: "teal"}).Error
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}
	if n := countRows(t, db); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestWithTransaction_Error(t *testing.T) {
	db := openTxDB(t)
	boom := errors.New("boom")

	err := WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		if err := tx.Create(&txRow{Name: "teal"}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n := countRows(t, db); n != 0 {
		t.Errorf("expected rollback to leave 0 rows, got %d", n)
	}
}

func TestWithTransactionResult_Success(t *testing.T) {
	db := openTxDB(t)

	id, err := WithTransactionResult(context.Background(), db, func(tx *gorm.DB) (int64, error) {
		row := txRow{Name: "navy"}
		if err := tx.Create(&row).Error; err != nil {
			return 0, err
		}
		return row.ID, nil
	})
	if err != nil {
		t.Fatalf("WithTransactionResult: %v", err)
	}
	if id == 0 {
		t.Error("expected generated id")
	}
}

func TestWithTransactionResult_Error(t *testing.T) {
	db := openTxDB(t)

	got, err := WithTransactionResult(context.Background(), db, func(tx *gorm.DB) (string, error) {
		return "partial", errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got != "" {
		t.Errorf("expected zero value on error, got %q", got)
	}
}
