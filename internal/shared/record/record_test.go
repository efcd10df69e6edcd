package record

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID        string `gorm:"primaryKey;size:32"`
	OwnerID   string `gorm:"size:32;index"`
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestTableCRUD(t *testing.T) {
	ctx := context.Background()
	tbl := NewTable[widget](setupTestDB(t), "owner_id")

	w := &widget{ID: "w1", OwnerID: "u1", Name: "shirt", Status: "draft", CreatedAt: time.Now()}
	if err := tbl.Create(ctx, w); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tbl.Create(ctx, &widget{ID: "w2", OwnerID: "u1", Name: "pant", CreatedAt: time.Now().Add(time.Second)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := tbl.Update(ctx, "w1", map[string]interface{}{"status": "final"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != "final" || got.Name != "shirt" {
		t.Fatalf("partial update changed wrong fields: %+v", got)
	}

	list, err := tbl.GetByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "w2" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	if err := tbl.Delete(ctx, "w1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := tbl.GetByID(ctx, "w1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTableUpdateMissingRow(t *testing.T) {
	tbl := NewTable[widget](setupTestDB(t), "owner_id")
	if _, err := tbl.Update(context.Background(), "nope", map[string]interface{}{"status": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
