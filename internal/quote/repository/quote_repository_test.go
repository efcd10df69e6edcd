package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
)

func TestQuoteTableRoundTripsDocuments(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&entity.Quote{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	tbl := NewQuoteTable(db)
	q := &entity.Quote{
		ID:       "q1",
		ClientID: "client-1",
		Status:   entity.StatusPending,
		Order: entity.OrderDetails{LineItems: []entity.LineItem{
			{ID: "li1", Category: "Polo", Qty: 500, TargetPrice: 4.5},
		}},
	}
	if err := tbl.Create(ctx, q); err != nil {
		t.Fatalf("create: %v", err)
	}

	q.Status = entity.StatusInNegotiation
	at := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	q.NegotiationDetails.History = []entity.HistoryItem{{ID: "h1", Sender: entity.SenderClient, Action: entity.ActionCounter, Timestamp: at}}
	q.NegotiationDetails.ClientApprovedLineItems = nil
	q.PendingWrite = true

	got, err := tbl.Update(ctx, "q1", Columns(*q))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != entity.StatusInNegotiation || len(got.NegotiationDetails.History) != 1 {
		t.Fatalf("Unexpected stored quote: %+v", got)
	}
	if got.Order.LineItems[0].TargetPrice != 4.5 {
		t.Fatalf("Line items lost: %+v", got.Order)
	}
	if got.PendingWrite {
		t.Fatal("pending_write must not be persisted")
	}
}
