package repository

import (
	"gorm.io/gorm"

	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/record"
)

// NewQuoteTable record service over the quotes table, owned by client_id.
func NewQuoteTable(db *gorm.DB) *record.Table[entity.Quote] {
	return record.NewTable[entity.Quote](db, "client_id")
}

// Columns the full document of q as a partial update. Every write sends
// whole sub-documents so a retried write converges on the local state.
func Columns(q entity.Quote) map[string]interface{} {
	return map[string]interface{}{
		"status":              q.Status,
		"factory_id":          q.FactoryID,
		"order_details":       q.Order,
		"response_details":    q.ResponseDetails,
		"negotiation_details": q.NegotiationDetails,
		"execution_plan":      q.ExecutionPlan,
	}
}
