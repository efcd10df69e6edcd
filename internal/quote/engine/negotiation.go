package engine

import (
	"strings"
	"time"

	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
)

// appendHistory adds h keeping the log ordered by timestamp: an entry never
// sorts before the one already last.
func appendHistory(nd *entity.NegotiationDetails, h entity.HistoryItem) entity.HistoryItem {
	if n := len(nd.History); n > 0 && h.Timestamp.Before(nd.History[n-1].Timestamp) {
		h.Timestamp = nd.History[n-1].Timestamp
	}
	if h.ID.IsZero() {
		h.ID = ident.New()
	}
	nd.History = append(nd.History, h)
	return h
}

// SubmitNegotiation records a client counter: countered line items take the
// counter as their target price, one counter entry is appended, and the quote
// reopens to In Negotiation whatever its approvals say.
func SubmitNegotiation(q entity.Quote, overallPrice *entity.Amount, message string, counters []entity.LineItemPrice, now time.Time) (entity.Quote, entity.HistoryItem, error) {
	if q.IsClosed() {
		return q, entity.HistoryItem{}, ErrQuoteClosed
	}
	message = strings.TrimSpace(message)
	if overallPrice == nil && message == "" && len(counters) == 0 {
		return q, entity.HistoryItem{}, ErrEmptyNegotiation
	}
	for _, c := range counters {
		if q.LineItem(c.LineItemID) == nil {
			return q, entity.HistoryItem{}, ErrLineItemNotFound
		}
	}

	out := q.Clone()
	for _, c := range counters {
		out.LineItem(c.LineItemID).TargetPrice = c.Price
	}

	h := entity.HistoryItem{
		Sender:    entity.SenderClient,
		Action:    entity.ActionCounter,
		Message:   message,
		Price:     overallPrice,
		Timestamp: now,
	}
	if len(counters) > 0 {
		h.LineItemPrices = append([]entity.LineItemPrice(nil), counters...)
	}
	h = appendHistory(&out.NegotiationDetails, h)
	out.Status = entity.StatusInNegotiation
	return out, h, nil
}

// NegotiateLineItem counters a single line item.
func NegotiateLineItem(q entity.Quote, lineItemID ident.ID, price entity.Amount, message string, now time.Time) (entity.Quote, entity.HistoryItem, error) {
	return SubmitNegotiation(q, nil, message, []entity.LineItemPrice{{LineItemID: lineItemID, Price: price}}, now)
}

// FactoryResponse the factory's quoted terms
type FactoryResponse struct {
	Price          entity.Amount          `json:"price"`
	LeadTime       string                 `json:"leadTime"`
	Notes          string                 `json:"notes"`
	LineItemPrices []entity.LineItemPrice `json:"lineItemPrices"`
}

// Respond writes the factory's terms and logs them as an offer. A pending
// quote becomes Responded; one in negotiation stays there with the new offer.
func Respond(q entity.Quote, r FactoryResponse, now time.Time) (entity.Quote, entity.HistoryItem, error) {
	if q.IsClosed() {
		return q, entity.HistoryItem{}, ErrQuoteClosed
	}
	for _, p := range r.LineItemPrices {
		if q.LineItem(p.LineItemID) == nil {
			return q, entity.HistoryItem{}, ErrLineItemNotFound
		}
	}

	out := q.Clone()
	at := now
	out.ResponseDetails.Price = r.Price
	out.ResponseDetails.LeadTime = r.LeadTime
	out.ResponseDetails.Notes = r.Notes
	out.ResponseDetails.RespondedAt = &at

	price := r.Price
	h := entity.HistoryItem{
		Sender:    entity.SenderFactory,
		Action:    entity.ActionOffer,
		Message:   strings.TrimSpace(r.Notes),
		Price:     &price,
		Timestamp: now,
	}
	if len(r.LineItemPrices) > 0 {
		h.LineItemPrices = append([]entity.LineItemPrice(nil), r.LineItemPrices...)
	}
	h = appendHistory(&out.NegotiationDetails, h)

	switch q.Status {
	case entity.StatusPending, entity.StatusResponded, "":
		out.Status = entity.StatusResponded
	default:
		out.Status = entity.StatusInNegotiation
	}
	return out, h, nil
}
