package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
)

// InThread reports whether h belongs to a line item's discussion: chat about
// it or a price entry that counters it.
func InThread(h entity.HistoryItem, lineItemID ident.ID) bool {
	if lineItemID.IsZero() {
		return false
	}
	if h.RelatedLineItemID == lineItemID {
		return true
	}
	for _, p := range h.LineItemPrices {
		if p.LineItemID == lineItemID {
			return true
		}
	}
	return false
}

// LineItemThread one line item's entries, oldest first.
func LineItemThread(history []entity.HistoryItem, lineItemID ident.ID) []entity.HistoryItem {
	out := []entity.HistoryItem{}
	for _, h := range history {
		if InThread(h, lineItemID) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// AppendMessage adds a chat entry about one line item.
func AppendMessage(q entity.Quote, lineItemID ident.ID, sender, message string, attachments []entity.Attachment, now time.Time) (entity.Quote, entity.HistoryItem, error) {
	if sender != entity.SenderClient && sender != entity.SenderFactory {
		return q, entity.HistoryItem{}, ErrInvalidSender
	}
	if q.LineItem(lineItemID) == nil {
		return q, entity.HistoryItem{}, ErrLineItemNotFound
	}
	message = strings.TrimSpace(message)
	if message == "" && len(attachments) == 0 {
		return q, entity.HistoryItem{}, ErrEmptyMessage
	}

	out := q.Clone()
	h := entity.HistoryItem{
		Sender:            sender,
		Action:            entity.ActionInfo,
		Message:           message,
		Timestamp:         now,
		RelatedLineItemID: lineItemID,
	}
	if len(attachments) > 0 {
		h.Attachments = append([]entity.Attachment(nil), attachments...)
	}
	h = appendHistory(&out.NegotiationDetails, h)
	return out, h, nil
}

// AttachmentPaths every stored attachment path in the log, in log order.
func AttachmentPaths(history []entity.HistoryItem) []string {
	var paths []string
	for _, h := range history {
		for _, a := range h.Attachments {
			if a.Path != "" {
				paths = append(paths, a.Path)
			}
		}
	}
	return paths
}
