// Package engine derives quote status from both parties' approvals, appends
// to the negotiation log and advances the sample request. Operations return a
// new quote and never mutate their input.
package engine

import (
	"errors"
	"time"

	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
)

var (
	ErrQuoteClosed          = errors.New("quote is already accepted or declined")
	ErrLineItemNotFound     = errors.New("line item not found")
	ErrConfirmationRequired = errors.New("approving a line item requires confirmation")
	ErrInvalidParty         = errors.New("party must be client or admin")
	ErrEmptyNegotiation     = errors.New("negotiation needs a message, a price or a line item counter")
	ErrEmptyMessage         = errors.New("message or attachment required")
	ErrInvalidSender        = errors.New("sender must be client or factory")
)

// DeriveStatus is the quote status implied by both approval sets over all
// line items. A quote without line items stays in negotiation.
func DeriveStatus(lineItems, clientApproved, adminApproved []ident.ID) string {
	if len(lineItems) == 0 {
		return entity.StatusInNegotiation
	}
	allClient := subset(lineItems, clientApproved)
	allAdmin := subset(lineItems, adminApproved)
	switch {
	case allClient && allAdmin:
		return entity.StatusAccepted
	case allClient:
		return entity.StatusClientAccepted
	case allAdmin:
		return entity.StatusAdminAccepted
	default:
		return entity.StatusInNegotiation
	}
}

func subset(ids, of []ident.ID) bool {
	set := make(map[ident.ID]struct{}, len(of))
	for _, id := range of {
		set[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// ApprovalResult outcome of one approval toggle
type ApprovalResult struct {
	LineItemID     ident.ID `json:"lineItemId"`
	Approved       bool     `json:"approved"`
	Status         string   `json:"status"`
	PreviousStatus string   `json:"previousStatus"`
	BecameAccepted bool     `json:"becameAccepted"`
}

// ToggleApproval flips one party's approval of a line item. Approving needs
// confirmed; withdrawing does not. Reaching Accepted stamps acceptedAt.
func ToggleApproval(q entity.Quote, party string, lineItemID ident.ID, confirmed bool, now time.Time) (entity.Quote, ApprovalResult, error) {
	if party != entity.PartyClient && party != entity.PartyAdmin {
		return q, ApprovalResult{}, ErrInvalidParty
	}
	if q.IsClosed() {
		return q, ApprovalResult{}, ErrQuoteClosed
	}
	if q.LineItem(lineItemID) == nil {
		return q, ApprovalResult{}, ErrLineItemNotFound
	}

	out := q.Clone()
	nd := &out.NegotiationDetails
	set := &nd.ClientApprovedLineItems
	if party == entity.PartyAdmin {
		set = &nd.AdminApprovedLineItems
	}

	res := ApprovalResult{LineItemID: lineItemID, PreviousStatus: q.Status}
	if ident.Contains(*set, lineItemID) {
		*set = ident.Without(*set, lineItemID)
	} else {
		if !confirmed {
			return q, ApprovalResult{}, ErrConfirmationRequired
		}
		*set = append(*set, lineItemID)
		res.Approved = true
	}

	out.Status = DeriveStatus(out.LineItemIDs(), nd.ClientApprovedLineItems, nd.AdminApprovedLineItems)
	if out.Status == entity.StatusAccepted {
		at := now
		out.ResponseDetails.AcceptedAt = &at
		res.BecameAccepted = true
	}
	res.Status = out.Status
	return out, res, nil
}

// Decline closes the quote on the client's behalf.
func Decline(q entity.Quote) (entity.Quote, error) {
	if q.IsClosed() {
		return q, ErrQuoteClosed
	}
	out := q.Clone()
	out.Status = entity.StatusDeclined
	return out, nil
}
