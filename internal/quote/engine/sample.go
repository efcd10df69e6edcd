package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
)

var (
	ErrNoSampleRequest     = errors.New("quote has no sample request")
	ErrSampleRequestOpen   = errors.New("a sample request is already in progress")
	ErrNoSampleItems       = errors.New("sample request needs at least one line item")
	ErrInvalidTransition   = errors.New("invalid sample request transition")
	ErrInvalidSampleStatus = errors.New("unknown sample request status")
)

// ValidSampleTransitions forward-only sample lifecycle. Confirmation is
// reachable from sent directly or after delivered.
var ValidSampleTransitions = map[string][]string{
	entity.SampleRequested:      {entity.SamplePaymentPending},
	entity.SamplePaymentPending: {entity.SamplePaid},
	entity.SamplePaid:           {entity.SampleSent},
	entity.SampleSent:           {entity.SampleDelivered, entity.SampleConfirmed},
	entity.SampleDelivered:      {entity.SampleConfirmed},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to string) bool {
	for _, s := range ValidSampleTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SampleRequestInput what the client asks to have sampled
type SampleRequestInput struct {
	RequestedItems []entity.SampleItem `json:"requestedItems"`
	Specifications string              `json:"specifications"`
	DeliverySpeed  string              `json:"deliverySpeed"`
}

// RequestSample opens a sample request. A new one may replace a confirmed
// request, never an open one.
func RequestSample(q entity.Quote, in SampleRequestInput, now time.Time) (entity.Quote, error) {
	if q.Status == entity.StatusDeclined {
		return q, ErrQuoteClosed
	}
	if sr := q.NegotiationDetails.SampleRequest; sr != nil && sr.Status != entity.SampleConfirmed {
		return q, ErrSampleRequestOpen
	}
	if len(in.RequestedItems) == 0 {
		return q, ErrNoSampleItems
	}
	for _, it := range in.RequestedItems {
		if q.LineItem(it.LineItemID) == nil {
			return q, ErrLineItemNotFound
		}
	}

	out := q.Clone()
	out.NegotiationDetails.SampleRequest = &entity.SampleRequest{
		Status:         entity.SampleRequested,
		RequestedItems: append([]entity.SampleItem(nil), in.RequestedItems...),
		Specifications: strings.TrimSpace(in.Specifications),
		DeliverySpeed:  in.DeliverySpeed,
		RequestedAt:    now,
	}
	return out, nil
}

// RespondToSample the factory prices the sample and asks for payment.
// Missing totals are computed from the lines.
func RespondToSample(q entity.Quote, resp entity.AdminResponse, now time.Time) (entity.Quote, error) {
	out, sr, err := advance(q, entity.SamplePaymentPending)
	if err != nil {
		return q, err
	}
	for _, line := range resp.Items {
		if !line.LineItemID.IsZero() && q.LineItem(line.LineItemID) == nil {
			return q, ErrLineItemNotFound
		}
	}

	r := resp
	r.Items = make([]entity.SampleInvoiceLine, len(resp.Items))
	var subtotal entity.Amount
	for i, line := range resp.Items {
		if line.Total == 0 {
			line.Total = line.UnitPrice * entity.Amount(line.Quantity)
		}
		subtotal += line.Total
		r.Items[i] = line
	}
	if r.Subtotal == 0 {
		r.Subtotal = subtotal
	}
	if r.Total == 0 {
		r.Total = r.Subtotal + r.ShippingCost
	}
	at := now
	r.RespondedAt = &at
	sr.AdminResponse = &r
	return out, nil
}

func MarkPaid(q entity.Quote, now time.Time) (entity.Quote, error) {
	return AdvanceSample(q, entity.SamplePaid, now)
}

func MarkSent(q entity.Quote, now time.Time) (entity.Quote, error) {
	return AdvanceSample(q, entity.SampleSent, now)
}

func MarkDelivered(q entity.Quote, now time.Time) (entity.Quote, error) {
	return AdvanceSample(q, entity.SampleDelivered, now)
}

// ConfirmSample the client confirms receipt, from sent or delivered.
func ConfirmSample(q entity.Quote, now time.Time) (entity.Quote, error) {
	return AdvanceSample(q, entity.SampleConfirmed, now)
}

// AdvanceSample moves the sample request to a timestamped status.
// payment_pending needs an invoice and goes through RespondToSample.
func AdvanceSample(q entity.Quote, to string, now time.Time) (entity.Quote, error) {
	if to == entity.SamplePaymentPending {
		return q, fmt.Errorf("%w: use the sample response to request payment", ErrInvalidTransition)
	}
	out, sr, err := advance(q, to)
	if err != nil {
		return q, err
	}
	at := now
	switch to {
	case entity.SamplePaid:
		sr.PaidAt = &at
	case entity.SampleSent:
		sr.SentAt = &at
	case entity.SampleDelivered:
		sr.DeliveredAt = &at
	case entity.SampleConfirmed:
		sr.ConfirmedAt = &at
	}
	return out, nil
}

func advance(q entity.Quote, to string) (entity.Quote, *entity.SampleRequest, error) {
	if !isSampleStatus(to) {
		return q, nil, ErrInvalidSampleStatus
	}
	cur := q.NegotiationDetails.SampleRequest
	if cur == nil {
		return q, nil, ErrNoSampleRequest
	}
	if !CanTransition(cur.Status, to) {
		return q, nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, to)
	}
	out := q.Clone()
	sr := out.NegotiationDetails.SampleRequest
	sr.Status = to
	return out, sr, nil
}

func isSampleStatus(s string) bool {
	switch s {
	case entity.SampleRequested, entity.SamplePaymentPending, entity.SamplePaid,
		entity.SampleSent, entity.SampleDelivered, entity.SampleConfirmed:
		return true
	}
	return false
}

// TimelineEvent one step of the sample timeline; Pending marks the
// synthesized next step that has not happened yet.
type TimelineEvent struct {
	Status  string     `json:"status"`
	Label   string     `json:"label"`
	At      *time.Time `json:"at,omitempty"`
	Pending bool       `json:"pending,omitempty"`
}

var timelineLabels = map[string]string{
	entity.SampleRequested:      "Sample requested",
	entity.SamplePaymentPending: "Invoice issued",
	entity.SamplePaid:           "Payment received",
	entity.SampleSent:           "Sample dispatched",
	entity.SampleDelivered:      "Sample delivered",
	entity.SampleConfirmed:      "Sample confirmed",
}

var awaitingLabels = map[string]string{
	entity.SamplePaymentPending: "Awaiting factory quote",
	entity.SamplePaid:           "Awaiting payment",
	entity.SampleSent:           "Awaiting dispatch",
	entity.SampleDelivered:      "Awaiting delivery",
	entity.SampleConfirmed:      "Awaiting your confirmation",
}

// SampleTimeline discrete events for every timestamp present, followed by
// one pending event for the next expected step.
func SampleTimeline(sr *entity.SampleRequest) []TimelineEvent {
	if sr == nil {
		return []TimelineEvent{}
	}
	events := []TimelineEvent{}
	add := func(status string, at *time.Time) {
		if at != nil {
			events = append(events, TimelineEvent{Status: status, Label: timelineLabels[status], At: at})
		}
	}

	requested := sr.RequestedAt
	if !requested.IsZero() {
		add(entity.SampleRequested, &requested)
	}
	if sr.AdminResponse != nil {
		add(entity.SamplePaymentPending, sr.AdminResponse.RespondedAt)
	}
	add(entity.SamplePaid, sr.PaidAt)
	add(entity.SampleSent, sr.SentAt)
	add(entity.SampleDelivered, sr.DeliveredAt)
	add(entity.SampleConfirmed, sr.ConfirmedAt)

	// the first listed transition is the expected one; from sent that is delivery
	if next := ValidSampleTransitions[sr.Status]; len(next) > 0 {
		events = append(events, TimelineEvent{Status: next[0], Label: awaitingLabels[next[0]], Pending: true})
	}
	return events
}
