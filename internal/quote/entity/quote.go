package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/jsonb"
)

// Quote statuses
const (
	StatusPending        = "Pending"
	StatusResponded      = "Responded"
	StatusInNegotiation  = "In Negotiation"
	StatusAdminAccepted  = "Admin Accepted"
	StatusClientAccepted = "Client Accepted"
	StatusAccepted       = "Accepted"
	StatusDeclined       = "Declined"
)

// History senders
const (
	SenderClient  = "client"
	SenderFactory = "factory"
)

// History actions
const (
	ActionOffer   = "offer"
	ActionCounter = "counter"
	ActionInfo    = "info"
)

// Approving parties
const (
	PartyClient = "client"
	PartyAdmin  = "admin"
)

// Sample request statuses
const (
	SampleRequested      = "requested"
	SamplePaymentPending = "payment_pending"
	SamplePaid           = "paid"
	SampleSent           = "sent"
	SampleDelivered      = "delivered"
	SampleConfirmed      = "confirmed"
)

// Quote customer quote request and its negotiation
type Quote struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	ClientID  string `json:"client_id" gorm:"size:64;not null;index"`
	FactoryID string `json:"factory_id,omitempty" gorm:"size:64"`
	Status    string `json:"status" gorm:"size:20;not null;default:Pending"`

	Order              OrderDetails       `json:"order" gorm:"column:order_details;type:jsonb"`
	ResponseDetails    ResponseDetails    `json:"response_details" gorm:"type:jsonb"`
	NegotiationDetails NegotiationDetails `json:"negotiation_details" gorm:"type:jsonb"`
	ExecutionPlan      ExecutionPlan      `json:"execution_plan" gorm:"type:jsonb"`

	// PendingWrite marks local changes the record service has not stored yet.
	PendingWrite bool `json:"pending_write" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Quote) TableName() string {
	return "quotes"
}

// Amount price that older rows stored as a string
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", s)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// OrderDetails the requested order: line items plus shipping info
type OrderDetails struct {
	LineItems          []LineItem `json:"lineItems"`
	ShippingCountry    string     `json:"shippingCountry,omitempty"`
	ShippingPort       string     `json:"shippingPort,omitempty"`
	AdditionalRequests string     `json:"additionalRequests,omitempty"`
}

// LineItem one independently negotiable product specification
type LineItem struct {
	ID            ident.ID           `json:"id"`
	Category      string             `json:"category"`
	Qty           int                `json:"qty"`
	TargetPrice   Amount             `json:"targetPrice"`
	FabricQuality string             `json:"fabricQuality,omitempty"`
	WeightGSM     string             `json:"weightGSM,omitempty"`
	StyleOption   string             `json:"styleOption,omitempty"`
	SizeRange     []string           `json:"sizeRange,omitempty"`
	SizeRatio     map[string]float64 `json:"sizeRatio,omitempty"`
	PackagingReqs string             `json:"packagingReqs,omitempty"`
	LabelingReqs  string             `json:"labelingReqs,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

// ResponseDetails the factory's quoted terms
type ResponseDetails struct {
	Price       Amount     `json:"price"`
	LeadTime    string     `json:"leadTime"`
	Notes       string     `json:"notes,omitempty"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
}

// NegotiationDetails history log, both parties' approvals and the sample request
type NegotiationDetails struct {
	History                 []HistoryItem  `json:"history"`
	ClientApprovedLineItems []ident.ID     `json:"clientApprovedLineItems"`
	AdminApprovedLineItems  []ident.ID     `json:"adminApprovedLineItems"`
	SampleRequest           *SampleRequest `json:"sample_request,omitempty"`
}

// HistoryItem append-only log entry. Price offers, counters and chat messages
// share this shape; chat entries carry RelatedLineItemID.
type HistoryItem struct {
	ID                ident.ID        `json:"id"`
	Sender            string          `json:"sender"`
	Message           string          `json:"message,omitempty"`
	Price             *Amount         `json:"price,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
	Action            string          `json:"action"`
	LineItemPrices    []LineItemPrice `json:"lineItemPrices,omitempty"`
	RelatedLineItemID ident.ID        `json:"relatedLineItemId,omitempty"`
	Attachments       []Attachment    `json:"attachments,omitempty"`
}

// LineItemPrice counter price for one line item
type LineItemPrice struct {
	LineItemID ident.ID `json:"lineItemId"`
	Price      Amount   `json:"price"`
}

// Attachment stored file referenced by a history entry
type Attachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// SampleRequest pre-production sample order
type SampleRequest struct {
	Status         string         `json:"status"`
	RequestedItems []SampleItem   `json:"requestedItems"`
	Specifications string         `json:"specifications,omitempty"`
	DeliverySpeed  string         `json:"deliverySpeed,omitempty"`
	AdminResponse  *AdminResponse `json:"admin_response,omitempty"`
	RequestedAt    time.Time      `json:"requestedAt"`
	PaidAt         *time.Time     `json:"paidAt,omitempty"`
	SentAt         *time.Time     `json:"sentAt,omitempty"`
	DeliveredAt    *time.Time     `json:"deliveredAt,omitempty"`
	ConfirmedAt    *time.Time     `json:"confirmedAt,omitempty"`
}

// SampleItem line item the client wants sampled
type SampleItem struct {
	LineItemID ident.ID `json:"lineItemId"`
	Quantity   int      `json:"quantity"`
	Notes      string   `json:"notes,omitempty"`
}

// AdminResponse the factory's sample invoice
type AdminResponse struct {
	Items          []SampleInvoiceLine `json:"items"`
	Subtotal       Amount              `json:"subtotal"`
	ShippingCost   Amount              `json:"shippingCost"`
	Total          Amount              `json:"total"`
	InvoiceNumber  string              `json:"invoiceNumber"`
	CommercialData jsonb.JSONB         `json:"commercialData,omitempty"`
	RespondedAt    *time.Time          `json:"respondedAt,omitempty"`
}

// SampleInvoiceLine priced sample line
type SampleInvoiceLine struct {
	LineItemID  ident.ID `json:"lineItemId"`
	Description string   `json:"description,omitempty"`
	Quantity    int      `json:"quantity"`
	UnitPrice   Amount   `json:"unitPrice"`
	Total       Amount   `json:"total"`
}

// PlanStage descriptive production stage, display only
type PlanStage struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

type ExecutionPlan []PlanStage

func (o OrderDetails) Value() (driver.Value, error) { return jsonb.Value(o) }

func (o *OrderDetails) Scan(value interface{}) error { return jsonb.Scan(value, o) }

func (r ResponseDetails) Value() (driver.Value, error) { return jsonb.Value(r) }

func (r *ResponseDetails) Scan(value interface{}) error { return jsonb.Scan(value, r) }

func (n NegotiationDetails) Value() (driver.Value, error) { return jsonb.Value(n) }

func (n *NegotiationDetails) Scan(value interface{}) error { return jsonb.Scan(value, n) }

func (p ExecutionPlan) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return jsonb.Value([]PlanStage(p))
}

func (p *ExecutionPlan) Scan(value interface{}) error {
	return jsonb.Scan(value, (*[]PlanStage)(p))
}

// LineItemIDs ids of every line item, in order.
func (q *Quote) LineItemIDs() []ident.ID {
	ids := make([]ident.ID, len(q.Order.LineItems))
	for i, li := range q.Order.LineItems {
		ids[i] = li.ID
	}
	return ids
}

// LineItem returns the line item with id, or nil.
func (q *Quote) LineItem(id ident.ID) *LineItem {
	for i := range q.Order.LineItems {
		if q.Order.LineItems[i].ID == id {
			return &q.Order.LineItems[i]
		}
	}
	return nil
}

// IsClosed Accepted and Declined quotes take no further negotiation.
func (q *Quote) IsClosed() bool {
	return q.Status == StatusAccepted || q.Status == StatusDeclined
}

// Clone deep-copies the quote through its JSON documents.
func (q Quote) Clone() Quote {
	c := q
	c.Order = cloneJSON(q.Order)
	c.ResponseDetails = cloneJSON(q.ResponseDetails)
	c.NegotiationDetails = cloneJSON(q.NegotiationDetails)
	if q.ExecutionPlan != nil {
		c.ExecutionPlan = append(ExecutionPlan(nil), q.ExecutionPlan...)
	}
	return c
}

func cloneJSON[T any](src T) T {
	var dst T
	b, err := json.Marshal(src)
	if err != nil {
		return src
	}
	if err := json.Unmarshal(b, &dst); err != nil {
		return src
	}
	return dst
}
